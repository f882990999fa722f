package device

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"
)

// lagging serves stale hardness for the first `stale` reads after a write
type lagging struct {
	mu      sync.Mutex
	current string
	pending string
	stale   int
}

func (l *lagging) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/rest/3000":
		var env struct {
			Data string `json:"data"`
		}
		_ = json.NewDecoder(r.Body).Decode(&env)
		l.pending = env.Data
	case r.Method == http.MethodGet && r.URL.Path == "/api/rest/5100":
		if l.pending != "" {
			if l.stale == 0 {
				l.current, l.pending = l.pending, ""
			} else {
				l.stale--
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"data": l.current})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func fastVerification(attempts int) VerificationOptions {
	return VerificationOptions{MaxAttempts: attempts}
}

func TestSetWaterHardnessVerified(t *testing.T) {
	client := newTestClient(t, &lagging{current: "05", stale: 2})

	result := client.SetWaterHardnessVerified(context.Background(), 8, fastVerification(4))
	if !result.Success {
		t.Fatalf("verification failed: %v", result.Err)
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
	if result.Actual != 8 {
		t.Errorf("Actual = %d, want 8", result.Actual)
	}
}

func TestVerifyWaterHardness_GivesUp(t *testing.T) {
	client := newTestClient(t, &lagging{current: "05", pending: "08", stale: 10})

	result := client.VerifyWaterHardness(context.Background(), 8, fastVerification(3))
	if result.Success {
		t.Fatal("verification should fail while the device reports the old value")
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
	if result.Actual != 5 {
		t.Errorf("Actual = %d, want 5", result.Actual)
	}
	if result.Err == nil {
		t.Error("Err should describe the mismatch")
	}
}

func TestVerifyWaterHardness_BypassesReadCache(t *testing.T) {
	dev := &lagging{current: "05"}
	client := newTestClient(t, dev, WithReadCache(time.Hour))

	if _, ok := client.WaterHardness(context.Background()); !ok {
		t.Fatal("initial read failed")
	}

	dev.mu.Lock()
	dev.current = "08"
	dev.mu.Unlock()

	result := client.VerifyWaterHardness(context.Background(), 8, fastVerification(1))
	if !result.Success {
		t.Errorf("verification read a cached value: %v", result.Err)
	}
}

func TestVerifyWaterHardness_Canceled(t *testing.T) {
	client := newTestClient(t, &lagging{current: "05"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := fastVerification(3)
	opts.InitialDelay = time.Second
	result := client.VerifyWaterHardness(ctx, 8, opts)
	if result.Success || result.Attempts != 0 {
		t.Errorf("result = %+v, want no attempts after cancel", result)
	}
	if !IsTransportError(result.Err) {
		t.Errorf("Err = %v, want a canceled transport error", result.Err)
	}
}

func TestSetWaterHardnessVerified_InvalidValue(t *testing.T) {
	client := newTestClient(t, &lagging{current: "05"})

	result := client.SetWaterHardnessVerified(context.Background(), 300, fastVerification(1))
	if result.Success || !IsValidationError(result.Err) {
		t.Errorf("result = %+v, want validation error", result)
	}
}
