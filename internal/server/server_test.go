package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/isoft/internal/poller"
)

func startServer(t *testing.T, cfg *Config) (*Server, string) {
	t.Helper()

	srv, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(ShutdownTimeout):
			t.Error("server did not shut down")
		}
	})

	return srv, "http://" + srv.Addr().String()
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestNew_Validation(t *testing.T) {
	h := http.NotFoundHandler()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing addr", Config{}},
		{"metrics without path", Config{Addr: ":0", MetricsHandler: h}},
		{"stream without path", Config{Addr: ":0", StreamHandler: h}},
		{"shared path", Config{Addr: ":0", MetricsHandler: h, MetricsPath: "/x", StreamHandler: h, StreamPath: "/x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			_, err := New(&cfg)
			assert.Error(t, err)
		})
	}
}

func TestServer_Routes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "metrics")
	})
	stream := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "stream")
	})

	_, base := startServer(t, &Config{
		Addr:           "127.0.0.1:0",
		MetricsPath:    "/metrics",
		MetricsHandler: metrics,
		StreamPath:     "/ws",
		StreamHandler:  stream,
	})

	status, body := get(t, base+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "metrics", body)

	status, body = get(t, base+"/ws")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "stream", body)

	status, _ = get(t, base+"/nope")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_DisabledHandlersNotMounted(t *testing.T) {
	_, base := startServer(t, &Config{Addr: "127.0.0.1:0", MetricsPath: "/metrics"})

	status, _ := get(t, base+"/metrics")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_Health(t *testing.T) {
	srv, base := startServer(t, &Config{Addr: "127.0.0.1:0"})

	status, body := get(t, base+"/healthz")
	require.Equal(t, http.StatusOK, status)

	var doc healthDoc
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, "ok", doc.Status)
	assert.Nil(t, doc.LastPoll)

	at := time.Date(2025, time.February, 4, 13, 37, 0, 0, time.UTC)
	require.NoError(t, srv.Consume(context.Background(), poller.Snapshot{Device: "dev", At: at}))
	assert.Equal(t, "health", srv.Name())

	_, body = get(t, base+"/healthz")
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, "dev", doc.Device)
	require.NotNil(t, doc.LastPoll)
	assert.True(t, at.Equal(*doc.LastPoll))
}

func TestServer_ListenFailure(t *testing.T) {
	first, _ := startServer(t, &Config{Addr: "127.0.0.1:0"})

	second, err := New(&Config{Addr: first.Addr().String()})
	require.NoError(t, err)
	assert.Error(t, second.Start(context.Background()))
}
