package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/isoft/internal/config"
)

func fakeSoftener() http.Handler {
	registers := map[string]string{
		"5100": "0F",
		"5600": "E803",
		"2800": "E8030000",
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, ok := registers[strings.TrimPrefix(r.URL.Path, "/api/rest/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"data": payload})
	})
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func body(url string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return string(data), err
}

func TestRun_MetricsAndHealth(t *testing.T) {
	device := httptest.NewServer(fakeSoftener())
	defer device.Close()

	cfg := config.Default()
	cfg.Device.Host = device.URL
	cfg.Poll.Interval = time.Hour
	cfg.Metrics.Enabled = true
	cfg.Metrics.Listen = freeAddr(t)
	cfg.Stream.Enabled = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	base := "http://" + cfg.Metrics.Listen

	// The first poll runs immediately
	require.Eventually(t, func() bool {
		text, err := body(base + "/healthz")
		return err == nil && strings.Contains(text, "last_poll")
	}, 5*time.Second, 20*time.Millisecond)

	text, err := body(base + "/metrics")
	require.NoError(t, err)
	assert.Contains(t, text, "isoft_water_hardness_dh")
	assert.Contains(t, text, "isoft_salt_level_grams")
	assert.Contains(t, text, `isoft_poll_failures_total{device=`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("bridge did not stop after cancel")
	}
}

func TestRun_UnknownMeasurement(t *testing.T) {
	cfg := config.Default()
	cfg.Device.Host = "192.0.2.1"
	cfg.Poll.Measurements = []string{"ph_value"}

	assert.Error(t, run(context.Background(), cfg))
}
