package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/isoft/internal/poller"
)

type fakeSoftener struct {
	mu        sync.Mutex
	registers map[string]string
	writes    map[string]string
}

func (f *fakeSoftener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if user, pass, ok := r.BasicAuth(); !ok || user != "admin" || pass != "Connectivity" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	reg := strings.TrimPrefix(r.URL.Path, "/api/rest/")

	switch r.Method {
	case http.MethodGet:
		payload, ok := f.registers[reg]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"data": payload})
	case http.MethodPost:
		var env struct {
			Data string `json:"data"`
		}
		_ = json.NewDecoder(r.Body).Decode(&env)
		f.writes[reg] = env.Data
	}
}

func newSoftener(t *testing.T) (*fakeSoftener, string) {
	t.Helper()
	f := &fakeSoftener{
		registers: map[string]string{
			"5100": "0F",
			"5600": "E803",
			"2800": "E8030000",
			"FF00": "33",
			"0100": "040102",
			"0600": "78563412",
		},
		writes: map[string]string{},
	}
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return f, server.URL
}

// run executes the root command with a config path that does not exist
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("ISOFT_PASSWORD", "")
	t.Setenv("ISOFT_LOG_LEVEL", "")

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestGet(t *testing.T) {
	_, url := newSoftener(t)

	out, _, err := run(t, "get", "water-hardness", "--host", url, "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "15 °dH\n", out)

	out, _, err = run(t, "get", "total_water_volume", "--host", url, "--format", "json")
	require.NoError(t, err)

	var doc poller.ReadingDoc
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "total_water_volume", doc.Measurement)
	assert.Equal(t, 1.0, doc.Value)
	assert.Equal(t, "m³", doc.Unit)
}

func TestGet_UnknownMeasurement(t *testing.T) {
	_, url := newSoftener(t)

	_, _, err := run(t, "get", "ph_value", "--host", url, "--format", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "salt_level")
}

func TestGet_DeviceFailureIsReported(t *testing.T) {
	_, url := newSoftener(t)

	// 2500 is not served by the fake device
	_, stderr, err := run(t, "get", "operating_hours", "--host", url, "--format", "text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errReported))
	assert.Contains(t, stderr, "Could not read Operating hours")
}

func TestShow_PartialFailure(t *testing.T) {
	_, url := newSoftener(t)

	out, _, err := run(t, "show", "--host", url, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "water_hardness\t15 °dH")
	assert.Contains(t, out, "salt_level\t1000 g")
	assert.Contains(t, out, "soft_water_volume\t-")
}

func TestRaw(t *testing.T) {
	_, url := newSoftener(t)

	out, _, err := run(t, "raw", "ff00", "--host", url)
	require.NoError(t, err)
	assert.Equal(t, "33\n", out)

	_, _, err = run(t, "raw", "XYZ", "--host", url)
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	_, url := newSoftener(t)

	out, _, err := run(t, "info", "--host", url, "--format", "json")
	require.NoError(t, err)

	var doc infoDoc
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "i-soft SAFE+", doc.Type)
	assert.Equal(t, "0x33", doc.TypeCode)
	assert.Equal(t, "2.1.4", doc.Firmware)
	assert.Equal(t, uint32(0x12345678), doc.Serial)
}

func TestControlCommands(t *testing.T) {
	f, url := newSoftener(t)

	_, _, err := run(t, "set", "hardness", "8", "--host", url)
	require.NoError(t, err)
	_, _, err = run(t, "leak-protection", "off", "--host", url)
	require.NoError(t, err)
	_, _, err = run(t, "vacation", "on", "--host", url)
	require.NoError(t, err)
	_, _, err = run(t, "regenerate", "--host", url)
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, map[string]string{
		"3000":   "08",
		"3D00":   "",
		"4100":   "01",
		"350000": "",
	}, f.writes)
}

func TestControlCommands_InvalidArgumentNeverReachesDevice(t *testing.T) {
	f, url := newSoftener(t)

	_, _, err := run(t, "set", "hardness", "300", "--host", url)
	assert.Error(t, err)
	_, _, err = run(t, "vacation", "maybe", "--host", url)
	assert.Error(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Empty(t, f.writes)
}

func TestNoHostConfigured(t *testing.T) {
	deviceHost = ""
	require.NoError(t, rootCmd.PersistentFlags().Set("host", ""))

	_, _, err := run(t, "raw", "5100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no device configured")
}

func TestConfigInitAndShow(t *testing.T) {
	t.Setenv("ISOFT_PASSWORD", "")
	path := filepath.Join(t.TempDir(), "isoft.yaml")
	t.Cleanup(func() { _ = rootCmd.PersistentFlags().Set("password", "") })

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)

	rootCmd.SetArgs([]string{"config", "init", "--config", path, "--host", "192.168.1.40", "--password", "secret"})
	require.NoError(t, rootCmd.Execute())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	rootCmd.SetArgs([]string{"config", "init", "--config", path, "--host", "192.168.1.40"})
	assert.Error(t, rootCmd.Execute(), "init must not overwrite without --force")

	stdout.Reset()
	rootCmd.SetArgs([]string{"config", "show", "--config", path})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, stdout.String(), "host: 192.168.1.40")
	assert.NotContains(t, stdout.String(), "secret")
}
