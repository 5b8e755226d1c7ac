package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeIni(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "node.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeIni(t, "[dht]\nlisten_address = 127.0.0.1:9000\napi_address = 127.0.0.1:9001\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddress)
	assert.Equal(t, "127.0.0.1:9001", cfg.APIAddress)
	assert.Equal(t, defaultWorkerThreads, cfg.WorkerThreads)
	assert.Equal(t, defaultFingers, cfg.Fingers)
	assert.Equal(t, defaultMaxReplication, cfg.MaxReplication)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeIni(t, `[dht]
listen_address = 10.0.0.1:9000
api_address = 10.0.0.1:9001
worker_threads = 8
timeout = 1000
fingers = 16
stabilization_interval = 5
max_replication = 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.WorkerThreads)
	assert.Equal(t, 16, cfg.Fingers)
	assert.Equal(t, 10, cfg.MaxReplication)
}

func TestLoadRequiresListenAddress(t *testing.T) {
	path := writeIni(t, "[dht]\napi_address = 127.0.0.1:9001\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	path := writeIni(t, "[dht]\n")
	assert.True(t, Exists(path))
	assert.False(t, Exists(path+".nope"))
}
