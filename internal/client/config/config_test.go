package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.ServerEndpointAddr, "http://127.0.0.1:8080")
	assert.Equal(t, c.RequestTimeout, 30*time.Second)
	assert.Equal(t, c.LocalDBPath, "portalsend.db")
	assert.Empty(t, c.Email)
	assert.Empty(t, c.AccessToken)
}

func Test_parseJson_LoadsAllFields(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	b, err := json.Marshal(map[string]any{
		"server_endpoint_addr": "http://portal.example",
		"email":                "alice@example.com",
		"access_token":         "token123",
		"request_timeout":      "15s",
		"local_db_path":        "/tmp/pins.db",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))

	os.Args = []string{"testbin", "-config", path}

	cfg := &Config{}
	parseJson(cfg)

	assert.Equal(t, "http://portal.example", cfg.ServerEndpointAddr)
	assert.Equal(t, "alice@example.com", cfg.Email)
	assert.Equal(t, "token123", cfg.AccessToken)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "/tmp/pins.db", cfg.LocalDBPath)
}

func Test_parseFlags_Overrides(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin", "send", "-a", "http://flags.example",
		"-e", "bob@example.com", "-k", "tok", "-t", "5"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "http://flags.example", cfg.ServerEndpointAddr)
	assert.Equal(t, "bob@example.com", cfg.Email)
	assert.Equal(t, "tok", cfg.AccessToken)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}
