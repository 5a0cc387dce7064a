package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o644))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Store.ConnectRetries)
	assert.Equal(t, 2*time.Second, cfg.Store.ConnectWait)
	assert.True(t, cfg.Store.Seed)
	assert.Equal(t, "pos:", cfg.Store.KeyPrefix)
	assert.Equal(t, 3, cfg.Sales.CommitRetries)
	assert.Equal(t, "BMS MART", cfg.Receipt.StoreName)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.HTTP.CORSAllowOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := writeConfig(t, `
[store]
driver = "redis"
seed = false

[redis]
addr = "cache:6379"

[session]
ttl = "30m"
`)
	t.Setenv("POS_REDIS_DB", "4")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.False(t, cfg.Store.Seed)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 4, cfg.Redis.DB)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"POS_STORE_DRIVER": "oracle"}},
		{"negative retries", map[string]string{"POS_SALES_COMMIT_RETRIES": "-1"}},
		{"production default secret", map[string]string{"POS_APP_ENV": "production"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingDSN(t *testing.T) {
	dir := writeConfig(t, `
[store]
driver = "mysql"
dsn = ""
`)
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_BadFile(t *testing.T) {
	dir := writeConfig(t, "this is = = not toml")
	_, err := Load(dir)
	assert.Error(t, err)
}
