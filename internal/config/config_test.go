package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, "https://api.puter.com", cfg.Gateway.BaseURL)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gateway.DefaultModel)
	assert.Equal(t, 2*time.Minute, cfg.Gateway.QuotaTTL)
	assert.Equal(t, 100, cfg.Oracle.HistoryLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_TYPE", "mysql")
	t.Setenv("STORE_MYSQL_NAME", "companion_test")
	t.Setenv("GATEWAY_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Store.Type)
	assert.Contains(t, cfg.Store.MySQLDSN(), "/companion_test")
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
}

func TestRedisAddress(t *testing.T) {
	c := CacheConfig{RedisHost: "cache.local", RedisPort: 6380}
	assert.Equal(t, "cache.local:6380", c.RedisAddress())
}
