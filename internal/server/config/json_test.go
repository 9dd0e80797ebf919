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

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http":             "www.example:9000",
		"database_dsn":                   "postgres://db/tourbook",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "90d",
		"cookie_validity_duration":       "1h",
		"reset_token_validity_duration":  "5m",
		"rate_limit_window":              "15m",
		"rate_limit_max":                 20,
		"bcrypt_cost":                    11,
		"hash_workers":                   3,
		"environment":                    "production",
		"trust_proxy":                    true,
		"amqp_url":                       "amqp://rabbit/",
		"mail_exchange":                  "mailjobs",
		"public_url":                     "https://tours.example",
		"log_level":                      "warn",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "postgres://db/tourbook", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 90*24*time.Hour, cfg.AccessTokenValidityDuration)
		assert.Equal(t, time.Hour, cfg.CookieValidityDuration)
		assert.Equal(t, 5*time.Minute, cfg.ResetTokenValidityDuration)
		assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
		assert.Equal(t, 20, cfg.RateLimitMax)
		assert.Equal(t, 11, cfg.BcryptCost)
		assert.Equal(t, 3, cfg.HashWorkers)
		assert.Equal(t, "production", cfg.Environment)
		assert.True(t, cfg.TrustProxy)
		assert.Equal(t, "amqp://rabbit/", cfg.AMQPURL)
		assert.Equal(t, "mailjobs", cfg.MailExchange)
		assert.Equal(t, "https://tours.example", cfg.PublicURL)
		assert.Equal(t, "warn", cfg.LogLevel)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"rate_limit_max": 5})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, 5, cfg.RateLimitMax)
		assert.Equal(t, ":3000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "secretKey", cfg.SecretKey)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddrHTTP: "defaults:1234",
			SecretKey:        "key",
			RateLimitMax:     3,
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 3, cfg.RateLimitMax)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
