package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.upbit.com", cfg.BaseURL)
	assert.Equal(t, "wss://api.upbit.com/websocket/v1", cfg.StreamURL)
	assert.Equal(t, 30, cfg.QuotationLimit.RequestsPerSecond)
	assert.Equal(t, 8, cfg.ExchangeLimit.RequestsPerSecond)
	assert.Nil(t, cfg.Credentials)

	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"missing base url", func(c *Config) { c.BaseURL = "" }, true},
		{"malformed base url", func(c *Config) { c.BaseURL = "not a url" }, true},
		{"missing stream url", func(c *Config) { c.StreamURL = "" }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"empty log level ok", func(c *Config) { c.LogLevel = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Chaining(t *testing.T) {
	cfg := DefaultConfig().
		WithCredentials("access", "secret").
		WithTimeout(5*time.Second).
		WithRateLimits(
			RateGroupConfig{RequestsPerSecond: 10, Burst: 10},
			RateGroupConfig{RequestsPerSecond: 4, Burst: 4},
		).
		WithReconnect(500*time.Millisecond, 10*time.Second, 7).
		WithLogLevel("debug")

	require.NotNil(t, cfg.Credentials)
	assert.Equal(t, "access", cfg.Credentials.AccessKey)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 10, cfg.QuotationLimit.RequestsPerSecond)
	assert.Equal(t, 4, cfg.ExchangeLimit.RequestsPerSecond)
	assert.Equal(t, 7, cfg.ReconnectMaxAttempts)
	assert.Equal(t, "debug", cfg.LogLevel)

	require.NoError(t, cfg.Validate())
}
