package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "HISTORY_LIMIT", "PING_INTERVAL", "OUTBOX_SIZE"} {
		t.Setenv(key, "")
	}

	cfg, warnings := Load()
	assert.Empty(t, warnings)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 0, cfg.HistoryLimit)
	assert.Equal(t, 256, cfg.OutboxSize)
	assert.Equal(t, 25*time.Second, cfg.PingInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("HISTORY_LIMIT", "500")
	t.Setenv("PING_INTERVAL", "0")
	t.Setenv("CHAT_RATE_PER_SEC", "2.5")
	t.Setenv("MAX_SIGNAL_BYTES", "1024")

	cfg, warnings := Load()
	assert.Empty(t, warnings)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 500, cfg.HistoryLimit)
	assert.Equal(t, time.Duration(0), cfg.PingInterval)
	assert.Equal(t, 2.5, cfg.ChatRatePerSec)
	assert.Equal(t, 1024, cfg.Limits.MaxSignalBytes)
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(t *testing.T, cfg Config)
	}{
		{"HISTORY_LIMIT", "lots", func(t *testing.T, cfg Config) { assert.Equal(t, 0, cfg.HistoryLimit) }},
		{"PING_INTERVAL", "soon", func(t *testing.T, cfg Config) { assert.Equal(t, 25*time.Second, cfg.PingInterval) }},
		{"CHAT_RATE_PER_SEC", "fast", func(t *testing.T, cfg Config) { assert.Equal(t, 10.0, cfg.ChatRatePerSec) }},
		{"LOG_LEVEL", "verbose", func(t *testing.T, cfg Config) { assert.Equal(t, "info", cfg.LogLevel) }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg, warnings := Load()
			require.Len(t, warnings, 1)
			assert.Equal(t, tt.key, warnings[0].Key)
			assert.Contains(t, warnings[0].String(), tt.key)
			tt.check(t, cfg)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	base, _ := Load()

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative history", func(c *Config) { c.HistoryLimit = -1 }},
		{"empty outbox", func(c *Config) { c.OutboxSize = 0 }},
		{"zero burst", func(c *Config) { c.ChatBurst = 0 }},
		{"negative ping", func(c *Config) { c.PingInterval = -time.Second }},
		{"zero write timeout", func(c *Config) { c.WriteTimeout = 0 }},
		{"zero message limit", func(c *Config) { c.Limits.MaxMessageLength = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
