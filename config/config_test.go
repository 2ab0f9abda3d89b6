package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "DB_PATH", "DB_DEBUG", "SWEEP_INTERVAL", "SWEEP_FIRST_RUN",
		"SWEEP_CONCURRENCY", "DELIVERY_TIMEOUT", "LIST_CARD_LIMIT", "AUDIT_CAPACITY", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, Config{
		HTTPAddr:         ":3000",
		DBPath:           "tasks.db",
		SweepInterval:    15 * time.Minute,
		SweepFirstRun:    5 * time.Second,
		SweepConcurrency: 4,
		DeliveryTimeout:  10 * time.Second,
		ListCardLimit:    20,
		AuditCapacity:    500,
		ShutdownTimeout:  30 * time.Second,
	}, cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("DB_DEBUG", "true")
	t.Setenv("SWEEP_INTERVAL", "1m")
	t.Setenv("SWEEP_CONCURRENCY", "not-a-number")
	t.Setenv("DELIVERY_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.True(t, cfg.DBDebug)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 4, cfg.SweepConcurrency)
	assert.Equal(t, 10*time.Second, cfg.DeliveryTimeout)
}

func TestValidate(t *testing.T) {
	valid := Config{
		HTTPAddr:         ":3000",
		DBPath:           "tasks.db",
		SweepInterval:    time.Minute,
		SweepConcurrency: 1,
		DeliveryTimeout:  time.Second,
		ListCardLimit:    1,
		AuditCapacity:    1,
		ShutdownTimeout:  time.Second,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty addr", mutate: func(c *Config) { c.HTTPAddr = "" }, wantErr: "HTTP_ADDR"},
		{name: "zero interval", mutate: func(c *Config) { c.SweepInterval = 0 }, wantErr: "SWEEP_INTERVAL"},
		{name: "negative first run", mutate: func(c *Config) { c.SweepFirstRun = -time.Second }, wantErr: "SWEEP_FIRST_RUN"},
		{name: "no workers", mutate: func(c *Config) { c.SweepConcurrency = 0 }, wantErr: "SWEEP_CONCURRENCY"},
		{name: "no cards", mutate: func(c *Config) { c.ListCardLimit = 0 }, wantErr: "LIST_CARD_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
