package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "exhaustive", cfg.PartitionPolicy)
	assert.Equal(t, 12, cfg.MaxExhaustiveModes)
	assert.Equal(t, 10, cfg.PhiSampleEvery)
	assert.True(t, len(cfg.DataDir) > 0 && cfg.DataDir[0] == '/', "data dir should be absolute")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QPHI_PORT", "9100")
	t.Setenv("QPHI_LOG_LEVEL", "debug")
	t.Setenv("QPHI_PARTITION_POLICY", "heuristic")
	t.Setenv("QPHI_MAX_EXHAUSTIVE_MODES", "6")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "heuristic", cfg.PartitionPolicy)
	assert.Equal(t, 6, cfg.MaxExhaustiveModes)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad policy", func(c *Config) { c.PartitionPolicy = "greedy" }},
		{"bad threshold", func(c *Config) { c.MaxExhaustiveModes = 0 }},
		{"bad sample interval", func(c *Config) { c.PhiSampleEvery = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Port:               8090,
				LogLevel:           "info",
				PartitionPolicy:    "exhaustive",
				MaxExhaustiveModes: 12,
				PhiSampleEvery:     10,
			}
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
