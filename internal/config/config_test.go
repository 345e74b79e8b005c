package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aether/internal/substrate"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, uint32(DefaultDelayTau), cfg.DelayTau)
	assert.Equal(t, uint32(substrate.DefaultGridSize), cfg.GridSize)
	assert.Equal(t, uint64(DefaultInjectionRateHz), cfg.InjectionRateHz)
	assert.Empty(t, cfg.TelemetryPath)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
delay_tau: 50
grid_size: 4096
injection_rate_hz: 500
telemetry_path: /tmp/aether.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(50), cfg.DelayTau)
	assert.Equal(t, uint32(4096), cfg.GridSize)
	assert.Equal(t, uint64(500), cfg.InjectionRateHz)
	assert.Equal(t, "/tmp/aether.db", cfg.TelemetryPath)

	// Unset fields keep defaults.
	assert.Equal(t, DefaultSindyWindow, cfg.SindyWindow)
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, "delay_taau: 50\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "tau at grid size",
			mutate:  func(c *Config) { c.DelayTau = 4096; c.GridSize = 4096 },
			wantErr: "delay_tau",
		},
		{
			name:    "zero injection rate",
			mutate:  func(c *Config) { c.InjectionRateHz = 0 },
			wantErr: "injection_rate_hz",
		},
		{
			name:    "negative tolerance",
			mutate:  func(c *Config) { c.ReversibilityTolerance = -1 },
			wantErr: "reversibility_tolerance",
		},
		{
			name:    "window too small",
			mutate:  func(c *Config) { c.SindyWindow = 1 },
			wantErr: "sindy_window",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ZeroGridSizeUsesDefault(t *testing.T) {
	cfg := Default()
	cfg.GridSize = 0
	cfg.DelayTau = 1 << 19 // valid against the 1M-cell default
	assert.NoError(t, cfg.Validate())
}
