package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/aether/internal/stability"
	"github.com/roach88/aether/internal/substrate"
)

// Defaults for fields left unset in the file.
const (
	DefaultDelayTau        = 100
	DefaultInjectionRateHz = 1000
	DefaultSindyWindow     = 16
)

// Config holds every tunable of the testbed.
type Config struct {
	// DelayTau is the feedback delay in cells. Must be below GridSize.
	DelayTau uint32 `yaml:"delay_tau"`

	// GridSize is the delay-line cell count. 0 means the substrate default
	// (1M cells).
	GridSize uint32 `yaml:"grid_size"`

	// InjectionRateHz is the target packet injection rate.
	InjectionRateHz uint64 `yaml:"injection_rate_hz"`

	// ChaosThreshold is the Lyapunov exponent below which corrective
	// perturbation kicks in.
	ChaosThreshold float32 `yaml:"chaos_threshold"`

	// ReversibilityTolerance is the MAE limit for the injection round-trip
	// check.
	ReversibilityTolerance float32 `yaml:"reversibility_tolerance"`

	// SindyWindow is the identification window capacity in snapshots.
	SindyWindow int `yaml:"sindy_window"`

	// TelemetryPath is the SQLite database path. Empty disables
	// persistence.
	TelemetryPath string `yaml:"telemetry_path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DelayTau:               DefaultDelayTau,
		GridSize:               substrate.DefaultGridSize,
		InjectionRateHz:        DefaultInjectionRateHz,
		ChaosThreshold:         stability.DefaultChaosThreshold,
		ReversibilityTolerance: 0.01,
		SindyWindow:            DefaultSindyWindow,
	}
}

// Load reads and parses a YAML configuration file. Fields absent from the
// file keep their defaults; unknown fields are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields (catches typos)
	// An empty file decodes to io.EOF and keeps every default.
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks field constraints. Called by Load; callers constructing
// a Config directly should call it themselves.
func (c Config) Validate() error {
	gridSize := c.GridSize
	if gridSize == 0 {
		gridSize = substrate.DefaultGridSize
	}

	if c.DelayTau >= gridSize {
		return fmt.Errorf("delay_tau %d must be smaller than grid_size %d", c.DelayTau, gridSize)
	}
	if c.InjectionRateHz == 0 {
		return fmt.Errorf("injection_rate_hz must be positive")
	}
	if c.ReversibilityTolerance <= 0 {
		return fmt.Errorf("reversibility_tolerance must be positive")
	}
	if c.SindyWindow < 2 {
		return fmt.Errorf("sindy_window must be at least 2")
	}

	return nil
}
