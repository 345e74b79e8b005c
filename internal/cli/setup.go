package cli

import (
	"log/slog"

	"github.com/roach88/aether/internal/config"
	"github.com/roach88/aether/internal/flow"
	"github.com/roach88/aether/internal/sindy"
	"github.com/roach88/aether/internal/stability"
	"github.com/roach88/aether/internal/substrate"
	"github.com/roach88/aether/internal/telemetry"
)

// buildOrchestrator assembles the full stack from a configuration:
// substrate, identification engine, stability monitors, and (when a
// telemetry path is configured) the persistent recorder. A non-nil
// extraRec receives every report alongside the telemetry store.
//
// The returned cleanup closes the telemetry store; it is never nil.
func buildOrchestrator(cfg config.Config, extraRec flow.Recorder) (*flow.Orchestrator, func() error, error) {
	subOpts := []substrate.Option{}
	if cfg.GridSize != 0 {
		subOpts = append(subOpts, substrate.WithGridSize(cfg.GridSize))
	}

	sub, err := substrate.New(cfg.DelayTau, subOpts...)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("substrate ready",
		"backend", sub.Backend(),
		"grid_size", sub.GridSize(),
		"delay_tau", sub.DelayTau(),
	)

	opts := []flow.Option{
		flow.WithChaosMonitor(stability.NewChaosMonitor(cfg.ChaosThreshold)),
		flow.WithReversibilityTolerance(cfg.ReversibilityTolerance),
	}

	recorders := []flow.Recorder{}
	if extraRec != nil {
		recorders = append(recorders, extraRec)
	}

	cleanup := func() error { return nil }
	if cfg.TelemetryPath != "" {
		store, err := telemetry.Open(cfg.TelemetryPath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("telemetry ready", "path", cfg.TelemetryPath)
		recorders = append(recorders, store)
		cleanup = store.Close
	}

	if len(recorders) > 0 {
		opts = append(opts, flow.WithRecorder(flow.MultiRecorder(recorders...)))
	}

	engine := sindy.NewEngine(cfg.SindyWindow)
	return flow.New(sub, engine, cfg.InjectionRateHz, opts...), cleanup, nil
}
