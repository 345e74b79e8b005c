package cli

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/aether/internal/flow"
)

// CycleOptions holds flags for the cycle command.
type CycleOptions struct {
	*RootOptions
	Count int
}

// lastReportRecorder keeps the most recent report for printing.
type lastReportRecorder struct {
	last *flow.Report
}

func (r *lastReportRecorder) RecordCycle(_ context.Context, rep flow.Report) error {
	r.last = &rep
	return nil
}

// NewCycleCommand creates the cycle command.
func NewCycleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CycleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cycle [signal...]",
		Short: "Run one orchestration cycle",
		Long: `Run a single orchestration cycle over a batch of signals.

Signals are given as arguments; without arguments a sine sweep of --count
samples is generated. The cycle report (phase lock, Lyapunov exponent,
identified coefficients, reversibility) is printed when it finishes.

Examples:
  aether cycle 0.1 0.5 0.9
  aether cycle --count 32
  aether cycle --count 32 --config aether.yaml --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCycle(opts, cmd, args)
		},
	}

	cmd.Flags().IntVar(&opts.Count, "count", 10, "generated signal count when no signals are given")

	return cmd
}

func runCycle(opts *CycleOptions, cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	signals, err := parseSignals(args, opts.Count)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid signal", err)
	}

	capture := &lastReportRecorder{}
	orch, cleanup, err := buildOrchestrator(cfg, capture)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build orchestrator", err)
	}
	defer cleanup()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := orch.RunCycle(ctx, signals); err != nil {
		return WrapExitError(ExitFailure, "cycle failed", err)
	}
	if capture.last == nil {
		return WrapExitError(ExitFailure, "cycle produced no report", nil)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(*capture.last)
}

// parseSignals turns arguments into a signal batch, or generates a sine
// sweep of count samples when no arguments are given.
func parseSignals(args []string, count int) ([]float32, error) {
	if len(args) == 0 {
		if count <= 0 {
			return nil, fmt.Errorf("count must be positive, got %d", count)
		}
		signals := make([]float32, count)
		for i := range signals {
			signals[i] = float32(math.Sin(float64(i) * 0.1))
		}
		return signals, nil
	}

	signals := make([]float32, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", arg, err)
		}
		signals = append(signals, float32(v))
	}
	return signals, nil
}
