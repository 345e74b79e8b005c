package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/aether/internal/flow"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Stream signals from stdin through the reservoir",
		Long: `Stream whitespace-separated signal values from stdin through the
reservoir at the configured injection rate.

Each output is printed to stdout as it becomes available. The injection
loop is paced by the phase lock, so sustained streaming converges on the
configured rate. Stops on end of input or Ctrl-C.

Examples:
  seq 1 100 | awk '{print sin($1*0.1)}' | aether run
  aether run --config aether.yaml --verbose < signals.txt`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStream(opts, cmd)
		},
	}

	return cmd
}

func runStream(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	orch, cleanup, err := buildOrchestrator(cfg, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build orchestrator", err)
	}
	defer func() {
		if closeErr := cleanup(); closeErr != nil {
			slog.Error("error closing telemetry", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	queue := flow.NewSignalQueue()

	// Producer: scan stdin into the queue, close on EOF.
	scanErr := make(chan error, 1)
	go func() {
		defer queue.Close()

		scanner := bufio.NewScanner(cmd.InOrStdin())
		scanner.Split(bufio.ScanWords)
		for scanner.Scan() {
			v, err := strconv.ParseFloat(scanner.Text(), 32)
			if err != nil {
				scanErr <- fmt.Errorf("parse %q: %w", scanner.Text(), err)
				return
			}
			if !queue.Enqueue(float32(v)) {
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	// Consumer: print outputs as they arrive.
	out := make(chan float32, 64)
	printDone := make(chan struct{})
	go func() {
		defer close(printDone)
		for v := range out {
			fmt.Fprintf(cmd.OutOrStdout(), "%g\n", v)
		}
	}()

	slog.Info("streaming started", "rate_hz", cfg.InjectionRateHz)
	runErr := orch.RunQueue(ctx, queue, out)
	close(out)
	<-printDone

	// On cancellation the stdin reader may still be blocked on input;
	// abandon it instead of waiting.
	var readErr error
	select {
	case readErr = <-scanErr:
	case <-ctx.Done():
	}
	if readErr != nil {
		return WrapExitError(ExitCommandError, "failed to read signals", readErr)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return WrapExitError(ExitFailure, "stream failed", runErr)
	}

	slog.Info("streaming finished", "packets", orch.PacketCount())
	return nil
}
