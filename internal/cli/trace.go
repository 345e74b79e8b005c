package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/aether/internal/telemetry"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunToken string // optional - filter to one run
	Limit    int
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "List persisted cycle records",
		Long: `List cycle records from a telemetry database, newest first.

Each record carries the run token, packet count, final output, phase lock
state, Lyapunov exponent, identified coefficients, and the reversibility
verdict of one cycle.

Examples:
  aether trace --db ./aether.db
  aether trace --db ./aether.db --limit 5
  aether trace --db ./aether.db --run 0190c2a8-5bfc-7001-b1a5-6a27c3f1e003
  aether trace --db ./aether.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "filter to a single run token")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum records to list (0 = all)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	store, err := telemetry.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var records []telemetry.CycleRecord
	if opts.RunToken != "" {
		records, err = store.ReadCyclesByToken(ctx, opts.RunToken)
	} else {
		records, err = store.ReadCycles(ctx, opts.Limit)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read cycles", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return formatter.Success(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no cycle records")
		return nil
	}
	for _, rec := range records {
		fmt.Fprintln(cmd.OutOrStdout(), formatCycleRecord(rec))
	}
	return nil
}

// formatCycleRecord renders one record as a single text line.
func formatCycleRecord(rec telemetry.CycleRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s packets=%d final=%g locked=%t exponent=%g axiom_ok=%t",
		rec.RunToken, rec.PacketCount, rec.FinalOutput, rec.PhaseLocked,
		rec.LyapunovExponent, rec.AxiomOK)
	if rec.Coefficients != nil {
		fmt.Fprintf(&b, " coefficients=%v", rec.Coefficients)
	}
	if rec.Perturbed {
		b.WriteString(" perturbed=true")
	}
	if !rec.ReversibilityOK {
		fmt.Fprintf(&b, " reversibility_mae=%g", rec.ReversibilityMAE)
	}
	return b.String()
}
