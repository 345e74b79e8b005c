package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/aether/internal/sindy"
	"github.com/roach88/aether/internal/stability"
	"github.com/roach88/aether/internal/substrate"
)

// DriftWarnThresholdNS is the phase error above which injection timing is
// logged as drifting. 100 microseconds.
const DriftWarnThresholdNS = 100_000

// chaosSampleLen is how many substrate cells each chaos trajectory samples.
const chaosSampleLen = 100

// DefaultReversibilityTolerance is the MAE tolerance for the injection
// round-trip check.
const DefaultReversibilityTolerance float32 = 0.01

// Orchestrator sequences packets through the reservoir and closes the
// stability feedback loops around it.
//
// The packet guard (mu) covers one full inject-step-read lifecycle, so the
// substrate has a single writer per packet. The stability monitors and the
// identification engine carry their own guards and only ever receive read
// snapshots passed by value; they never touch the buffer directly.
type Orchestrator struct {
	mu sync.Mutex // packet-lifecycle guard over the substrate

	sub    *substrate.Substrate
	engine *sindy.Engine
	pll    *stability.PhaseLock
	chaos  *stability.ChaosMonitor
	rev    *stability.ReversibilityAssertion

	counter  packetCounter
	tokens   RunTokenGenerator
	recorder Recorder
	now      func() time.Time

	injectionRateHz uint64
}

// Option configures an Orchestrator at construction.
type Option func(*Orchestrator)

// WithRecorder attaches a telemetry recorder. Recorder failures are logged,
// never propagated: persistence is an operator surface, not part of the
// packet contract.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithRunTokens replaces the run-token generator (tests use FixedGenerator).
func WithRunTokens(g RunTokenGenerator) Option {
	return func(o *Orchestrator) {
		o.tokens = g
	}
}

// WithChaosMonitor replaces the default monitor (threshold -0.01).
func WithChaosMonitor(m *stability.ChaosMonitor) Option {
	return func(o *Orchestrator) {
		o.chaos = m
	}
}

// WithPhaseLock replaces the default phase lock (period 1e9/rate ns).
func WithPhaseLock(p *stability.PhaseLock) Option {
	return func(o *Orchestrator) {
		o.pll = p
	}
}

// WithReversibilityTolerance overrides the injection round-trip tolerance.
func WithReversibilityTolerance(tol float32) Option {
	return func(o *Orchestrator) {
		o.rev = stability.NewReversibilityAssertion(tol)
	}
}

// WithTimeSource replaces the wall clock used for packet timestamps.
func WithTimeSource(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an orchestrator over the given substrate and identification
// engine, pacing injection at injectionRateHz.
func New(sub *substrate.Substrate, engine *sindy.Engine, injectionRateHz uint64, opts ...Option) *Orchestrator {
	if injectionRateHz == 0 {
		injectionRateHz = 1
	}
	o := &Orchestrator{
		sub:             sub,
		engine:          engine,
		injectionRateHz: injectionRateHz,
		tokens:          UUIDv7Generator{},
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.pll == nil {
		o.pll = stability.NewPhaseLock(int64(1_000_000_000 / injectionRateHz))
	}
	if o.chaos == nil {
		o.chaos = stability.NewChaosMonitor(stability.DefaultChaosThreshold)
	}
	if o.rev == nil {
		o.rev = stability.NewReversibilityAssertion(DefaultReversibilityTolerance)
	}
	return o
}

// InjectPacket runs one packet through the reservoir: timing mark,
// injection at cell (id mod grid size), kernel step, readout.
//
// Accelerator failures propagate and abort the caller's batch; timing
// drift is logged, never failed.
func (o *Orchestrator) InjectPacket(p Packet) (float32, error) {
	out, _, err := o.injectPacket(p)
	return out, err
}

// injectPacket additionally returns the pre-step echo of the injected
// value, which feeds the cycle-level reversibility assertion.
func (o *Orchestrator) injectPacket(p Packet) (output, echo float32, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	phaseError := o.pll.MarkInjection()
	if phaseError > DriftWarnThresholdNS || phaseError < -DriftWarnThresholdNS {
		slog.Warn("phase drift detected",
			"phase_error_ns", phaseError,
			"packet_id", p.ID,
		)
	}

	position := p.ID % uint64(o.sub.GridSize())
	o.sub.Inject(p.Signal, position)
	echo = o.sub.Read(position)

	if err := o.sub.Step(); err != nil {
		return 0, 0, fmt.Errorf("step packet %d: %w", p.ID, err)
	}

	output = o.sub.Read(position)
	o.counter.next()

	slog.Debug("packet processed",
		"packet_id", p.ID,
		"position", position,
		"output", output,
	)

	return output, echo, nil
}

// RunCycle pushes a batch of signals through the reservoir in order and
// then runs the stability and identification passes.
//
// The first packet failure aborts the remaining signals (no partial
// retry). Validation and insufficient-data conditions are logged and the
// cycle completes normally.
func (o *Orchestrator) RunCycle(ctx context.Context, signals []float32) ([]float32, error) {
	token := o.tokens.Generate()
	startedAt := uint64(o.now().UnixNano())

	slog.Info("cycle started", "run_token", token, "signals", len(signals))

	o.rev.CacheInput(signals)

	outputs := make([]float32, 0, len(signals))
	echoes := make([]float32, 0, len(signals))
	base := o.counter.current()

	for i, signal := range signals {
		p := Packet{
			Signal:      signal,
			TimestampNS: uint64(o.now().UnixNano()),
			ID:          base + uint64(i),
		}

		output, echo, err := o.injectPacket(p)
		if err != nil {
			return nil, fmt.Errorf("cycle %s: %w", token, err)
		}

		outputs = append(outputs, output)
		echoes = append(echoes, echo)

		// The engine sees the running output vector after every packet.
		o.engine.RecordState(outputs)
	}

	rep := Report{
		RunToken:    token,
		StartedAtNS: startedAt,
		PacketCount: len(outputs),
		Outputs:     outputs,
	}

	rep.ReversibilityOK, rep.ReversibilityMAE = o.verifyInjectionRoundTrip(token, echoes)
	rep.Perturbed = o.checkChaosStability(token)
	rep.LyapunovExponent = o.chaos.Exponent()
	rep.PhaseLocked = o.pll.Locked()
	rep.Coefficients, rep.AxiomOK = o.identifyDynamics(token)

	if o.recorder != nil {
		if err := o.recorder.RecordCycle(ctx, rep); err != nil {
			slog.Error("telemetry record failed", "run_token", token, "error", err)
		}
	}

	slog.Info("cycle finished",
		"run_token", token,
		"packets", rep.PacketCount,
		"locked", rep.PhaseLocked,
		"exponent", rep.LyapunovExponent,
		"axiom_ok", rep.AxiomOK,
	)

	return outputs, nil
}

// verifyInjectionRoundTrip checks the zero-copy write/read path: each
// injected signal must echo back unchanged before the kernel step.
// Violations are logged, never fatal (the model is inconsistent, not the
// system).
func (o *Orchestrator) verifyInjectionRoundTrip(token string, echoes []float32) (ok bool, mae float64) {
	err := o.rev.Verify(echoes)
	if err == nil {
		return true, 0
	}

	var ve *stability.ViolationError
	if errors.As(err, &ve) {
		slog.Warn("reversibility violation",
			"run_token", token,
			"code", string(ve.Code),
			"measured", ve.Measured,
		)
		return false, ve.Measured
	}

	slog.Warn("reversibility check failed", "run_token", token, "error", err)
	return false, 0
}

// checkChaosStability samples two adjacent substrate windows, feeds them to
// the chaos monitor, and injects the corrective perturbation at cell 0 when
// the monitor signals vanishing chaos. Self-correcting: low chaos forces a
// perturbation, which is expected to restore chaos by the next check.
func (o *Orchestrator) checkChaosStability(token string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	stateA := o.sub.Snapshot(0, chaosSampleLen)
	stateB := o.sub.Snapshot(1, chaosSampleLen)
	o.chaos.RecordTrajectories(stateA, stateB)

	perturbation, ok := o.chaos.NoisePerturbation()
	if !ok {
		return false
	}

	slog.Warn("vanishing chaos detected, injecting perturbation",
		"run_token", token,
		"perturbation", perturbation,
		"exponent", o.chaos.Exponent(),
	)
	o.sub.Inject(perturbation, 0)
	return true
}

// identifyDynamics runs the identification pass: fetch coefficients if the
// window allows, validate the axioms, report. Axiom violations and
// insufficient history are non-fatal.
func (o *Orchestrator) identifyDynamics(token string) (coefficients []float32, axiomOK bool) {
	coefficients, err := o.engine.Identify()
	if err != nil {
		if errors.Is(err, sindy.ErrInsufficientData) {
			slog.Debug("identification skipped: insufficient history", "run_token", token)
			return nil, true
		}
		slog.Warn("identification failed", "run_token", token, "error", err)
		return nil, true
	}

	if err := o.engine.ValidateAxioms(coefficients); err != nil {
		slog.Warn("axiom violation", "run_token", token, "error", err)
		return coefficients, false
	}

	slog.Info("flow dynamics identified", "run_token", token, "coefficients", coefficients)
	return coefficients, true
}

// PacketCount returns the number of packets processed so far.
func (o *Orchestrator) PacketCount() uint64 {
	return o.counter.current()
}

// PhaseLock exposes the timing controller for pacing decisions.
func (o *Orchestrator) PhaseLock() *stability.PhaseLock {
	return o.pll
}

// nextPacket builds a packet for a single streamed signal.
func (o *Orchestrator) nextPacket(signal float32) Packet {
	return Packet{
		Signal:      signal,
		TimestampNS: uint64(o.now().UnixNano()),
		ID:          o.counter.current(),
	}
}
