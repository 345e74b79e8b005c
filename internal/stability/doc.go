// Package stability implements the three runtime monitors that keep the
// reservoir healthy:
//
//   - PhaseLock: a proportional-only software PLL that tracks injection
//     timing against a target period and reports drift.
//   - ChaosMonitor: a finite-time Lyapunov estimator that detects when the
//     dynamics collapse out of the chaotic regime and proposes a corrective
//     noise perturbation.
//   - ReversibilityAssertion: a round-trip check that a forward/inverse
//     transform pair stays within numerical tolerance.
//
// Each monitor carries its own guard and is safe for concurrent use. The
// flow orchestrator drives them explicitly; none of them runs a background
// goroutine, which keeps ordering deterministic and testable.
package stability
