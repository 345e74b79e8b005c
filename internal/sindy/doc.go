// Package sindy implements online sparse identification of the reservoir's
// dynamics: a sliding window of state snapshots, a finite-difference
// derivative estimate, a small nonlinear function library {1, x, x², x³},
// and a per-basis least-squares projection producing four coefficients.
//
// Fitted coefficients are checked against two hard axioms before being
// trusted: bounded cubic growth and sufficient linear dissipation.
//
// The per-basis projection is independent, not a joint regression, so
// collinear bases (x and x³) bias the fit. This is the observed behavior
// the axiom thresholds were tuned against and is kept deliberately.
package sindy
