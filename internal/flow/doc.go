// Package flow is the composition root: it sequences each packet's
// lifecycle through the substrate and drives the stability and
// identification mechanisms around it.
//
// One packet at a time moves through timing check, injection, kernel step,
// and readout; after a batch the orchestrator samples the substrate for the
// chaos monitor and runs the identification/axiom pass. All mutations of
// the substrate happen under the orchestrator's packet guard, so ordering
// is strict and deterministic.
//
// Error policy follows the taxonomy in the stability and substrate
// packages: accelerator failures abort the in-flight batch; validation and
// insufficient-data conditions are logged and the cycle continues.
package flow
