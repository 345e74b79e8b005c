// Package testutil provides deterministic fakes for tests: a manually
// advanced clock for timing-sensitive components and a fixed run-token
// generator for golden comparisons.
package testutil
