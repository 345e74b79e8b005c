// Package cli implements the aether command-line interface.
//
// Commands:
//   - cycle: run one orchestration cycle over a batch of signals
//   - run:   stream signals from stdin through the reservoir
//   - trace: list persisted cycle records from a telemetry database
//
// Global flags select output format (text or JSON) and verbosity; verbose
// mode drops the log level to debug. Commands return *ExitError so main
// can exit with a meaningful code.
package cli
