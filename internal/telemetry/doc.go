// Package telemetry provides durable storage for cycle reports.
//
// Reports are flattened into a single cycle_records table in a SQLite
// database opened in WAL mode. The store implements flow.Recorder, so the
// orchestrator persists one row per completed cycle; the trace command
// reads them back in run order.
//
// Persistence is best-effort from the orchestrator's point of view: a
// failed write is logged by the caller and never fails the cycle.
package telemetry
