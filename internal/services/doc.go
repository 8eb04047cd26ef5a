// Package services defines shared utilities consumed by the pipeline stages
// and the collaborator adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, operations, and source
//     paths for logging and retry bookkeeping.
//   - Structured error markers plus the Wrap helper so callers can tell a
//     degraded stage from one that must abort the run.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
