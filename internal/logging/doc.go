// Package logging assembles structured slog loggers and formatting helpers used
// across captionsync.
//
// It owns the console and JSON handlers, centralizes level and output plumbing
// (including per-component level overrides), and exposes context-aware helpers
// so stage code automatically tags log lines with run IDs, stages, and
// operations. A no-op logger is provided for tests and wiring code.
package logging
