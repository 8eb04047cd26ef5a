// Package main hosts the captionsync CLI.
//
// Commands resolve the configuration once, build a slog logger from it, and
// hand the work to internal/pipeline. Keep command files thin: behavior
// belongs in the internal packages, rendering and flag handling here.
package main
