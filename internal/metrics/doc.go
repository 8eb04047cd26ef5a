// Package metrics carries per-run measurements as an explicit value.
//
// Each processing run fills its own Collector; watch mode merges run
// collectors into an aggregate. Nothing is accumulated in package state.
// Exporter publishes collectors through a private Prometheus registry and
// can write them to a node-exporter textfile.
package metrics
