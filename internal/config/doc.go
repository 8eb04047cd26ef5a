// Package config loads, normalizes, and validates captionsync configuration.
//
// It supplies repository defaults for every timing, sync, segmentation,
// quality, and retry knob, expands user paths (including tilde shortcuts),
// reads TOML files, and honours environment fallbacks such as
// CAPTIONSYNC_LOG_LEVEL. Values are expressed in seconds unless a key says
// otherwise.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
