// Package logging assembles the structured slog loggers used across the
// glyphcache pipeline.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers plus standardized field keys so the
// cache tiers, the export engine, and the CLI emit log lines with the same
// shape. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup.
package logging
