// Package config loads, normalizes, and validates glyphcache configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GLYPHCACHE_IMAGES_DIR. The Config type centralizes every knob the cache
// tiers, the memory governor, and the export engine need, so capacities and
// ceilings are passed into constructors explicitly instead of living in
// package-level constants.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
