// Package imaging validates and decodes candidate source files before they
// are admitted to any cache tier.
//
// Validation is cheap-first: existence, then file size, then extension, and
// only then a full decode with a pixel-dimension ceiling. Oversized decodes
// are downscaled on admission rather than rejected. Every failure carries a
// typed Reason so callers can distinguish a missing file from a corrupt one.
package imaging
