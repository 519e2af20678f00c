// Package memguard samples process memory usage and forces a collection pass
// when a configurable ceiling is exceeded.
//
// The governor is invoked by the export engine on a fixed item cadence and at
// every batch boundary, never inside a tight per-pixel loop. A collection is
// runtime.GC plus debug.FreeOSMemory followed by a short cooperative pause so
// the runtime can actually return pages before the next batch starts. The
// sampler is a stubbed-out function so tests can drive the governor without
// real memory pressure.
package memguard
