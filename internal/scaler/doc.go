// Package scaler computes target geometry and produces scaled bitmaps for
// screen display and export.
//
// Screen scaling derives a cell size from layout parameters and uses a
// multi-step downscale (repeated halving, then one precise pass) when the
// reduction ratio is large, trading a little speed for much better quality
// than a single large-ratio resize. Export scaling is a single high-quality
// pass, and never fails: any problem yields a clearly-marked placeholder of
// the requested size so one bad image cannot abort a batch.
package scaler
