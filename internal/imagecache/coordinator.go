package imagecache

import (
	"image"
	"log/slog"

	"glyphcache/internal/imaging"
	"glyphcache/internal/logging"
	"glyphcache/internal/scaler"
)

// Options configures the coordinator's tiers.
type Options struct {
	RawCapacity    int
	ScaledCapacity int
	// DiskRoot is the on-disk cache root; empty disables the disk tier.
	DiskRoot string
}

// Coordinator orchestrates the cache tiers for display and export requests.
// The display path never fails: every error terminates in a clearly-marked
// placeholder plus a log line.
type Coordinator struct {
	raw       *RawStore
	scaled    *ScaledStore
	disk      *DiskCache
	validator *imaging.Validator
	scaler    *scaler.Scaler
	stats     *Stats
	logger    *slog.Logger
}

// NewCoordinator wires the tiers together.
func NewCoordinator(opts Options, validator *imaging.Validator, sc *scaler.Scaler, logger *slog.Logger) *Coordinator {
	stats := &Stats{}
	return &Coordinator{
		raw:       NewRawStore(opts.RawCapacity, stats, logger),
		scaled:    NewScaledStore(opts.ScaledCapacity, stats, logger),
		disk:      NewDiskCache(opts.DiskRoot, stats, logger),
		validator: validator,
		scaler:    sc,
		stats:     stats,
		logger:    logging.NewComponentLogger(logger, "cache"),
	}
}

// GetDisplayImage returns a display-ready bitmap for the source at path,
// checking L2, then disk, then L1, then decoding from source. Higher tiers
// are populated on each miss. Failures yield a placeholder sized to the
// requested cell, never an error.
func (c *Coordinator) GetDisplayImage(path string, pageScale float64, layout scaler.Layout) image.Image {
	layout = layout.Normalized()
	cellW, cellH := c.scaler.CellSize(layout, pageScale)
	key := NewKey(path, cellW, cellH, layout.ColumnsPerRow, pageScale)

	if cached, ok := c.scaled.Get(key); ok {
		return cached.Image
	}

	if img, ok := c.disk.Get(key); ok {
		c.scaled.Put(key, img)
		return img
	}

	raw, err := c.loadRaw(path)
	if err != nil {
		logging.ErrorWithContext(c.logger, "display image unavailable, substituting placeholder", "display_image_failed",
			logging.String(logging.FieldSourcePath, path),
			logging.String("reason", imaging.ReasonOf(err).String()),
			logging.Error(err))
		return scaler.Placeholder(cellW, cellH)
	}

	scaled := c.scaler.ForScreen(raw.Image, layout, pageScale)
	c.scaled.Put(key, scaled)
	c.disk.Put(key, scaled)
	return scaled
}

// GetExportImage returns an export-quality bitmap for the source at path,
// using L1 for the decode but bypassing L2 and disk: export output must not
// be contaminated by screen-resolution cached entries. Failures yield a
// placeholder of the requested size.
func (c *Coordinator) GetExportImage(path string, targetW, targetH int) image.Image {
	raw, err := c.loadRaw(path)
	if err != nil {
		logging.ErrorWithContext(c.logger, "export image unavailable, substituting placeholder", "export_image_failed",
			logging.String(logging.FieldSourcePath, path),
			logging.String("reason", imaging.ReasonOf(err).String()),
			logging.Error(err))
		return scaler.Placeholder(max(targetW, 1), max(targetH, 1))
	}
	return c.scaler.ForExport(raw.Image, targetW, targetH)
}

// loadRaw returns the decoded source bitmap, consulting L1 before paying for
// validation and decode.
func (c *Coordinator) loadRaw(path string) (RawImage, error) {
	if cached, ok := c.raw.Get(path); ok {
		return cached, nil
	}

	img, err := c.validator.Decode(path)
	if err != nil {
		return RawImage{}, err
	}

	raw := RawImage{Image: img, SourcePath: path, ByteSize: EstimateBytes(img)}
	c.raw.Put(path, raw)
	return raw, nil
}

// ClearAll evicts the in-memory tiers (not disk) and returns the counts.
func (c *Coordinator) ClearAll() (rawEvicted, scaledEvicted int) {
	rawEvicted = c.raw.Clear()
	scaledEvicted = c.scaled.Clear()
	c.logger.Info("cleared in-memory cache tiers",
		logging.Int("raw_evicted", rawEvicted),
		logging.Int("scaled_evicted", scaledEvicted))
	return rawEvicted, scaledEvicted
}

// ClearDisk removes every persisted entry from the disk tier.
func (c *Coordinator) ClearDisk() (int, error) {
	return c.disk.Clear()
}

// Stats returns a point-in-time copy of the aggregate counters.
func (c *Coordinator) Stats() Snapshot {
	return c.stats.Snapshot()
}

// ResetStats zeroes the counters; used by the explicit clear surface only.
func (c *Coordinator) ResetStats() {
	c.stats.Reset()
}

// Raw exposes the L1 tier for callers that share the decode path.
func (c *Coordinator) Raw() *RawStore { return c.raw }

// Disk exposes the disk tier for usage reporting; may be nil when disabled.
func (c *Coordinator) Disk() *DiskCache { return c.disk }
