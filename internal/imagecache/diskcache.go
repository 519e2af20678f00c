package imagecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"glyphcache/internal/logging"
)

const diskNamespace = "scaled"

// sidecar records the key components and the source fingerprint for one disk
// entry. An entry is never trusted without a fingerprint match.
type sidecar struct {
	SourcePath        string  `json:"source_path"`
	TargetWidth       int     `json:"target_w"`
	TargetHeight      int     `json:"target_h"`
	ColumnsPerRow     int     `json:"columns_per_row"`
	ScaleFactor       float64 `json:"scale_factor"`
	SourceMtimeUnixNs int64   `json:"source_mtime_unix_ns"`
	SourceSize        int64   `json:"source_size"`
}

// DiskCache persists scaled bitmaps under the cache root so they survive
// process restarts. A nil or disabled DiskCache is a valid no-op tier: Get
// always misses and Put does nothing.
type DiskCache struct {
	root   string
	stats  *Stats
	logger *slog.Logger
}

// NewDiskCache builds the disk tier rooted at root. An empty root disables
// the tier.
func NewDiskCache(root string, stats *Stats, logger *slog.Logger) *DiskCache {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil
	}
	return &DiskCache{
		root:   root,
		stats:  stats,
		logger: logging.NewComponentLogger(logger, "diskcache"),
	}
}

// Get returns the cached bitmap for key if the sidecar fingerprint still
// matches the live source file. A missing or unreadable sidecar, a
// fingerprint mismatch, or any decode failure is a miss, never an error.
func (d *DiskCache) Get(key Key) (image.Image, bool) {
	if d == nil {
		return nil, false
	}

	side, ok := d.readSidecar(key)
	if !ok || !d.fingerprintFresh(key, side) {
		d.stats.recordDiskMiss()
		return nil, false
	}

	file, err := os.Open(d.bitmapPath(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			d.logger.Debug("disk cache bitmap unreadable",
				logging.String(logging.FieldSourcePath, key.SourcePath),
				logging.Error(err))
		}
		d.stats.recordDiskMiss()
		return nil, false
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		d.logger.Debug("disk cache bitmap corrupt, treating as miss",
			logging.String(logging.FieldSourcePath, key.SourcePath),
			logging.Error(err))
		d.stats.recordDiskMiss()
		return nil, false
	}

	d.stats.recordDiskHit()
	return img, true
}

// Put writes the bitmap and its sidecar atomically (write-to-temp, then
// rename; bitmap first, sidecar last) so a crash mid-write cannot leave a
// valid-looking sidecar over a torn bitmap. I/O errors are logged and
// swallowed; the pipeline degrades to re-rendering.
func (d *DiskCache) Put(key Key, img image.Image) {
	if d == nil || img == nil {
		return
	}

	fingerprint, err := statFingerprint(key.SourcePath)
	if err != nil {
		d.logger.Debug("skipping disk cache write, source not statable",
			logging.String(logging.FieldSourcePath, key.SourcePath),
			logging.Error(err))
		return
	}
	fingerprint.TargetWidth = key.TargetWidth
	fingerprint.TargetHeight = key.TargetHeight
	fingerprint.ColumnsPerRow = key.ColumnsPerRow
	fingerprint.ScaleFactor = key.ScaleFactor()

	if err := d.write(key, img, fingerprint); err != nil {
		logging.WarnWithContext(d.logger, "disk cache write failed", "diskcache_write_failed",
			logging.String(logging.FieldSourcePath, key.SourcePath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "entry will be re-rendered next time"))
	}
}

func (d *DiskCache) write(key Key, img image.Image, fingerprint sidecar) error {
	if err := os.MkdirAll(d.namespaceDir(), 0o755); err != nil {
		return fmt.Errorf("ensure cache dir: %w", err)
	}

	bitmapTarget := d.bitmapPath(key)
	bitmapTmp := tempName(bitmapTarget)
	file, err := os.OpenFile(bitmapTmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create bitmap temp: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		os.Remove(bitmapTmp)
		return fmt.Errorf("encode bitmap: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(bitmapTmp)
		return fmt.Errorf("close bitmap temp: %w", err)
	}
	if err := os.Rename(bitmapTmp, bitmapTarget); err != nil {
		os.Remove(bitmapTmp)
		return fmt.Errorf("rename bitmap: %w", err)
	}

	payload, err := json.Marshal(fingerprint)
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	sidecarTarget := d.sidecarPath(key)
	sidecarTmp := tempName(sidecarTarget)
	if err := os.WriteFile(sidecarTmp, payload, 0o644); err != nil {
		return fmt.Errorf("write sidecar temp: %w", err)
	}
	if err := os.Rename(sidecarTmp, sidecarTarget); err != nil {
		os.Remove(sidecarTmp)
		return fmt.Errorf("rename sidecar: %w", err)
	}
	return nil
}

// Clear removes every entry in the cache namespace and returns the number of
// bitmaps removed.
func (d *DiskCache) Clear() (int, error) {
	if d == nil {
		return 0, nil
	}

	dir := d.namespaceDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logging.WarnWithContext(d.logger, "failed to remove cache entry", "diskcache_clear_failed",
				logging.String("path", path),
				logging.Error(err))
			continue
		}
		if strings.HasSuffix(entry.Name(), ".png") {
			removed++
		}
	}
	d.logger.Debug("cleared disk cache", logging.Int("removed", removed))
	return removed, nil
}

// Usage reports entry count and total bytes currently on disk.
func (d *DiskCache) Usage() (entries int, bytes int64) {
	if d == nil {
		return 0, 0
	}
	items, err := os.ReadDir(d.namespaceDir())
	if err != nil {
		return 0, 0
	}
	for _, item := range items {
		if item.IsDir() || !strings.HasSuffix(item.Name(), ".png") {
			continue
		}
		entries++
		if info, err := item.Info(); err == nil {
			bytes += info.Size()
		}
	}
	return entries, bytes
}

// Root returns the cache root directory, or "" when the tier is disabled.
func (d *DiskCache) Root() string {
	if d == nil {
		return ""
	}
	return d.root
}

func (d *DiskCache) readSidecar(key Key) (sidecar, bool) {
	payload, err := os.ReadFile(d.sidecarPath(key))
	if err != nil {
		return sidecar{}, false
	}
	var side sidecar
	if err := json.Unmarshal(payload, &side); err != nil {
		d.logger.Debug("disk cache sidecar corrupt, treating as miss",
			logging.String(logging.FieldSourcePath, key.SourcePath),
			logging.Error(err))
		return sidecar{}, false
	}
	return side, true
}

func (d *DiskCache) fingerprintFresh(key Key, side sidecar) bool {
	live, err := statFingerprint(key.SourcePath)
	if err != nil {
		return false
	}
	return side.SourcePath == key.SourcePath &&
		side.SourceMtimeUnixNs == live.SourceMtimeUnixNs &&
		side.SourceSize == live.SourceSize
}

func statFingerprint(sourcePath string) (sidecar, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return sidecar{}, err
	}
	return sidecar{
		SourcePath:        sourcePath,
		SourceMtimeUnixNs: info.ModTime().UnixNano(),
		SourceSize:        info.Size(),
	}, nil
}

func (d *DiskCache) namespaceDir() string {
	return filepath.Join(d.root, diskNamespace)
}

func (d *DiskCache) bitmapPath(key Key) string {
	return filepath.Join(d.namespaceDir(), key.Hash()+".png")
}

func (d *DiskCache) sidecarPath(key Key) string {
	return filepath.Join(d.namespaceDir(), key.Hash()+".json")
}

func tempName(target string) string {
	return fmt.Sprintf("%s.tmp-%d", target, time.Now().UnixNano())
}
