package testsupport

import (
	"path/filepath"
	"testing"

	"glyphcache/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ImagesDir = filepath.Join(base, "images")
	cfgVal.Paths.ExportDir = filepath.Join(base, "export")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCacheCapacities sets the L1 and L2 capacities on the test config.
func WithCacheCapacities(raw, scaled int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.RawCapacity = raw
		b.cfg.Cache.ScaledCapacity = scaled
	}
}

// WithBatchSize sets the export batch size on the test config.
func WithBatchSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.BatchSize = size
	}
}

// WithDiskCacheDisabled turns the on-disk scaled tier off.
func WithDiskCacheDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.DiskEnabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ImagesDir)
}
