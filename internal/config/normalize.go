package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCache()
	c.normalizeMemory()
	c.normalizeExport()
	c.normalizeDisplay()
	c.normalizeValidation()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.ImagesDir) == "" {
		if value, ok := os.LookupEnv("GLYPHCACHE_IMAGES_DIR"); ok && strings.TrimSpace(value) != "" {
			c.Paths.ImagesDir = strings.TrimSpace(value)
		} else {
			c.Paths.ImagesDir = defaultImagesDir
		}
	}

	var err error
	if c.Paths.ImagesDir, err = expandPath(c.Paths.ImagesDir); err != nil {
		return fmt.Errorf("paths.images_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = defaultExportDir
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCache() {
	if c.Cache.RawCapacity <= 0 {
		c.Cache.RawCapacity = defaultRawCapacity
	}
	if c.Cache.ScaledCapacity <= 0 {
		c.Cache.ScaledCapacity = defaultScaledCapacity
	}
}

func (c *Config) normalizeMemory() {
	if c.Memory.CeilingMB <= 0 {
		c.Memory.CeilingMB = defaultMemoryCeilingMB
	}
	if c.Memory.CheckEveryItems <= 0 {
		c.Memory.CheckEveryItems = defaultCheckEveryItems
	}
	if c.Memory.PauseMillis <= 0 {
		c.Memory.PauseMillis = defaultPauseMillis
	}
}

func (c *Config) normalizeExport() {
	if c.Export.BatchSize <= 0 {
		c.Export.BatchSize = defaultBatchSize
	}
	if c.Export.TargetWidth <= 0 {
		c.Export.TargetWidth = defaultExportWidth
	}
	if c.Export.TargetHeight <= 0 {
		c.Export.TargetHeight = defaultExportHeight
	}
	c.Export.Author = strings.TrimSpace(c.Export.Author)
	if c.Export.Author == "" {
		if value, ok := os.LookupEnv("GLYPHCACHE_AUTHOR"); ok {
			c.Export.Author = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeDisplay() {
	if c.Display.ViewWidth <= 0 {
		c.Display.ViewWidth = defaultViewWidth
	}
	if c.Display.Margin < 0 {
		c.Display.Margin = defaultViewMargin
	}
}

func (c *Config) normalizeValidation() {
	if c.Validation.MaxFileMB <= 0 {
		c.Validation.MaxFileMB = defaultMaxFileMB
	}
	if c.Validation.MaxDimension <= 0 {
		c.Validation.MaxDimension = defaultMaxDimension
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
