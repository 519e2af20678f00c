package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateMemory(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateValidation(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ImagesDir) == "" {
		return errors.New("paths.images_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		return errors.New("paths.export_dir must be set")
	}
	if c.Paths.ExportDir == c.Paths.ImagesDir {
		return errors.New("paths.export_dir must differ from paths.images_dir")
	}
	return nil
}

func (c *Config) validateCache() error {
	return ensurePositiveMap(map[string]int{
		"cache.raw_capacity":    c.Cache.RawCapacity,
		"cache.scaled_capacity": c.Cache.ScaledCapacity,
	})
}

func (c *Config) validateMemory() error {
	return ensurePositiveMap(map[string]int{
		"memory.ceiling_mb":        c.Memory.CeilingMB,
		"memory.check_every_items": c.Memory.CheckEveryItems,
		"memory.pause_millis":      c.Memory.PauseMillis,
	})
}

func (c *Config) validateExport() error {
	if err := ensurePositiveMap(map[string]int{
		"export.batch_size":    c.Export.BatchSize,
		"export.target_width":  c.Export.TargetWidth,
		"export.target_height": c.Export.TargetHeight,
	}); err != nil {
		return err
	}
	if c.Export.BatchSize > 1000 {
		return errors.New("export.batch_size must be 1000 or less")
	}
	return nil
}

func (c *Config) validateValidation() error {
	if err := ensurePositiveMap(map[string]int{
		"validation.max_file_mb":   c.Validation.MaxFileMB,
		"validation.max_dimension": c.Validation.MaxDimension,
	}); err != nil {
		return err
	}
	if c.Validation.MaxDimension < 256 {
		return errors.New("validation.max_dimension must be at least 256")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be greater than zero", key)
		}
	}
	return nil
}
