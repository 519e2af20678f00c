package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"glyphcache/internal/config"
	"glyphcache/internal/imagecache"
	"glyphcache/internal/imaging"
	"glyphcache/internal/logging"
	"glyphcache/internal/scaler"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// quietLogger builds a warn-level console logger for inspection commands so
// their table output stays clean.
func quietLogger() (*slog.Logger, error) {
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", OutputPaths: []string{"stderr"}})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// newCoordinator builds the cache stack from config. The disk tier is bound
// to the cache dir only when enabled.
func newCoordinator(cfg *config.Config, logger *slog.Logger) *imagecache.Coordinator {
	validator := imaging.NewValidator(imaging.Limits{
		MaxFileBytes: int64(cfg.Validation.MaxFileMB) * 1024 * 1024,
		MaxDimension: cfg.Validation.MaxDimension,
	}, logger)
	sc := scaler.New(logger)

	diskRoot := ""
	if cfg.Cache.DiskEnabled {
		diskRoot = cfg.Paths.CacheDir
	}
	return imagecache.NewCoordinator(imagecache.Options{
		RawCapacity:    cfg.Cache.RawCapacity,
		ScaledCapacity: cfg.Cache.ScaledCapacity,
		DiskRoot:       diskRoot,
	}, validator, sc, logger)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div := int64(unit)
	exp := 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(v) / float64(div)
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPEZY"[exp])
}
