package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ImagesDir string `toml:"images_dir"`
	ExportDir string `toml:"export_dir"`
	CacheDir  string `toml:"cache_dir"`
	LogDir    string `toml:"log_dir"`
}

// Cache contains capacities for the in-memory tiers and the disk tier toggle.
type Cache struct {
	RawCapacity    int  `toml:"raw_capacity"`
	ScaledCapacity int  `toml:"scaled_capacity"`
	DiskEnabled    bool `toml:"disk_enabled"`
}

// Memory contains memory-pressure governor settings.
type Memory struct {
	CeilingMB       int `toml:"ceiling_mb"`
	CheckEveryItems int `toml:"check_every_items"`
	PauseMillis     int `toml:"pause_millis"`
}

// Export contains batch export engine settings.
type Export struct {
	BatchSize    int    `toml:"batch_size"`
	TargetWidth  int    `toml:"target_width"`
	TargetHeight int    `toml:"target_height"`
	Author       string `toml:"author"`

	AddWordLabel       bool `toml:"add_word_label"`
	AddAuthor          bool `toml:"add_author"`
	AddDate            bool `toml:"add_date"`
	AddBeatNumbers     bool `toml:"add_beat_numbers"`
	AddReversalSymbols bool `toml:"add_reversal_symbols"`
	AddDifficultyLevel bool `toml:"add_difficulty_level"`
}

// Display contains screen-scaling layout defaults.
type Display struct {
	ViewWidth int `toml:"view_width"`
	Margin    int `toml:"margin"`
}

// Validation contains source-file admission limits.
type Validation struct {
	MaxFileMB    int `toml:"max_file_mb"`
	MaxDimension int `toml:"max_dimension"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for glyphcache.
//
// Configuration sections by subsystem:
//   - Paths: catalog, export, cache, and log directories
//   - Cache: L1/L2 capacities and the disk tier toggle
//   - Memory: governor ceiling and check cadence
//   - Export: batch size, output geometry, and render options
//   - Display: screen-scaling layout defaults
//   - Validation: source file admission limits
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Cache      Cache      `toml:"cache"`
	Memory     Memory     `toml:"memory"`
	Export     Export     `toml:"export"`
	Display    Display    `toml:"display"`
	Validation Validation `toml:"validation"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/glyphcache/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The boolean reports whether a
// config file was actually found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("glyphcache.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes to. The images
// directory is created on a best-effort basis so inspection commands still work
// before any catalog exists.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ExportDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.ImagesDir) != "" {
		_ = os.MkdirAll(c.Paths.ImagesDir, 0o755)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "glyphcache")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/glyphcache"
	}
	return filepath.Join(home, ".cache", "glyphcache")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
