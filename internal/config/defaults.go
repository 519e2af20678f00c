package config

const (
	defaultImagesDir       = "~/.local/share/glyphcache/images"
	defaultExportDir       = "~/.local/share/glyphcache/export"
	defaultLogDir          = "~/.local/share/glyphcache/logs"
	defaultRawCapacity     = 1000
	defaultScaledCapacity  = 1000
	defaultMemoryCeilingMB = 2000
	defaultCheckEveryItems = 5
	defaultPauseMillis     = 50
	defaultBatchSize       = 15
	defaultExportWidth     = 1920
	defaultExportHeight    = 1080
	defaultViewWidth       = 1200
	defaultViewMargin      = 8
	defaultMaxFileMB       = 100
	defaultMaxDimension    = 4096
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ImagesDir: defaultImagesDir,
			ExportDir: defaultExportDir,
			CacheDir:  defaultCacheDir(),
			LogDir:    defaultLogDir,
		},
		Cache: Cache{
			RawCapacity:    defaultRawCapacity,
			ScaledCapacity: defaultScaledCapacity,
			DiskEnabled:    true,
		},
		Memory: Memory{
			CeilingMB:       defaultMemoryCeilingMB,
			CheckEveryItems: defaultCheckEveryItems,
			PauseMillis:     defaultPauseMillis,
		},
		Export: Export{
			BatchSize:          defaultBatchSize,
			TargetWidth:        defaultExportWidth,
			TargetHeight:       defaultExportHeight,
			AddWordLabel:       true,
			AddBeatNumbers:     true,
			AddReversalSymbols: true,
			AddDate:            true,
		},
		Display: Display{
			ViewWidth: defaultViewWidth,
			Margin:    defaultViewMargin,
		},
		Validation: Validation{
			MaxFileMB:    defaultMaxFileMB,
			MaxDimension: defaultMaxDimension,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
