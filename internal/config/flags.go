package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagAtlasSize  = flag.Int("atlas-size", 0, "Shadow atlas size in pixels")
	flagMaxUpdates = flag.Int("max-updates", 0, "Shadow maps rendered per frame")
	flagNoShadows  = flag.Bool("no-shadows", false, "Disable shadow rendering")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagAtlasSize > 0 {
		cfg.Shadows.AtlasSize = *flagAtlasSize
	}
	if *flagMaxUpdates > 0 {
		cfg.Shadows.MaxUpdatesPerFrame = *flagMaxUpdates
	}
	if *flagNoShadows {
		cfg.Shadows.Enabled = false
	}
}
