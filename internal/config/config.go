// Package config handles light system configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Config holds all light system settings.
type Config struct {
	Shadows ShadowConfig  `yaml:"shadows" toml:"shadows"`
	Lights  LightConfig   `yaml:"lights" toml:"lights"`
	Culling CullingConfig `yaml:"culling" toml:"culling"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ShadowConfig holds shadow atlas and scheduling settings.
type ShadowConfig struct {
	Enabled            bool `yaml:"enabled" toml:"enabled"`
	AtlasSize          int  `yaml:"atlas_size" toml:"atlas_size"` // pixels per side
	TileSize           int  `yaml:"tile_size" toml:"tile_size"`
	MaxUpdatesPerFrame int  `yaml:"max_updates_per_frame" toml:"max_updates_per_frame"`
	AlwaysUpdateAll    bool `yaml:"always_update_all" toml:"always_update_all"` // debugging aid
	DefaultResolution  int  `yaml:"default_resolution" toml:"default_resolution"`
}

// LightConfig holds pool sizes.
type LightConfig struct {
	MaxTotal             int `yaml:"max_total" toml:"max_total"`
	MaxShadowSources     int `yaml:"max_shadow_sources" toml:"max_shadow_sources"`
	MaxPoint             int `yaml:"max_point" toml:"max_point"`
	MaxPointShadow       int `yaml:"max_point_shadow" toml:"max_point_shadow"`
	MaxDirectional       int `yaml:"max_directional" toml:"max_directional"`
	MaxDirectionalShadow int `yaml:"max_directional_shadow" toml:"max_directional_shadow"`
	MaxSpot              int `yaml:"max_spot" toml:"max_spot"`
	MaxSpotShadow        int `yaml:"max_spot_shadow" toml:"max_spot_shadow"`
}

// CullingConfig holds visibility settings.
type CullingConfig struct {
	UseAuxBounds bool `yaml:"use_aux_bounds" toml:"use_aux_bounds"` // keep lights inside the GI grid
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Shadows: ShadowConfig{
			Enabled:            true,
			AtlasSize:          8192,
			TileSize:           32,
			MaxUpdatesPerFrame: 2,
			AlwaysUpdateAll:    false,
			DefaultResolution:  512,
		},
		Lights: LightConfig{
			MaxTotal:             256,
			MaxShadowSources:     64,
			MaxPoint:             150,
			MaxPointShadow:       10,
			MaxDirectional:       4,
			MaxDirectionalShadow: 2,
			MaxSpot:              50,
			MaxSpotShadow:        10,
		},
		Culling: CullingConfig{
			UseAuxBounds: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks value ranges.
func (c *Config) Validate() error {
	s := c.Shadows
	if s.AtlasSize < 128 || s.AtlasSize > 16384 {
		return fmt.Errorf("%w: shadows.atlas_size %d not in [128, 16384]", ErrInvalid, s.AtlasSize)
	}
	if s.TileSize <= 0 || s.AtlasSize%s.TileSize != 0 {
		return fmt.Errorf("%w: shadows.tile_size %d must divide atlas_size %d", ErrInvalid, s.TileSize, s.AtlasSize)
	}
	if !tileGrowsToFit(s.AtlasSize, s.TileSize) {
		return fmt.Errorf("%w: shadows.tile_size %d cannot grow in steps of 16 to split atlas_size %d into at most 32 tiles",
			ErrInvalid, s.TileSize, s.AtlasSize)
	}
	if s.MaxUpdatesPerFrame < 1 {
		return fmt.Errorf("%w: shadows.max_updates_per_frame must be at least 1", ErrInvalid)
	}
	if s.DefaultResolution < 1 || s.DefaultResolution > s.AtlasSize {
		return fmt.Errorf("%w: shadows.default_resolution %d not in [1, %d]", ErrInvalid, s.DefaultResolution, s.AtlasSize)
	}

	l := c.Lights
	pools := []struct {
		name string
		v    int
	}{
		{"max_total", l.MaxTotal},
		{"max_shadow_sources", l.MaxShadowSources},
		{"max_point", l.MaxPoint},
		{"max_point_shadow", l.MaxPointShadow},
		{"max_directional", l.MaxDirectional},
		{"max_directional_shadow", l.MaxDirectionalShadow},
		{"max_spot", l.MaxSpot},
		{"max_spot_shadow", l.MaxSpotShadow},
	}
	for _, p := range pools {
		if p.v < 0 {
			return fmt.Errorf("%w: lights.%s must not be negative", ErrInvalid, p.name)
		}
	}
	if l.MaxTotal == 0 {
		return fmt.Errorf("%w: lights.max_total must be positive", ErrInvalid)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}

// tileGrowsToFit mirrors the atlas tile growth: some tile+16k must divide
// size into at most 32 tiles per side.
func tileGrowsToFit(size, tile int) bool {
	for t := tile; t <= size; t += 16 {
		if size/t <= 32 && size%t == 0 {
			return true
		}
	}
	return false
}
