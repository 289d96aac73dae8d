// Package config handles meshforge configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Config holds all meshforge settings.
type Config struct {
	Import  ImportConfig  `yaml:"import"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Logging LoggingConfig `yaml:"logging"`
}

// ImportConfig holds vertex welding and import pipeline settings.
type ImportConfig struct {
	Renormalize     bool    `yaml:"renormalize"`      // Recompute face normals while welding
	NormalThreshold float32 `yaml:"normal_threshold"` // Minimum normal dot product for two corners to weld
	Workers         int     `yaml:"workers"`          // Meshes welded in parallel; 0 = GOMAXPROCS
	FlipV           bool    `yaml:"flip_v"`           // Mirror glTF texture V on read
}

// ViewerConfig holds display settings for meshview.
type ViewerConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	Wireframe  bool `yaml:"wireframe"`

	ScreenshotDir    string `yaml:"screenshot_dir"`
	ScreenshotFormat string `yaml:"screenshot_format"` // png or bmp

	// Sun angles in degrees for the lit shade mode.
	LightAzimuth   float32 `yaml:"light_azimuth"`
	LightElevation float32 `yaml:"light_elevation"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	Format  string `yaml:"format"` // console or json
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			Renormalize:     false,
			NormalThreshold: 0.9,
			Workers:         0,
			FlipV:           false,
		},
		Viewer: ViewerConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			Wireframe:  false,

			ScreenshotDir:    "screenshots",
			ScreenshotFormat: "png",

			LightAzimuth:   35,
			LightElevation: 55,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
			Format:  "console",
		},
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if c.Import.NormalThreshold < -1 || c.Import.NormalThreshold > 1 {
		return fmt.Errorf("%w: normal_threshold %v outside [-1, 1]", ErrInvalid, c.Import.NormalThreshold)
	}
	if c.Import.Workers < 0 {
		return fmt.Errorf("%w: workers %d < 0", ErrInvalid, c.Import.Workers)
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return fmt.Errorf("%w: viewer size %dx%d", ErrInvalid, c.Viewer.Width, c.Viewer.Height)
	}
	if c.Viewer.LightElevation < -90 || c.Viewer.LightElevation > 90 {
		return fmt.Errorf("%w: light_elevation %v outside [-90, 90]", ErrInvalid, c.Viewer.LightElevation)
	}
	switch c.Viewer.ScreenshotFormat {
	case "", "png", "bmp":
	default:
		return fmt.Errorf("%w: screenshot format %q", ErrInvalid, c.Viewer.ScreenshotFormat)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}
