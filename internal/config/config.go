// Package config handles export configuration loading and management.
package config

import (
	"fmt"
	"math"

	"github.com/Faultbox/colexport/pkg/collision"
)

// Config holds all export settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds the collision export settings.
type ExportConfig struct {
	NodeName  string  `yaml:"node_name"` // Exact node name to collect
	WeldEps   float64 `yaml:"weld_eps"`  // <= 0 disables welding
	FaceType  int     `yaml:"face_type"` // -1 auto, 0 floor, 1 wall, 2 ceiling
	Threshold float64 `yaml:"threshold"` // Normal Y threshold in (0, 1)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	opts := collision.DefaultOptions()
	return &Config{
		Export: ExportConfig{
			NodeName:  opts.NodeName,
			WeldEps:   opts.WeldEps,
			FaceType:  int(opts.Override),
			Threshold: opts.Threshold,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Export.NodeName == "" {
		return fmt.Errorf("node name must not be empty")
	}
	if !collision.SurfaceType(c.Export.FaceType).Valid() {
		return fmt.Errorf("face type %d not in {-1, 0, 1, 2}", c.Export.FaceType)
	}
	if math.IsNaN(c.Export.WeldEps) {
		return fmt.Errorf("weld eps must be a number")
	}
	if !(c.Export.Threshold > 0 && c.Export.Threshold < 1) {
		return fmt.Errorf("threshold %g not in (0, 1)", c.Export.Threshold)
	}
	return nil
}

// Options converts the export settings to pipeline options.
func (c *Config) Options() collision.Options {
	return collision.Options{
		NodeName:  c.Export.NodeName,
		WeldEps:   c.Export.WeldEps,
		Threshold: c.Export.Threshold,
		Override:  collision.SurfaceType(c.Export.FaceType),
	}
}
