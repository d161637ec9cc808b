package config

import "flag"

// Flags holds command-line overrides bound to a FlagSet.
type Flags struct {
	fs *flag.FlagSet

	config     *string
	saveConfig *string
	debug      *bool
	logFile    *string
	archive    *string
	name       *string
	weldEps    *float64
	faceType   *int
	threshold  *float64
}

// BindFlags registers the export flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	def := Default()
	return &Flags{
		fs:         fs,
		config:     fs.String("config", "", "Path to config file"),
		saveConfig: fs.String("save-config", "", "Write the effective config to this path"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
		logFile:    fs.String("log-file", "", "Also log to this file (rotated)"),
		archive:    fs.String("grf", "", "Read the input scene from this GRF archive"),
		name:       fs.String("name", def.Export.NodeName, "Node name to export"),
		weldEps:    fs.Float64("weld-eps", def.Export.WeldEps, "Vertex weld epsilon in model units (<= 0 disables)"),
		faceType:   fs.Int("type", def.Export.FaceType, "Face type: 0=floor 1=wall 2=ceiling, -1 = auto-classify by normal"),
		threshold:  fs.Float64("threshold", def.Export.Threshold, "Normal Y threshold for floor/ceiling, in (0, 1)"),
	}
}

// ConfigPath returns the explicit config path if provided via --config.
func (f *Flags) ConfigPath() string {
	return *f.config
}

// ArchivePath returns the --grf archive path, or "" to read the input from disk.
func (f *Flags) ArchivePath() string {
	return *f.archive
}

// SaveConfigPath returns the --save-config path, or "".
func (f *Flags) SaveConfigPath() string {
	return *f.saveConfig
}

// apply copies explicitly set flags onto cfg. Flags left at their defaults
// do not override values from a config file.
func (f *Flags) apply(cfg *Config) {
	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) {
		set[fl.Name] = true
	})

	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if set["log-file"] {
		cfg.Logging.LogFile = *f.logFile
	}
	if set["name"] {
		cfg.Export.NodeName = *f.name
	}
	if set["weld-eps"] {
		cfg.Export.WeldEps = *f.weldEps
	}
	if set["type"] {
		cfg.Export.FaceType = *f.faceType
	}
	if set["threshold"] {
		cfg.Export.Threshold = *f.threshold
	}
}
