package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// BindCodec registers the conversion flags on fs.
func BindCodec(fs *pflag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Width, "width", cfg.Width, "frame width in pixels")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "frame height in pixels")
	fs.StringVar(&cfg.Policy, "policy", cfg.Policy, "packing policy: canonical or legacy")
	fs.StringVar(&cfg.Dither, "dither", cfg.Dither, "dither method")
	fs.IntVar(&cfg.Threshold, "threshold", cfg.Threshold, "black/white threshold")
	fs.BoolVar(&cfg.Lenient, "lenient", cfg.Lenient, "accept text bitmaps whose payload length does not match")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "debug logging")
}

// BindDirs registers the workspace directory flags on fs.
func BindDirs(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Dirs.Upload, "upload-dir", cfg.Dirs.Upload, "directory holding source files")
	fs.StringVar(&cfg.Dirs.Processed, "processed-dir", cfg.Dirs.Processed, "directory receiving .bin containers")
	fs.StringVar(&cfg.Dirs.Zipped, "zipped-dir", cfg.Dirs.Zipped, "directory receiving zip bundles")
}

// BindDevice registers the device flags on fs.
func BindDevice(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Device, "device", cfg.Device, "virtual, gallery, serial or remote")
	fs.StringVar(&cfg.Serial, "serial", cfg.Serial, "serial name or remote addr")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "gallery board address")
}

// Changed collects the flags set on the command line.
func Changed(fs *pflag.FlagSet) map[string]bool {
	changed := make(map[string]bool)
	fs.Visit(func(f *pflag.Flag) {
		changed[f.Name] = true
	})
	return changed
}

// Load applies the config file at path, when it exists, underneath the
// flags already parsed into fs, then validates.
func Load(fs *pflag.FlagSet, cfg *Config, path string, required bool) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if path != "" && FileExists(path) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		ApplyFileConfig(cfg, fc, Changed(fs))
	} else if required {
		return fmt.Errorf("config file %s not found", path)
	}

	return cfg.Validate()
}
