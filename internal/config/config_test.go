package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"epdbin/pkg/bitmap"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if p := cfg.Packer(); p != bitmap.DefaultPacker {
		t.Fatalf("packer %+v", p)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"huge height", func(c *Config) { c.Height = 70000 }},
		{"threshold", func(c *Config) { c.Threshold = 0 }},
		{"policy", func(c *Config) { c.Policy = "msb" }},
		{"dither", func(c *Config) { c.Dither = "halftone" }},
		{"dirs", func(c *Config) { c.Dirs.Zipped = "" }},
		{"device", func(c *Config) { c.Device = "usb" }},
		{"gallery host", func(c *Config) { c.Device = "gallery" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLegacyPackerHasNoHeader(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = "legacy"
	if p := cfg.Packer(); p.Policy != bitmap.Legacy || p.Header {
		t.Fatalf("packer %+v", p)
	}
}

func TestLoadFlagsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
width = 200
height = 100
policy = "legacy"
upload_dir = "/srv/in"
lenient = true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindCodec(fs, &cfg)
	BindDirs(fs, &cfg)
	if err := fs.Parse([]string{"--width", "640"}); err != nil {
		t.Fatal(err)
	}

	if err := Load(fs, &cfg, path, true); err != nil {
		t.Fatal(err)
	}

	if cfg.Width != 640 || cfg.Height != 100 {
		t.Fatalf("size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Policy != "legacy" || cfg.Dirs.Upload != "/srv/in" || !cfg.Lenient {
		t.Fatalf("cfg %+v", cfg)
	}
	if cfg.Dirs.Processed != "processed_files" {
		t.Fatalf("processed dir %q", cfg.Dirs.Processed)
	}
}

func TestLoadMissing(t *testing.T) {
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	missing := filepath.Join(t.TempDir(), "nope.toml")

	if err := Load(fs, &cfg, missing, true); err == nil {
		t.Fatal("expected error for required file")
	}
	if err := Load(fs, &cfg, missing, false); err != nil {
		t.Fatal(err)
	}
}
