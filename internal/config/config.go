package config

import (
	"fmt"
	"strings"

	"epdbin/pkg/bitmap"
	"epdbin/pkg/convert"
)

// Config holds everything the commands need.
type Config struct {
	Dirs convert.Dirs

	Width     int
	Height    int
	Policy    string
	Dither    string
	Threshold int
	Lenient   bool

	Listen    string
	Serial    string
	Host      string
	Device    string
	TgToken   string
	WhKey     string
	WhQuery   string
	WhToplist string

	Debug bool
}

// DefaultConfig matches the 4.2" panel the firmware drives.
func DefaultConfig() Config {
	return Config{
		Dirs: convert.Dirs{
			Upload:    "uploaded_files",
			Processed: "processed_files",
			Zipped:    "zipped_files",
		},
		Width:     400,
		Height:    300,
		Policy:    bitmap.Canonical.String(),
		Dither:    string(bitmap.FloydSteinberg),
		Threshold: bitmap.DefaultThreshold,
		Listen:    ":5000",
		Device:    "virtual",
		WhToplist: "1M",
	}
}

// Validate checks values that cannot be fixed up.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("frame size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Width > 0xFFFF || c.Height > 0xFFFF {
		return fmt.Errorf("frame size %dx%d exceeds the container header", c.Width, c.Height)
	}
	if c.Threshold < 1 || c.Threshold > 255 {
		return fmt.Errorf("threshold must be within 1..255, got %d", c.Threshold)
	}
	if _, err := bitmap.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if _, err := c.Ditherer(); err != nil {
		return err
	}
	if c.Dirs.Upload == "" || c.Dirs.Processed == "" || c.Dirs.Zipped == "" {
		return fmt.Errorf("upload, processed and zipped dirs are required")
	}
	switch strings.ToLower(c.Device) {
	case "gallery":
		if c.Host == "" {
			return fmt.Errorf("gallery device needs a host")
		}
	case "virtual", "serial", "remote":
	default:
		return fmt.Errorf("unknown device %q", c.Device)
	}
	return nil
}

// Packer returns the packing policy; legacy output never has a header.
func (c *Config) Packer() bitmap.Packer {
	p, _ := bitmap.ParsePolicy(c.Policy)
	return bitmap.Packer{Policy: p, Header: p == bitmap.Canonical}
}

func (c *Config) Ditherer() (*bitmap.Ditherer, error) {
	d, err := bitmap.NewDitherer(bitmap.Method(c.Dither))
	if err != nil {
		return nil, err
	}
	d.Threshold = uint8(c.Threshold)
	return d, nil
}

// ConverterOptions wires the codec settings into convert.New.
func (c *Config) ConverterOptions() ([]convert.Option, error) {
	d, err := c.Ditherer()
	if err != nil {
		return nil, err
	}
	return []convert.Option{
		convert.WithPacker(c.Packer()),
		convert.WithDitherer(d),
		convert.WithLenientText(c.Lenient),
	}, nil
}
