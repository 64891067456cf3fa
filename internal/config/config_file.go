package config

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config in TOML; pointers mark optional booleans.
type FileConfig struct {
	UploadDir    string `toml:"upload_dir"`
	ProcessedDir string `toml:"processed_dir"`
	ZippedDir    string `toml:"zipped_dir"`
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
	Policy       string `toml:"policy"`
	Dither       string `toml:"dither"`
	Threshold    int    `toml:"threshold"`
	Lenient      *bool  `toml:"lenient"`
	Listen       string `toml:"listen"`
	Serial       string `toml:"serial"`
	Host         string `toml:"host"`
	Device       string `toml:"device"`
	TgToken      string `toml:"tg_token"`
	WhKey        string `toml:"wh_key"`
	WhQuery      string `toml:"wh_query"`
	WhToplist    string `toml:"wh_toplist"`
	Debug        *bool  `toml:"debug"`
}

func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath is ~/.epdbin/config.toml, or empty without a home dir.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".epdbin", "config.toml")
	}
	return ""
}

// ApplyFileConfig copies set file values into cfg unless the matching flag
// was given on the command line.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) {
	setString := func(flag, v string, dst *string) {
		if v != "" && !changed[flag] {
			*dst = v
		}
	}
	setInt := func(flag string, v int, dst *int) {
		if v > 0 && !changed[flag] {
			*dst = v
		}
	}
	setBool := func(flag string, v *bool, dst *bool) {
		if v != nil && !changed[flag] {
			*dst = *v
		}
	}

	setString("upload-dir", fc.UploadDir, &cfg.Dirs.Upload)
	setString("processed-dir", fc.ProcessedDir, &cfg.Dirs.Processed)
	setString("zipped-dir", fc.ZippedDir, &cfg.Dirs.Zipped)
	setInt("width", fc.Width, &cfg.Width)
	setInt("height", fc.Height, &cfg.Height)
	setString("policy", fc.Policy, &cfg.Policy)
	setString("dither", fc.Dither, &cfg.Dither)
	setInt("threshold", fc.Threshold, &cfg.Threshold)
	setBool("lenient", fc.Lenient, &cfg.Lenient)
	setString("listen", fc.Listen, &cfg.Listen)
	setString("serial", fc.Serial, &cfg.Serial)
	setString("host", fc.Host, &cfg.Host)
	setString("device", fc.Device, &cfg.Device)
	setString("tg-token", fc.TgToken, &cfg.TgToken)
	setString("wh-key", fc.WhKey, &cfg.WhKey)
	setString("wh-query", fc.WhQuery, &cfg.WhQuery)
	setString("wh-toplist", fc.WhToplist, &cfg.WhToplist)
	setBool("debug", fc.Debug, &cfg.Debug)
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
