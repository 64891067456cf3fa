// Package device picks the panel a command draws on.
package device

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"epdbin/internal/config"
	"epdbin/pkg/device/epd"
	"epdbin/pkg/device/gallery"
	"epdbin/pkg/device/remote"
	"epdbin/pkg/device/virtual"
	"epdbin/pkg/proto"
)

// Open returns the panel named by cfg.Device. A virtual panel writes its
// frames to fs. "gallery" uploads to the ESP32 SD-card firmware over HTTP.
// "serial" speaks the command framing of pkg/device/epd; an address
// containing a colon is treated as a remote proxy, the same as "remote".
func Open(cfg *config.Config, fs afero.Fs, logger *zap.Logger) (proto.Control, error) {
	kind := strings.ToLower(cfg.Device)
	if kind == "serial" && strings.Contains(cfg.Serial, ":") {
		kind = "remote"
	}

	switch kind {
	case "gallery":
		return gallery.New(cfg.Host, logger), nil
	case "virtual":
		return virtual.Mock(logger.With(zap.String("device", "virtual")), fs), nil
	case "serial":
		return epd.Open(proto.NewSerial(cfg.Serial), cfg.Width, cfg.Height, logger)
	case "remote":
		return remote.New(cfg.Serial)
	}
	return nil, fmt.Errorf("unknown device %q", cfg.Device)
}
