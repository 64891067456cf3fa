// Package gallery pushes containers to the ESP32 clock gallery firmware,
// which stores uploaded .bin files on its SD card and cycles through them.
package gallery

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"epdbin/pkg/bitmap"
	"epdbin/pkg/proto"
)

const (
	uploadPath  = "/fupload"
	uploadField = "fupload"
	timePath    = "/timeUploadProcess"
	timeField   = "timeUploadProcess"

	// TimeLayout is the clock format the firmware parses.
	TimeLayout = "2006-01-02 15:04:05"
)

var ErrUnsupported = errors.New("not supported by the gallery firmware")

var _ proto.Control = (*Gallery)(nil)

// New targets the board at host, either "192.168.4.1" or a full base URL.
func New(host string, logger *zap.Logger) *Gallery {
	base := strings.TrimRight(host, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	return &Gallery{
		cli: resty.New().SetBaseURL(base).SetTimeout(30 * time.Second),
		log: logger.With(zap.String("device", "gallery"), zap.String("host", base)),
	}
}

type Gallery struct {
	cli *resty.Client
	log *zap.Logger
}

func check(resp *resty.Response, err error, what string) error {
	if err != nil {
		return errors.Wrap(err, what)
	}
	if resp.IsError() {
		return errors.Errorf("%s: %s", what, resp.Status())
	}
	return nil
}

// Startup checks the board answers.
func (g *Gallery) Startup() error {
	resp, err := g.cli.R().Get("/")
	return check(resp, err, "reach board")
}

func (g *Gallery) Shutdown() error {
	return nil
}

// Clear has no firmware route; files are managed from the board's own pages.
func (g *Gallery) Clear() error {
	return errors.Wrap(ErrUnsupported, "clear")
}

// DrawContainer uploads c under a generated name.
func (g *Gallery) DrawContainer(c *bitmap.Container) error {
	return g.Upload(fmt.Sprintf("epd-%s.bin", xid.New().String()), c)
}

// Upload stores c on the SD card as name. The firmware only renders
// canonical containers with a header.
func (g *Gallery) Upload(name string, c *bitmap.Container) error {
	if c.Policy != bitmap.Canonical || !c.Header {
		return errors.Wrapf(bitmap.ErrEncoding, "%s: firmware expects a canonical container with header", name)
	}

	resp, err := g.cli.R().
		SetFileReader(uploadField, name, bytes.NewReader(c.Bytes())).
		Post(uploadPath)
	if err := check(resp, err, "upload "+name); err != nil {
		return err
	}

	g.log.With(zap.String("file", name), zap.Int("bytes", c.Len())).Info("uploaded")
	return nil
}

// SetTime sets the board clock.
func (g *Gallery) SetTime(t time.Time) error {
	resp, err := g.cli.R().
		SetFormData(map[string]string{timeField: t.Format(TimeLayout)}).
		Post(timePath)
	if err := check(resp, err, "set time"); err != nil {
		return err
	}

	g.log.With(zap.Time("time", t)).Info("clock set")
	return nil
}
