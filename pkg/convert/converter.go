package convert

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"epdbin/pkg/bitmap"
	"epdbin/pkg/xbm"
)

// TextExt marks sources taking the text-bitmap path.
const TextExt = ".xbm"

// ImageExts are the raster extensions picked up by Scan and the watcher.
var ImageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Option configures a Converter.
type Option func(c *Converter)

func WithPacker(p bitmap.Packer) Option {
	return func(c *Converter) {
		c.enc.Packer = p
	}
}

func WithDitherer(d *bitmap.Ditherer) Option {
	return func(c *Converter) {
		c.enc.Ditherer = d
	}
}

// WithLenientText lets text sources through whose payload does not match
// their declared size.
func WithLenientText(lenient bool) Option {
	return func(c *Converter) {
		c.text.Lenient = lenient
	}
}

func New(width, height int, logger *zap.Logger, opts ...Option) *Converter {
	c := &Converter{
		enc: bitmap.NewEncoder(width, height),
		log: logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Converter turns sources into containers. It holds no per-request state
// and may be shared between goroutines.
type Converter struct {
	enc  *bitmap.Encoder
	text xbm.Options
	log  *zap.Logger
}

func (c *Converter) Width() int {
	return c.enc.Width
}

func (c *Converter) Height() int {
	return c.enc.Height
}

// Image decodes r and runs fit, dither and pack.
func (c *Converter) Image(r io.Reader) (*bitmap.Container, error) {
	img, err := bitmap.Decode(r)
	if err != nil {
		return nil, err
	}
	return c.Picture(img)
}

// Picture fits, dithers and packs an already decoded image.
func (c *Converter) Picture(img image.Image) (*bitmap.Container, error) {
	return c.enc.Encode(img)
}

// Text parses an XBM source and re-emits it behind a header.
func (c *Converter) Text(r io.Reader) (*bitmap.Container, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text source: %w", err)
	}

	b, err := c.text.Parse(bs)
	if err != nil {
		return nil, err
	}

	return b.Container(), nil
}

// Source picks the text or image path by the extension of name.
func (c *Converter) Source(name string, r io.Reader) (*bitmap.Container, error) {
	var (
		ct  *bitmap.Container
		err error
	)

	if IsText(name) {
		ct, err = c.Text(r)
	} else {
		ct, err = c.Image(r)
	}

	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", name, err)
	}

	c.log.With(
		zap.String("source", name),
		zap.Int("width", ct.Width),
		zap.Int("height", ct.Height),
		zap.Int("bytes", ct.Len()),
	).Debug("converted")

	return ct, nil
}

func IsText(name string) bool {
	return strings.EqualFold(filepath.Ext(name), TextExt)
}

// Supported reports whether name has an extension the converter accepts.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == TextExt {
		return true
	}
	for _, e := range ImageExts {
		if e == ext {
			return true
		}
	}
	return false
}

// BinName is the output name for a source: its stem plus ".bin".
func BinName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".bin"
}
