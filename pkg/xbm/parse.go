// Package xbm reads X BitMap style C sources whose byte literals are already
// packed in the display's native bit order.
package xbm

import (
	"io"
	"math"
	"regexp"
	"strconv"

	"github.com/pkg/errors"

	"epdbin/pkg/bitmap"
)

var (
	ErrMissingDimension      = errors.New("missing width or height directive")
	ErrEmptyPayload          = errors.New("no byte literals found")
	ErrPayloadLengthMismatch = errors.New("payload length does not match dimensions")
)

var (
	widthRe  = regexp.MustCompile(`#define\s+\w+_width\s+(\S+)`)
	heightRe = regexp.MustCompile(`#define\s+\w+_height\s+(\S+)`)
	byteRe   = regexp.MustCompile(`0x[0-9a-fA-F]{2}`)
)

// Bitmap is a parsed text source.
type Bitmap struct {
	Width   int
	Height  int
	Payload []byte
}

// Options tune Parse.
type Options struct {
	// Lenient skips the payload length check and passes whatever literals
	// were found through unchanged.
	Lenient bool
}

// Parse extracts width, height and payload from src.
func Parse(src []byte) (*Bitmap, error) {
	return Options{}.Parse(src)
}

// ParseReader reads r fully and parses it.
func ParseReader(r io.Reader) (*Bitmap, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read text bitmap")
	}
	return Parse(bs)
}

func dimension(re *regexp.Regexp, src []byte, name string) (int, error) {
	m := re.FindSubmatch(src)
	if m == nil {
		return 0, errors.Wrapf(ErrMissingDimension, "no %s directive", name)
	}
	v, err := strconv.Atoi(string(m[1]))
	if err != nil || v <= 0 {
		return 0, errors.Wrapf(ErrMissingDimension, "%s %q is not a positive integer", name, m[1])
	}
	if v > math.MaxUint16 {
		return 0, errors.Wrapf(bitmap.ErrInvalidDimensions, "%s %d exceeds header range", name, v)
	}
	return v, nil
}

func (o Options) Parse(src []byte) (*Bitmap, error) {
	w, err := dimension(widthRe, src, "width")
	if err != nil {
		return nil, err
	}
	h, err := dimension(heightRe, src, "height")
	if err != nil {
		return nil, err
	}

	literals := byteRe.FindAll(src, -1)
	if len(literals) == 0 {
		return nil, ErrEmptyPayload
	}

	payload := make([]byte, len(literals))
	for i, lit := range literals {
		v, err := strconv.ParseUint(string(lit[2:]), 16, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "literal %s", lit)
		}
		payload[i] = byte(v)
	}

	if !o.Lenient {
		if want := bitmap.PayloadLen(w, h, bitmap.Canonical); len(payload) != want {
			return nil, errors.Wrapf(ErrPayloadLengthMismatch, "%dx%d wants %d bytes, found %d", w, h, want, len(payload))
		}
	}

	return &Bitmap{Width: w, Height: h, Payload: payload}, nil
}

// Container wraps the payload verbatim behind a canonical header.
func (b *Bitmap) Container() *bitmap.Container {
	return &bitmap.Container{
		Width:   b.Width,
		Height:  b.Height,
		Policy:  bitmap.Canonical,
		Header:  true,
		Payload: b.Payload,
	}
}

// Bytes is Container().Bytes().
func (b *Bitmap) Bytes() []byte {
	return b.Container().Bytes()
}
