package bitmap

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// HeaderLen is the size of the width/height prefix of a container.
const HeaderLen = 4

// Policy selects the bit layout of a packed payload.
type Policy int

const (
	// Canonical packs pixels continuously across rows, LSB first, and may be
	// prefixed by a header.
	Canonical Policy = iota
	// Legacy packs each row MSB first, zero padded to a byte boundary,
	// without a header.
	Legacy
)

func (p Policy) String() string {
	switch p {
	case Canonical:
		return "canonical"
	case Legacy:
		return "legacy"
	}
	return "unknown"
}

// ParsePolicy accepts the names returned by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "canonical":
		return Canonical, nil
	case "legacy":
		return Legacy, nil
	}
	return Canonical, errors.Errorf("unknown packing policy %q", s)
}

// PayloadLen is the number of payload bytes a width x height frame packs to.
func PayloadLen(width, height int, policy Policy) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	if policy == Legacy {
		return height * ((width + 7) / 8)
	}
	return (width*height + 7) / 8
}

// Packer serializes dithered frames.
type Packer struct {
	Policy Policy
	// Header writes width and height as little-endian uint16 before the
	// payload. Ignored by Legacy.
	Header bool
	// PadZero leaves the unused bits of a final partial Canonical byte clear
	// instead of setting them.
	PadZero bool
}

// DefaultPacker is the container layout expected by the display firmware.
var DefaultPacker = Packer{Policy: Canonical, Header: true}

// Pack serializes f with the canonical (rowAligned=false) or legacy
// (rowAligned=true) policy.
func Pack(f *Frame, withHeader, rowAligned bool) ([]byte, error) {
	p := Packer{Policy: Canonical, Header: withHeader}
	if rowAligned {
		p.Policy = Legacy
	}
	return p.Pack(f)
}

// Pack returns header (if any) followed by the payload.
func (p Packer) Pack(f *Frame) ([]byte, error) {
	c, err := p.Encode(f)
	if err != nil {
		return nil, err
	}
	return c.Bytes(), nil
}

// Encode packs f into a Container.
func (p Packer) Encode(f *Frame) (*Container, error) {
	if err := f.valid(); err != nil {
		return nil, err
	}

	c := &Container{
		Width:  f.Width,
		Height: f.Height,
		Policy: p.Policy,
		Header: p.Header && p.Policy == Canonical,
	}

	if c.Header && (f.Width > math.MaxUint16 || f.Height > math.MaxUint16) {
		return nil, errors.Wrapf(ErrInvalidDimensions, "%dx%d exceeds header range", f.Width, f.Height)
	}

	var err error
	switch p.Policy {
	case Canonical:
		c.Payload, err = p.packContinuous(f)
	case Legacy:
		c.Payload, err = packRows(f)
	default:
		err = errors.Errorf("unknown packing policy %d", p.Policy)
	}
	if err != nil {
		return nil, err
	}

	return c, nil
}

func inkBit(v uint8, i int) (byte, error) {
	switch v {
	case Black:
		return 1, nil
	case White:
		return 0, nil
	}
	return 0, errors.Wrapf(ErrEncoding, "level %d at pixel %d", v, i)
}

func (p Packer) packContinuous(f *Frame) ([]byte, error) {
	out := make([]byte, 0, PayloadLen(f.Width, f.Height, Canonical))

	var cur byte
	var n int
	for i, v := range f.Pix {
		bit, err := inkBit(v, i)
		if err != nil {
			return nil, err
		}
		cur |= bit << n
		n++
		if n == 8 {
			out = append(out, cur)
			cur, n = 0, 0
		}
	}

	if n > 0 {
		if !p.PadZero {
			cur |= 0xFF << n
		}
		out = append(out, cur)
	}

	return out, nil
}

func packRows(f *Frame) ([]byte, error) {
	out := make([]byte, 0, PayloadLen(f.Width, f.Height, Legacy))

	for y := 0; y < f.Height; y++ {
		var cur byte
		var n int
		for x := 0; x < f.Width; x++ {
			i := y*f.Width + x
			bit, err := inkBit(f.Pix[i], i)
			if err != nil {
				return nil, err
			}
			cur = cur<<1 | bit
			n++
			if n == 8 {
				out = append(out, cur)
				cur, n = 0, 0
			}
		}
		if n > 0 {
			out = append(out, cur<<(8-n))
		}
	}

	return out, nil
}

func putHeader(dst []byte, width, height int) {
	binary.LittleEndian.PutUint16(dst[0:2], uint16(width))
	binary.LittleEndian.PutUint16(dst[2:4], uint16(height))
}
