package bitmap

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Container is a packed payload plus the metadata needed to lay it out.
type Container struct {
	Width   int
	Height  int
	Policy  Policy
	Header  bool
	Payload []byte
}

// Len is the serialized length.
func (c *Container) Len() int {
	if c.Header {
		return HeaderLen + len(c.Payload)
	}
	return len(c.Payload)
}

// Bytes serializes the container; the header, when present, always comes
// first and in full.
func (c *Container) Bytes() []byte {
	out := make([]byte, c.Len())
	off := 0
	if c.Header {
		putHeader(out, c.Width, c.Height)
		off = HeaderLen
	}
	copy(out[off:], c.Payload)
	return out
}

// WriteTo implements io.WriterTo.
func (c *Container) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Bytes())
	return int64(n), err
}

// ParseContainer reads a canonical header+payload container.
func ParseContainer(bs []byte) (*Container, error) {
	if len(bs) < HeaderLen {
		return nil, errors.Wrapf(ErrSizeMismatch, "container of %d bytes has no header", len(bs))
	}

	c := &Container{
		Width:  int(binary.LittleEndian.Uint16(bs[0:2])),
		Height: int(binary.LittleEndian.Uint16(bs[2:4])),
		Policy: Canonical,
		Header: true,
	}
	if c.Width == 0 || c.Height == 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "%dx%d", c.Width, c.Height)
	}

	want := PayloadLen(c.Width, c.Height, Canonical)
	if len(bs)-HeaderLen != want {
		return nil, errors.Wrapf(ErrSizeMismatch, "%dx%d wants %d payload bytes, got %d",
			c.Width, c.Height, want, len(bs)-HeaderLen)
	}

	c.Payload = bs[HeaderLen:]
	return c, nil
}

// Unpack renders the payload back into a two-level frame.
func (c *Container) Unpack() (*Frame, error) {
	f, err := NewFrame(c.Width, c.Height, White)
	if err != nil {
		return nil, err
	}

	if want := PayloadLen(c.Width, c.Height, c.Policy); len(c.Payload) < want {
		return nil, errors.Wrapf(ErrSizeMismatch, "payload has %d bytes, need %d", len(c.Payload), want)
	}

	stride := (c.Width + 7) / 8
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			var set bool
			if c.Policy == Legacy {
				set = c.Payload[y*stride+x/8]&(0x80>>(x%8)) != 0
			} else {
				i := y*c.Width + x
				set = c.Payload[i/8]&(1<<(i%8)) != 0
			}
			if set {
				f.SetLevel(x, y, Black)
			}
		}
	}

	return f, nil
}
