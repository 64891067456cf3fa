package bitmap

import (
	"bytes"
	"errors"
	"testing"
)

func TestContainerRoundTrip(t *testing.T) {
	f := frameOf(t, 5, 3,
		B, W, W, B, W,
		W, B, W, W, B,
		B, B, W, W, W,
	)

	for _, p := range []Packer{DefaultPacker, {Policy: Legacy}} {
		c, err := p.Encode(f)
		if err != nil {
			t.Fatal(err)
		}

		back, err := c.Unpack()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(back.Pix, f.Pix) {
			t.Fatalf("%s: got %v, want %v", p.Policy, back.Pix, f.Pix)
		}
	}
}

func TestParseContainer(t *testing.T) {
	c, err := DefaultPacker.Encode(frameOf(t, 3, 3, B))
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := ParseContainer(c.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Width != 3 || parsed.Height != 3 || !bytes.Equal(parsed.Payload, c.Payload) {
		t.Fatalf("got %+v", parsed)
	}

	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != HeaderLen+2 {
		t.Fatalf("wrote %d bytes", buf.Len())
	}

	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"short", []byte{0x01, 0x00}, ErrSizeMismatch},
		{"zero width", []byte{0x00, 0x00, 0x01, 0x00, 0x00}, ErrInvalidDimensions},
		{"truncated payload", []byte{0x08, 0x00, 0x02, 0x00, 0x00}, ErrSizeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseContainer(tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHeaderRange(t *testing.T) {
	f := &Frame{Width: 70000, Height: 1, Pix: make([]uint8, 70000)}
	for i := range f.Pix {
		f.Pix[i] = White
	}
	if _, err := DefaultPacker.Encode(f); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("got %v", err)
	}
	if _, err := (Packer{}).Encode(f); err != nil {
		t.Fatalf("headerless: %v", err)
	}
}
