package xbm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"epdbin/pkg/bitmap"
)

const sample = `#define foo_width 8
#define foo_height 1
static unsigned char foo_bits[] = {
   0x0F, };
`

func TestParse(t *testing.T) {
	b, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if b.Width != 8 || b.Height != 1 || !bytes.Equal(b.Payload, []byte{0x0F}) {
		t.Fatalf("got %+v", b)
	}
	if want := []byte{0x08, 0x00, 0x01, 0x00, 0x0F}; !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("container % X, want % X", b.Bytes(), want)
	}
}

func TestParseOrderAndCase(t *testing.T) {
	src := `static unsigned char logo_bits[] = {
  0xAb, 0xcD,
  0x00, 0XFF };
#define logo_height 2
#define logo_width  12
`
	b, err := Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if b.Width != 12 || b.Height != 2 {
		t.Fatalf("got %dx%d", b.Width, b.Height)
	}
	// 0XFF has an upper-case prefix and is not a literal
	if want := []byte{0xAB, 0xCD, 0x00}; !bytes.Equal(b.Payload, want) {
		t.Fatalf("payload % X, want % X", b.Payload, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"no width", "#define a_height 1\n0x00", ErrMissingDimension},
		{"no height", "#define a_width 8\n0x00", ErrMissingDimension},
		{"non numeric", "#define a_width eight\n#define a_height 1\n0x00", ErrMissingDimension},
		{"keyword case", "#define a_WIDTH 8\n#define a_height 1\n0x00", ErrMissingDimension},
		{"no literals", "#define a_width 8\n#define a_height 1\n{ };", ErrEmptyPayload},
		{"short payload", "#define a_width 16\n#define a_height 2\n0x00, 0x01", ErrPayloadLengthMismatch},
		{"too wide", "#define a_width 70000\n#define a_height 1\n0x00", bitmap.ErrInvalidDimensions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.src)); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseLenient(t *testing.T) {
	src := "#define a_width 16\n#define a_height 2\n0x00, 0x01"
	b, err := Options{Lenient: true}.Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x10, 0x00, 0x02, 0x00, 0x00, 0x01}; !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("got % X", b.Bytes())
	}
}

func TestParseReader(t *testing.T) {
	b, err := ParseReader(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	c := b.Container()
	if !c.Header || c.Policy != bitmap.Canonical || c.Len() != 5 {
		t.Fatalf("got %+v", c)
	}
}
