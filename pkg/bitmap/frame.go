package bitmap

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

const (
	Black uint8 = 0
	White uint8 = 255
)

// NewFrame allocates a width x height frame filled with the given level.
func NewFrame(width, height int, fill uint8) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "%dx%d", width, height)
	}

	pix := make([]uint8, width*height)
	if fill != 0 {
		for i := range pix {
			pix[i] = fill
		}
	}

	return &Frame{Width: width, Height: height, Pix: pix}, nil
}

// Frame is an 8-bit grayscale pixel grid stored row-major with a stride of
// Width. A dithered frame only holds the levels Black and White.
// It implements the image.Image (and draw.Image) interface so it can be
// previewed or encoded with the standard codecs.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

func (f *Frame) valid() error {
	if f == nil || f.Width <= 0 || f.Height <= 0 {
		return ErrSizeMismatch
	}
	if len(f.Pix) != f.Width*f.Height {
		return errors.Wrapf(ErrSizeMismatch, "%dx%d frame holds %d pixels", f.Width, f.Height, len(f.Pix))
	}
	return nil
}

// Level returns the pixel at (x, y) without bounds checks.
func (f *Frame) Level(x, y int) uint8 {
	return f.Pix[y*f.Width+x]
}

// SetLevel stores v at (x, y) without bounds checks.
func (f *Frame) SetLevel(x, y int, v uint8) {
	f.Pix[y*f.Width+x] = v
}

// Ink reports whether (x, y) is a black pixel.
func (f *Frame) Ink(x, y int) bool {
	return f.Level(x, y) == Black
}

// Bounds implements the image.Image interface.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// ColorModel implements the image.Image interface.
func (f *Frame) ColorModel() color.Model {
	return color.GrayModel
}

// At implements the image.Image interface.
func (f *Frame) At(x, y int) color.Color {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return color.Gray{}
	}
	return color.Gray{Y: f.Level(x, y)}
}

// Set implements the draw.Image interface.
func (f *Frame) Set(x, y int, c color.Color) {
	if x >= 0 && x < f.Width && y >= 0 && y < f.Height {
		f.SetLevel(x, y, color.GrayModel.Convert(c).(color.Gray).Y)
	}
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	pix := make([]uint8, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{Width: f.Width, Height: f.Height, Pix: pix}
}
