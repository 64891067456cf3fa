package bitmap

import (
	"image"
)

// Encoder runs the full image path: fit, dither, pack.
type Encoder struct {
	Width    int
	Height   int
	Ditherer *Ditherer
	Packer   Packer
}

// NewEncoder uses Floyd–Steinberg and the default packer.
func NewEncoder(width, height int) *Encoder {
	return &Encoder{
		Width:    width,
		Height:   height,
		Ditherer: &Ditherer{Method: FloydSteinberg, Threshold: DefaultThreshold},
		Packer:   DefaultPacker,
	}
}

// Frame returns the dithered frame for src.
func (e *Encoder) Frame(src image.Image) (*Frame, error) {
	fitted, err := Fit(src, e.Width, e.Height)
	if err != nil {
		return nil, err
	}

	d := e.Ditherer
	if d == nil {
		d = &Ditherer{Method: FloydSteinberg, Threshold: DefaultThreshold}
	}

	return d.Dither(fitted)
}

// Encode returns the container for src.
func (e *Encoder) Encode(src image.Image) (*Container, error) {
	mono, err := e.Frame(src)
	if err != nil {
		return nil, err
	}
	return e.Packer.Encode(mono)
}

// Encode packs src for a width x height display with the defaults.
func Encode(src image.Image, width, height int) ([]byte, error) {
	c, err := NewEncoder(width, height).Encode(src)
	if err != nil {
		return nil, err
	}
	return c.Bytes(), nil
}
