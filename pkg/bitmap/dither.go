package bitmap

import (
	"github.com/pkg/errors"
)

const DefaultThreshold = 128

// Method names a quantization strategy.
type Method string

const (
	FloydSteinberg Method = "floyd-steinberg"
	Threshold      Method = "threshold"
	Atkinson       Method = "atkinson"
	Stucki         Method = "stucki"
	Burkes         Method = "burkes"
	SierraLite     Method = "sierra-lite"
	JarvisJudice   Method = "jjn"
	Bayer          Method = "bayer"
)

// Methods lists every supported Method, the canonical one first.
func Methods() []Method {
	return []Method{FloydSteinberg, Threshold, Atkinson, Stucki, Burkes, SierraLite, JarvisJudice, Bayer}
}

// NewDitherer returns a Ditherer using method with the default threshold.
func NewDitherer(method Method) (*Ditherer, error) {
	d := &Ditherer{Method: method, Threshold: DefaultThreshold}
	if method == "" {
		d.Method = FloydSteinberg
	}

	if _, ok := libraryMatrices[d.Method]; !ok {
		switch d.Method {
		case FloydSteinberg, Threshold, Bayer:
		default:
			return nil, errors.Errorf("unknown dither method %q", method)
		}
	}

	return d, nil
}

// Ditherer reduces a grayscale frame to the two levels Black and White.
type Ditherer struct {
	Method Method
	// Threshold splits levels for FloydSteinberg and Threshold: values below
	// it become Black. Zero means DefaultThreshold.
	Threshold uint8
}

// Dither applies Floyd–Steinberg with the default threshold.
func Dither(f *Frame) (*Frame, error) {
	return (&Ditherer{Method: FloydSteinberg, Threshold: DefaultThreshold}).Dither(f)
}

// Dither returns a new frame; the input is left untouched.
func (d *Ditherer) Dither(f *Frame) (*Frame, error) {
	if err := f.valid(); err != nil {
		return nil, err
	}

	switch d.Method {
	case FloydSteinberg, "":
		return d.floydSteinberg(f), nil
	case Threshold:
		return d.threshold(f), nil
	default:
		return d.library(f)
	}
}

func (d *Ditherer) quantize(v float32) uint8 {
	t := d.Threshold
	if t == 0 {
		t = DefaultThreshold
	}
	if v < float32(t) {
		return Black
	}
	return White
}

func (d *Ditherer) threshold(f *Frame) *Frame {
	out := &Frame{Width: f.Width, Height: f.Height, Pix: make([]uint8, len(f.Pix))}
	for i, v := range f.Pix {
		out.Pix[i] = d.quantize(float32(v))
	}
	return out
}

// floydSteinberg walks the frame row-major, pushing the quantization error
// of each pixel onto its unvisited neighbours (7/16 right, 3/16 below-left,
// 5/16 below, 1/16 below-right). Error that would leave the frame is dropped.
func (d *Ditherer) floydSteinberg(f *Frame) *Frame {
	w, h := f.Width, f.Height

	acc := make([]float32, len(f.Pix))
	for i, v := range f.Pix {
		acc[i] = float32(v)
	}

	out := &Frame{Width: w, Height: h, Pix: make([]uint8, len(f.Pix))}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			old := acc[i]
			q := d.quantize(old)
			out.Pix[i] = q

			e := old - float32(q)
			if e == 0 {
				continue
			}

			if x+1 < w {
				acc[i+1] += e * 7 / 16
			}
			if y+1 < h {
				below := i + w
				if x > 0 {
					acc[below-1] += e * 3 / 16
				}
				acc[below] += e * 5 / 16
				if x+1 < w {
					acc[below+1] += e * 1 / 16
				}
			}
		}
	}

	return out
}
