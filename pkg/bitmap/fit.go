package bitmap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode reads any registered raster format, applying EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

// DecodeBytes is Decode over an in-memory source.
func DecodeBytes(bs []byte) (image.Image, error) {
	return Decode(bytes.NewReader(bs))
}

// FitRect returns the shrink-only, aspect preserving size of a srcW x srcH
// image inside a width x height frame, and the top-left offset that centers
// it. Odd margins leave the extra pixel on the right/bottom.
func FitRect(srcW, srcH, width, height int) image.Rectangle {
	w, h := srcW, srcH

	if srcW > width || srcH > height {
		aspect := float64(srcW) / float64(srcH)
		w, h = width, height
		if float64(width)/float64(height) >= aspect {
			w = roundAspect(float64(height)*aspect, func(n float64) float64 {
				return math.Abs(aspect - n/float64(height))
			})
		} else {
			h = roundAspect(float64(width)/aspect, func(n float64) float64 {
				if n == 0 {
					return 0
				}
				return math.Abs(aspect - float64(width)/n)
			})
		}
	}

	x := (width - w) / 2
	y := (height - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

// roundAspect picks floor or ceil of n, whichever keeps the aspect ratio
// closer, never below one pixel.
func roundAspect(n float64, dist func(float64) float64) int {
	lo, hi := math.Floor(n), math.Ceil(n)
	v := lo
	if dist(hi) < dist(lo) {
		v = hi
	}
	if v < 1 {
		v = 1
	}
	return int(v)
}

// Fit converts src to grayscale, shrinks it into a width x height frame with
// a Lanczos filter and centers it on a white background.
func Fit(src image.Image, width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "target %dx%d", width, height)
	}
	if src == nil {
		return nil, errors.Wrap(ErrDecode, "nil image")
	}

	sb := src.Bounds()
	if sb.Dx() <= 0 || sb.Dy() <= 0 {
		return nil, errors.Wrapf(ErrDecode, "empty source %dx%d", sb.Dx(), sb.Dy())
	}

	// transparent areas render as background
	flat := imaging.Overlay(imaging.New(sb.Dx(), sb.Dy(), color.White), src, image.Pt(0, 0), 1.0)
	gray := imaging.Grayscale(flat)

	r := FitRect(sb.Dx(), sb.Dy(), width, height)
	if r.Dx() != sb.Dx() || r.Dy() != sb.Dy() {
		gray = imaging.Resize(gray, r.Dx(), r.Dy(), imaging.Lanczos)
	}

	canvas := imaging.Paste(imaging.New(width, height, color.White), gray, r.Min)

	frame, err := NewFrame(width, height, White)
	if err != nil {
		return nil, err
	}

	for y := 0; y < height; y++ {
		row := canvas.Pix[y*canvas.Stride:]
		for x := 0; x < width; x++ {
			frame.Pix[y*width+x] = row[x*4]
		}
	}

	return frame, nil
}
