package bitmap

import (
	"image/color"

	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/pkg/errors"
)

var libraryMatrices = map[Method]dither.ErrorDiffusionMatrix{
	Atkinson:     dither.Atkinson,
	Stucki:       dither.Stucki,
	Burkes:       dither.Burkes,
	SierraLite:   dither.SierraLite,
	JarvisJudice: dither.JarvisJudiceNinke,
}

var monoPalette = []color.Color{
	color.Gray{Y: Black},
	color.Gray{Y: White},
}

func (d *Ditherer) library(f *Frame) (*Frame, error) {
	ditherer := dither.NewDitherer(monoPalette)
	if ditherer == nil {
		return nil, errors.New("dither palette rejected")
	}

	if d.Method == Bayer {
		ditherer.Mapper = dither.Bayer(8, 8, 1.0)
	} else {
		m, ok := libraryMatrices[d.Method]
		if !ok {
			return nil, errors.Errorf("unknown dither method %q", d.Method)
		}
		ditherer.Matrix = m
	}

	p := ditherer.DitherPaletted(f)

	out := &Frame{Width: f.Width, Height: f.Height, Pix: make([]uint8, len(f.Pix))}
	b := p.Bounds()
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			// palette index 0 is black
			out.Pix[y*f.Width+x] = paletteLevel(p.ColorIndexAt(b.Min.X+x, b.Min.Y+y))
		}
	}

	return out, nil
}

func paletteLevel(idx uint8) uint8 {
	if idx == 0 {
		return Black
	}
	return White
}
