package bitmap

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestFitRect(t *testing.T) {
	tests := []struct {
		srcW, srcH int
		want       image.Rectangle
	}{
		{800, 600, image.Rect(0, 0, 400, 300)},
		{100, 50, image.Rect(150, 125, 250, 175)},
		{101, 51, image.Rect(149, 124, 250, 175)},
		{200, 400, image.Rect(125, 0, 275, 300)},
		{500, 10, image.Rect(0, 146, 400, 154)},
		{400, 300, image.Rect(0, 0, 400, 300)},
		{10000, 1, image.Rect(0, 149, 400, 150)},
	}

	for _, tt := range tests {
		got := FitRect(tt.srcW, tt.srcH, 400, 300)
		if got != tt.want {
			t.Errorf("FitRect(%d, %d) = %v, want %v", tt.srcW, tt.srcH, got, tt.want)
		}
		// trailing margin is never smaller than the leading one
		if 400-got.Max.X < got.Min.X || 300-got.Max.Y < got.Min.Y {
			t.Errorf("FitRect(%d, %d) = %v leans right/bottom", tt.srcW, tt.srcH, got)
		}
	}
}

func TestFitCenters(t *testing.T) {
	f, err := Fit(solid(101, 51, color.Black), 400, 300)
	if err != nil {
		t.Fatal(err)
	}
	if f.Width != 400 || f.Height != 300 || len(f.Pix) != 400*300 {
		t.Fatalf("got %dx%d", f.Width, f.Height)
	}

	checks := []struct {
		x, y int
		want uint8
	}{
		{0, 0, White},
		{148, 124, White},
		{149, 124, Black},
		{249, 174, Black},
		{250, 174, White},
		{249, 175, White},
		{399, 299, White},
	}
	for _, c := range checks {
		if got := f.Level(c.x, c.y); got != c.want {
			t.Errorf("(%d,%d) = %d, want %d", c.x, c.y, got, c.want)
		}
	}
}

func TestFitShrinks(t *testing.T) {
	f, err := Fit(solid(1600, 600, color.White), 400, 300)
	if err != nil {
		t.Fatal(err)
	}
	if f.Width != 400 || f.Height != 300 {
		t.Fatalf("got %dx%d", f.Width, f.Height)
	}
	for i, v := range f.Pix {
		if v < 250 {
			t.Fatalf("pixel %d = %d, want white", i, v)
		}
	}
}

func TestFitTransparentIsWhite(t *testing.T) {
	f, err := Fit(image.NewNRGBA(image.Rect(0, 0, 4, 4)), 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range f.Pix {
		if v != White {
			t.Fatalf("pixel %d = %d", i, v)
		}
	}
}

func TestFitInvalidDimensions(t *testing.T) {
	for _, d := range [][2]int{{0, 300}, {400, 0}, {-1, -1}} {
		if _, err := Fit(solid(2, 2, color.Black), d[0], d[1]); !errors.Is(err, ErrInvalidDimensions) {
			t.Fatalf("%v: got %v", d, err)
		}
	}
}

func TestDecode(t *testing.T) {
	_, err := DecodeBytes([]byte("definitely not an image"))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("got %v", err)
	}
	if !errors.Is(err, image.ErrFormat) {
		t.Fatalf("decoder cause lost: %v", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(3, 2, color.Black)); err != nil {
		t.Fatal(err)
	}
	img, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Fatalf("bounds %v", img.Bounds())
	}
}

func TestEncodeSinglePixel(t *testing.T) {
	got, err := Encode(solid(37, 11, color.Black), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got[:HeaderLen], []byte{0x01, 0x00, 0x01, 0x00}) {
		t.Fatalf("header % X", got[:HeaderLen])
	}
	// unused high bits of the last byte are padded with ones
	if len(got) != HeaderLen+1 || got[HeaderLen] != 0xFF {
		t.Fatalf("payload % X", got[HeaderLen:])
	}

	got, err = Encode(solid(5, 5, color.White), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != HeaderLen+1 || got[HeaderLen] != 0xFE {
		t.Fatalf("payload % X", got[HeaderLen:])
	}
}

func TestEncoderFrameSize(t *testing.T) {
	c, err := NewEncoder(400, 300).Encode(solid(640, 480, color.Gray{Y: 90}))
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != HeaderLen+400*300/8 {
		t.Fatalf("container is %d bytes", c.Len())
	}
}
