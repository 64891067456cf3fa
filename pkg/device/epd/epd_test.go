package epd

import (
	"bytes"
	"testing"

	"go.uber.org/zap"

	"epdbin/pkg/bitmap"
)

type port struct {
	bytes.Buffer
}

func (p *port) Close() error {
	return nil
}

func TestDrawContainer(t *testing.T) {
	p := &port{}
	dev := New(p, 400, 300, zap.NewNop())

	c := &bitmap.Container{Width: 400, Height: 300, Header: true, Payload: make([]byte, 15000)}
	if err := dev.DrawContainer(c); err != nil {
		t.Fatal(err)
	}

	out := p.Bytes()
	if len(out) != 6+bitmap.HeaderLen+15000 {
		t.Fatalf("wrote %d bytes", len(out))
	}

	// x1=399 y1=299 in the 10-bit fields, then the command code
	if want := []byte{0x00, 0x00, 0x06, 0x3D, 0x2B, DrawBitmap}; !bytes.Equal(out[:6], want) {
		t.Fatalf("command % X, want % X", out[:6], want)
	}
	if want := []byte{0x90, 0x01, 0x2C, 0x01}; !bytes.Equal(out[6:10], want) {
		t.Fatalf("header % X", out[6:10])
	}
}

func TestDrawContainerOverflow(t *testing.T) {
	dev := New(&port{}, 200, 200, zap.NewNop())
	for _, c := range []*bitmap.Container{
		{Width: 201, Height: 1},
		{Width: 1, Height: 201},
	} {
		if err := dev.DrawContainer(c); err == nil {
			t.Fatalf("%dx%d accepted", c.Width, c.Height)
		}
	}
}

func TestCommands(t *testing.T) {
	p := &port{}
	dev := New(p, 400, 300, zap.NewNop())

	for _, fn := range []func() error{dev.Startup, dev.Clear, dev.Shutdown} {
		if err := fn(); err != nil {
			t.Fatal(err)
		}
	}

	out := p.Bytes()
	if len(out) != 18 || out[5] != Startup || out[11] != Clear || out[17] != Shutdown {
		t.Fatalf("got % X", out)
	}
}
