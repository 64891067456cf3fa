package device

import (
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"epdbin/internal/config"
	"epdbin/pkg/bitmap"
	"epdbin/pkg/device/gallery"
	"epdbin/pkg/device/virtual"
)

func TestOpenVirtual(t *testing.T) {
	cfg := config.DefaultConfig()
	fs := afero.NewMemMapFs()

	dev, err := Open(&cfg, fs, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dev.(*virtual.Mocker); !ok {
		t.Fatalf("got %T", dev)
	}

	c := &bitmap.Container{Width: 8, Height: 1, Header: true, Payload: []byte{0x0F}}
	if err := dev.DrawContainer(c); err != nil {
		t.Fatal(err)
	}
	if ok, _ := afero.Exists(fs, "frame-1.bin"); !ok {
		t.Fatal("frame not written")
	}
}

func TestOpenGallery(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Device = "gallery"
	cfg.Host = "192.168.4.1"

	dev, err := Open(&cfg, afero.NewMemMapFs(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dev.(*gallery.Gallery); !ok {
		t.Fatalf("got %T", dev)
	}
}

func TestOpenUnknown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Device = "usb"
	if _, err := Open(&cfg, afero.NewMemMapFs(), zap.NewNop()); err == nil {
		t.Fatal("expected error")
	}
}
