package remote

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"epdbin/pkg/bitmap"
	"epdbin/pkg/device/virtual"
)

func TestProxyRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	mock := virtual.Mock(zap.NewNop(), fs)

	h, err := Handler(mock)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(h)
	defer srv.Close()

	dev, err := New(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	defer dev.(*Client).Close()

	if err := dev.Startup(); err != nil {
		t.Fatal(err)
	}

	c := &bitmap.Container{Width: 3, Height: 3, Header: true, Payload: []byte{0x01, 0xFE}}
	if err := dev.DrawContainer(c); err != nil {
		t.Fatal(err)
	}

	got, err := afero.ReadFile(fs, "frame-1.bin")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, c.Bytes()) {
		t.Fatalf("got % X, want % X", got, c.Bytes())
	}

	bad := &bitmap.Container{Width: 8, Height: 8, Payload: []byte{0x00}}
	if err := dev.DrawContainer(bad); err == nil {
		t.Fatal("short payload accepted")
	}

	if err := dev.Clear(); err != nil {
		t.Fatal(err)
	}
	if mock.Last() != nil {
		t.Fatal("clear kept the last frame")
	}
}
