package gallery

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"epdbin/pkg/bitmap"
)

// board mimics the firmware's upload and clock forms.
type board struct {
	mu    sync.Mutex
	files map[string][]byte
	clock string
}

func newBoard(t *testing.T) (*board, *httptest.Server) {
	t.Helper()
	b := &board{files: make(map[string][]byte)}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>Clock Gallery Directory</html>")
	})
	mux.HandleFunc(uploadPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		f, fh, err := r.FormFile(uploadField)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		bs, _ := io.ReadAll(f)
		b.mu.Lock()
		b.files[fh.Filename] = bs
		b.mu.Unlock()
	})
	mux.HandleFunc(timePath, func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.clock = r.PostFormValue(timeField)
		b.mu.Unlock()
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func TestUpload(t *testing.T) {
	b, srv := newBoard(t)
	g := New(srv.URL, zap.NewNop())

	if err := g.Startup(); err != nil {
		t.Fatal(err)
	}

	c := &bitmap.Container{Width: 8, Height: 1, Header: true, Payload: []byte{0x0F}}
	if err := g.Upload("logo.bin", c); err != nil {
		t.Fatal(err)
	}
	if got := b.files["logo.bin"]; !bytes.Equal(got, []byte{0x08, 0x00, 0x01, 0x00, 0x0F}) {
		t.Fatalf("got % X", got)
	}

	if err := g.DrawContainer(c); err != nil {
		t.Fatal(err)
	}
	if len(b.files) != 2 {
		t.Fatalf("files %v", b.files)
	}
	for name := range b.files {
		if !strings.HasSuffix(name, ".bin") {
			t.Fatalf("name %q", name)
		}
	}
}

func TestUploadRejectsLegacy(t *testing.T) {
	b, srv := newBoard(t)
	g := New(srv.URL, zap.NewNop())

	c := &bitmap.Container{Width: 8, Height: 1, Policy: bitmap.Legacy, Payload: []byte{0xF0}}
	if err := g.Upload("old.bin", c); !errors.Is(err, bitmap.ErrEncoding) {
		t.Fatalf("got %v", err)
	}
	if len(b.files) != 0 {
		t.Fatal("legacy payload uploaded")
	}
}

func TestSetTime(t *testing.T) {
	b, srv := newBoard(t)
	g := New(strings.TrimPrefix(srv.URL, "http://"), zap.NewNop())

	if err := g.SetTime(time.Date(2024, 3, 9, 7, 5, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if b.clock != "2024-03-09 07:05:00" {
		t.Fatalf("clock %q", b.clock)
	}
}

func TestErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sd card missing", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := New(srv.URL, zap.NewNop())
	c := &bitmap.Container{Width: 8, Height: 1, Header: true, Payload: []byte{0x0F}}
	if err := g.Upload("logo.bin", c); err == nil {
		t.Fatal("expected upload error")
	}
	if err := g.Clear(); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("got %v", err)
	}
}
