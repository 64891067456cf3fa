package virtual

import (
	"fmt"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"epdbin/pkg/bitmap"
	"epdbin/pkg/proto"
)

// Mock logs every call. When fs is not nil each drawn container is also
// written there as frame-<n>.bin.
func Mock(logger *zap.Logger, fs afero.Fs) *Mocker {
	return &Mocker{l: logger, fs: fs}
}

var _ proto.Control = (*Mocker)(nil)

type Mocker struct {
	l  *zap.Logger
	fs afero.Fs

	mu    sync.Mutex
	drawn int
	last  *bitmap.Container
}

func (m *Mocker) Startup() error {
	m.l.Info("startup")
	return nil
}

func (m *Mocker) Shutdown() error {
	m.l.Info("shutdown")
	return nil
}

func (m *Mocker) Clear() error {
	m.l.Info("clear")
	m.mu.Lock()
	m.last = nil
	m.mu.Unlock()
	return nil
}

func (m *Mocker) DrawContainer(c *bitmap.Container) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.drawn++
	m.last = c

	log := m.l.With(
		zap.Int("w", c.Width),
		zap.Int("h", c.Height),
		zap.Int("bytes", c.Len()),
	)

	if m.fs != nil {
		name := fmt.Sprintf("frame-%d.bin", m.drawn)
		if err := afero.WriteFile(m.fs, name, c.Bytes(), 0644); err != nil {
			return err
		}
		log = log.With(zap.String("file", name))
	}

	log.Info("draw-container")
	return nil
}

// Last returns the most recently drawn container, nil after Clear.
func (m *Mocker) Last() *bitmap.Container {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
