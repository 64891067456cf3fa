// Package watch converts files as they land in a workspace upload directory.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"epdbin/pkg/convert"
)

// Converter is the part of a workspace the watcher drives.
type Converter interface {
	ConvertFile(name string) (string, error)
}

// WorkspaceConverter adapts a *convert.Workspace.
type WorkspaceConverter struct {
	*convert.Workspace
}

func (w WorkspaceConverter) ConvertFile(name string) (string, error) {
	out, _, err := w.Workspace.ConvertFile(name)
	return out, err
}

func New(dir string, conv Converter, logger *zap.Logger) *Watcher {
	return &Watcher{
		dir:     dir,
		conv:    conv,
		log:     logger.With(zap.String("via", "watcher"), zap.String("dir", dir)),
		settle:  500 * time.Millisecond,
		pending: make(map[string]time.Time),
	}
}

// Watcher waits until a file has been quiet for the settle delay before
// converting it, so half-written uploads are not decoded.
type Watcher struct {
	dir    string
	conv   Converter
	log    *zap.Logger
	settle time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
}

// SetSettle changes the quiet period.
func (w *Watcher) SetSettle(d time.Duration) {
	w.settle = d
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher failed: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s failed: %w", w.dir, err)
	}

	every := w.settle / 2
	if every <= 0 {
		every = time.Millisecond
	}
	tick := time.NewTicker(every)
	defer tick.Stop()

	w.log.Info("watching")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.observe(event, time.Now())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.With(zap.Error(err)).Info("watch error")
		case now := <-tick.C:
			w.flush(now)
		}
	}
}

func (w *Watcher) observe(event fsnotify.Event, now time.Time) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	name := filepath.Base(event.Name)
	if !convert.Supported(name) {
		return
	}

	w.mu.Lock()
	w.pending[name] = now
	w.mu.Unlock()
}

// flush converts every pending file that has settled by now and returns
// the names it handled.
func (w *Watcher) flush(now time.Time) []string {
	w.mu.Lock()
	var ready []string
	for name, seen := range w.pending {
		if now.Sub(seen) >= w.settle {
			ready = append(ready, name)
			delete(w.pending, name)
		}
	}
	w.mu.Unlock()

	for _, name := range ready {
		log := w.log.With(zap.String("src", name))
		if out, err := w.conv.ConvertFile(name); err != nil {
			log.With(zap.Error(err)).Info("convert failed")
		} else {
			log.With(zap.String("dst", out)).Info("converted")
		}
	}

	return ready
}
