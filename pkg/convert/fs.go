package convert

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"epdbin/pkg/bitmap"
)

var ErrBadName = errors.New("invalid file name")

// Dirs are the three working directories of a workspace.
type Dirs struct {
	Upload    string
	Processed string
	Zipped    string
}

func (d Dirs) all() []string {
	return []string{d.Upload, d.Processed, d.Zipped}
}

// Ensure creates any missing directory.
func (d Dirs) Ensure(fs afero.Fs) error {
	for _, dir := range d.all() {
		if dir == "" {
			return errors.New("empty directory in workspace config")
		}
		if exists, err := afero.DirExists(fs, dir); err != nil {
			return err
		} else if !exists {
			if err2 := fs.MkdirAll(dir, 0755); err2 != nil {
				return fmt.Errorf("create %s failed: %w", dir, err2)
			}
		}
	}
	return nil
}

// NewWorkspace checks dirs on fs and returns a workspace rooted there.
func NewWorkspace(fs afero.Fs, dirs Dirs, conv *Converter, logger *zap.Logger, opts ...WorkspaceOption) (*Workspace, error) {
	if err := dirs.Ensure(fs); err != nil {
		return nil, fmt.Errorf("prepare workspace failed: %w", err)
	}

	w := &Workspace{
		fs:   fs,
		dirs: dirs,
		conv: conv,
		log:  logger.With(zap.String("via", "workspace")),
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

type WorkspaceOption func(w *Workspace)

// WithProgress draws a progress bar for batches.
func WithProgress(on bool) WorkspaceOption {
	return func(w *Workspace) {
		w.progress = on
	}
}

// WithClock replaces time.Now for bundle naming.
func WithClock(now func() time.Time) WorkspaceOption {
	return func(w *Workspace) {
		w.now = now
	}
}

// Workspace converts files between its upload and processed directories.
type Workspace struct {
	fs       afero.Fs
	dirs     Dirs
	conv     *Converter
	log      *zap.Logger
	now      func() time.Time
	progress bool

	// held while picking a free name and writing to it
	mu sync.Mutex
}

func (w *Workspace) Dirs() Dirs {
	return w.dirs
}

func (w *Workspace) Converter() *Converter {
	return w.conv
}

func cleanName(name string) (string, error) {
	base := path.Base(filepath.ToSlash(name))
	if base == "." || base == "/" || base == ".." || strings.HasPrefix(base, ".") {
		return "", errors.Wrapf(ErrBadName, "%q", name)
	}
	return base, nil
}

// freeName returns name, or name with a unique suffix when dir already
// holds a file of that name.
func (w *Workspace) freeName(dir, name string) (string, error) {
	exists, err := afero.Exists(w.fs, filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if !exists {
		return name, nil
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s-%s%s", strings.TrimSuffix(name, ext), xid.New().String(), ext), nil
}

// Save stores an upload and returns the name it was stored under. An
// existing file of the same name is kept and the new one gets a unique
// suffix.
func (w *Workspace) Save(name string, r io.Reader) (string, error) {
	base, err := cleanName(name)
	if err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	base, err = w.freeName(w.dirs.Upload, base)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(w.dirs.Upload, base)

	if err := writeFile(w.fs, dst, func(f io.Writer) error {
		_, err := io.Copy(f, r)
		return err
	}); err != nil {
		return "", fmt.Errorf("save upload failed: %w", err)
	}

	return base, nil
}

// ConvertFile converts Upload/name into Processed/<stem>.bin, or
// <stem>-<id>.bin when that name is taken, and returns the name written.
func (w *Workspace) ConvertFile(name string) (string, *bitmap.Container, error) {
	base, err := cleanName(name)
	if err != nil {
		return "", nil, err
	}

	src, err := w.fs.Open(filepath.Join(w.dirs.Upload, base))
	if err != nil {
		return "", nil, err
	}
	defer func() {
		_ = src.Close()
	}()

	ct, err := w.conv.Source(base, src)
	if err != nil {
		return "", nil, err
	}

	w.mu.Lock()
	out, err := w.freeName(w.dirs.Processed, BinName(base))
	if err == nil {
		err = writeFile(w.fs, filepath.Join(w.dirs.Processed, out), func(f io.Writer) error {
			_, err := ct.WriteTo(f)
			return err
		})
	}
	w.mu.Unlock()
	if err != nil {
		return "", nil, fmt.Errorf("write %s failed: %w", BinName(base), err)
	}

	w.log.With(
		zap.String("src", base),
		zap.String("dst", out),
		zap.String("size", bytesize.New(float64(ct.Len())).String()),
	).Debug("saved")

	return out, ct, nil
}

// Scan lists upload files with a supported extension, or one of exts when
// given.
func (w *Workspace) Scan(exts ...string) ([]string, error) {
	infos, err := afero.ReadDir(w.fs, w.dirs.Upload)
	if err != nil {
		return nil, err
	}

	files := lo.Filter(infos, func(fi os.FileInfo, _ int) bool {
		if fi.IsDir() {
			return false
		}
		if len(exts) == 0 {
			return Supported(fi.Name())
		}
		return lo.Contains(exts, strings.ToLower(filepath.Ext(fi.Name())))
	})

	return lo.Map(files, func(fi os.FileInfo, _ int) string {
		return fi.Name()
	}), nil
}

// OpenProcessed opens a converted container for reading.
func (w *Workspace) OpenProcessed(name string) (afero.File, error) {
	return w.open(w.dirs.Processed, name)
}

// OpenZipped opens a bundle for reading.
func (w *Workspace) OpenZipped(name string) (afero.File, error) {
	return w.open(w.dirs.Zipped, name)
}

func (w *Workspace) open(dir, name string) (afero.File, error) {
	base, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	if base != name {
		return nil, errors.Wrapf(ErrBadName, "%q", name)
	}
	return w.fs.Open(filepath.Join(dir, base))
}

// writeFile creates path, lets fill write it and closes it. A partial file
// is removed when anything fails.
func writeFile(fs afero.Fs, name string, fill func(io.Writer) error) (err error) {
	f, err := fs.Create(name)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = fs.Remove(name)
		}
	}()

	return fill(f)
}
