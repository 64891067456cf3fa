package convert

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/rs/xid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Failure is a source that could not be converted.
type Failure struct {
	Name string
	Err  error
}

// Report summarizes a batch.
type Report struct {
	Converted []string
	Failed    []Failure
}

// Batch converts every name, skipping failed ones. Converted holds the
// output names in input order.
func (w *Workspace) Batch(names []string) *Report {
	r := &Report{}

	var bar *progressbar.ProgressBar
	if w.progress && len(names) > 0 {
		bar = progressbar.Default(int64(len(names)), "converting")
	}

	for _, name := range names {
		out, _, err := w.ConvertFile(name)
		if err != nil {
			w.log.With(zap.String("src", name), zap.Error(err)).Info("convert failed, skipping")
			r.Failed = append(r.Failed, Failure{Name: name, Err: err})
		} else {
			r.Converted = append(r.Converted, out)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	w.log.With(
		zap.Int("converted", len(r.Converted)),
		zap.Int("failed", len(r.Failed)),
	).Info("batch done")

	return r
}

// Bundle zips the named processed containers into the zipped directory and
// returns the archive name.
func (w *Workspace) Bundle(names []string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("nothing to bundle")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	name := fmt.Sprintf("converted_images_%d.zip", w.now().Unix())
	dst := filepath.Join(w.dirs.Zipped, name)
	if _, err := w.fs.Stat(dst); err == nil {
		name = fmt.Sprintf("converted_images_%d_%s.zip", w.now().Unix(), xid.New().String())
		dst = filepath.Join(w.dirs.Zipped, name)
	}

	err := writeFile(w.fs, dst, func(f io.Writer) error {
		zw := zip.NewWriter(f)
		for _, n := range names {
			if err := w.addToZip(zw, n); err != nil {
				_ = zw.Close()
				return err
			}
		}
		return zw.Close()
	})
	if err != nil {
		return "", fmt.Errorf("bundle failed: %w", err)
	}

	w.log.With(zap.String("zip", name), zap.Int("files", len(names))).Debug("bundled")
	return name, nil
}

func (w *Workspace) addToZip(zw *zip.Writer, name string) error {
	src, err := w.OpenProcessed(name)
	if err != nil {
		return err
	}
	defer func() {
		_ = src.Close()
	}()

	dst, err := zw.Create(name)
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)
	return err
}
