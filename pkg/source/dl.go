package source

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

func NewDownloader(logger *zap.Logger, progress bool) *Downloader {
	return &Downloader{
		cli:      resty.New().SetDoNotParseResponse(true).SetTimeout(time.Minute),
		log:      logger.With(zap.String("via", "downloader")),
		progress: progress,
	}
}

// Downloader fetches source images over HTTP.
type Downloader struct {
	cli      *resty.Client
	log      *zap.Logger
	progress bool
}

// Name derives a file name from the last path element of u.
func Name(u string) string {
	p, err := url.Parse(u)
	if err != nil || path.Base(p.Path) == "/" || path.Base(p.Path) == "." {
		return "download"
	}
	return path.Base(p.Path)
}

func (d *Downloader) Get(u string) ([]byte, error) {
	resp, err := d.cli.R().Get(u)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.RawBody().Close()
	}()

	if resp.IsError() {
		return nil, fmt.Errorf("download %s: %s", u, resp.Status())
	}

	var w io.Writer
	var buf bytes.Buffer
	w = &buf
	if d.progress {
		bar := progressbar.DefaultBytes(resp.RawResponse.ContentLength, fmt.Sprintf("Downloading %s", u))
		w = io.MultiWriter(&buf, bar)
	}

	if _, err := io.Copy(w, resp.RawBody()); err != nil {
		return nil, err
	}

	d.log.With(zap.String("url", u), zap.Int("bytes", buf.Len())).Debug("downloaded")
	return buf.Bytes(), nil
}
