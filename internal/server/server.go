// Package server is the HTTP upload surface in front of a workspace.
package server

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"epdbin/pkg/bitmap"
	"epdbin/pkg/convert"
	"epdbin/pkg/xbm"
)

const maxUpload = 32 << 20

func New(ws *convert.Workspace, logger *zap.Logger) *Server {
	return &Server{ws: ws, log: logger.With(zap.String("via", "http"))}
}

type Server struct {
	ws  *convert.Workspace
	log *zap.Logger
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests())
	router.MaxMultipartMemory = maxUpload

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", s.health)
	router.POST("/convert", s.convert)
	router.POST("/preview", s.preview)
	router.GET("/download/:name", s.download(s.ws.OpenProcessed, "application/octet-stream"))
	router.GET("/download_zip/:name", s.download(s.ws.OpenZipped, "application/zip"))

	return router
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.With(
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
		).Debug("request")
	}
}

func (s *Server) health(c *gin.Context) {
	conv := s.ws.Converter()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"width":  conv.Width(),
		"height": conv.Height(),
	})
}

// status maps codec errors to HTTP codes; anything unknown is a 500.
func status(err error) int {
	switch {
	case errors.Is(err, convert.ErrBadName):
		return http.StatusBadRequest
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, bitmap.ErrDecode),
		errors.Is(err, bitmap.ErrInvalidDimensions),
		errors.Is(err, xbm.ErrMissingDimension),
		errors.Is(err, xbm.ErrEmptyPayload),
		errors.Is(err, xbm.ErrPayloadLengthMismatch):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

type failure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type convertResponse struct {
	Files  []string  `json:"files"`
	Zip    string    `json:"zip,omitempty"`
	Failed []failure `json:"failed,omitempty"`
	Error  string    `json:"error,omitempty"`
}

func (s *Server) saveUpload(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()
	return s.ws.Save(fh.Filename, f)
}

// convert stores every uploaded "file" part, converts it and bundles the
// results when more than one succeeded.
func (s *Server) convert(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded", "details": err.Error()})
		return
	}

	uploads := form.File["file"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	resp := convertResponse{Files: []string{}}
	var lastErr error
	for _, fh := range uploads {
		name, err := s.saveUpload(fh)
		if err == nil {
			var out string
			out, _, err = s.ws.ConvertFile(name)
			if err == nil {
				resp.Files = append(resp.Files, out)
				continue
			}
		}
		lastErr = err
		resp.Failed = append(resp.Failed, failure{Name: fh.Filename, Error: err.Error()})
	}

	if len(resp.Files) == 0 {
		c.JSON(status(lastErr), resp)
		return
	}

	if len(resp.Files) > 1 {
		zipName, err := s.ws.Bundle(resp.Files)
		if err != nil {
			// the converted files stay downloadable one by one
			resp.Error = err.Error()
			c.JSON(http.StatusInternalServerError, resp)
			return
		}
		resp.Zip = zipName
	}

	c.JSON(http.StatusOK, resp)
}

// preview converts a single upload and returns how the panel will render it.
func (s *Server) preview(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded", "details": err.Error()})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer func() {
		_ = f.Close()
	}()

	ct, err := s.ws.Converter().Source(fh.Filename, f)
	if err != nil {
		c.JSON(status(err), gin.H{"error": err.Error()})
		return
	}

	frame, err := ct.Unpack()
	if err != nil {
		c.JSON(status(err), gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) download(open func(string) (afero.File, error), contentType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		f, err := open(name)
		if err != nil {
			c.JSON(status(err), gin.H{"error": err.Error()})
			return
		}
		defer func() {
			_ = f.Close()
		}()

		fi, err := f.Stat()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.DataFromReader(http.StatusOK, fi.Size(), contentType, f, map[string]string{
			"Content-Disposition": `attachment; filename="` + name + `"`,
		})
	}
}

// Serve runs srv with the router for the lifetime of the fx app.
func Serve(s *Server, srv *http.Server, lifecycle fx.Lifecycle, logger *zap.Logger) {
	srv.Handler = s.Router()

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != http.ErrServerClosed {
					logger.With(zap.Error(err)).Fatal("http server stopped")
				}
			}()
			logger.With(zap.String("addr", srv.Addr)).Info("listening")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
