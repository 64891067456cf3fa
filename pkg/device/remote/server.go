package remote

import (
	"context"
	"net/http"
	"net/rpc"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"epdbin/pkg/bitmap"
	"epdbin/pkg/proto"
)

// Handler serves dev over net/rpc on rpc.DefaultRPCPath.
func Handler(dev proto.Control) (http.Handler, error) {
	rs := rpc.NewServer()
	if err := rs.Register(&Service{dev: dev}); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, rs)
	return mux, nil
}

// Proxy exposes dev on srv for the lifetime of the fx app.
func Proxy(dev proto.Control, srv *http.Server, lifecycle fx.Lifecycle, logger *zap.Logger) error {
	h, err := Handler(dev)
	if err != nil {
		return err
	}
	srv.Handler = h

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != http.ErrServerClosed {
					logger.With(zap.Error(err)).Fatal("rpc proxy stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return nil
}

type Service struct {
	dev proto.Control
}

func (s *Service) Command(name string, _ *EmptyResponse) error {
	switch name {
	case "startup":
		return s.dev.Startup()
	case "shutdown":
		return s.dev.Shutdown()
	case "clear":
		return s.dev.Clear()
	}

	return errors.New("unknown command")
}

func (s *Service) DrawContainer(req *DrawContainerRequest, _ *EmptyResponse) error {
	c := &bitmap.Container{
		Width:   req.Width,
		Height:  req.Height,
		Policy:  bitmap.Policy(req.Policy),
		Header:  req.Header,
		Payload: req.Payload,
	}

	if want := bitmap.PayloadLen(c.Width, c.Height, c.Policy); len(c.Payload) != want {
		return errors.Wrapf(bitmap.ErrSizeMismatch, "%dx%d wants %d bytes, got %d", c.Width, c.Height, want, len(c.Payload))
	}

	return s.dev.DrawContainer(c)
}
