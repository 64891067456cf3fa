// Package epd talks to the e-paper firmware over a serial link.
package epd

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"epdbin/pkg/bitmap"
	"epdbin/pkg/proto"
)

const (
	Shutdown   = 108
	Startup    = 109
	Clear      = 111
	DrawBitmap = 197
)

// maxCoord is the largest value a 10-bit command field carries.
const maxCoord = 1<<10 - 1

// Open opens the matched serial port and returns a panel of the given size.
func Open(serial *proto.Serial, width, height int, logger *zap.Logger) (proto.Control, error) {
	if err := serial.Open(&proto.Options{
		DTR:         true,
		RTS:         true,
		BaudRate:    115200,
		ReadTimeout: 10 * time.Millisecond,
	}); err != nil {
		return nil, err
	}
	return New(serial, width, height, logger), nil
}

func New(port proto.Port, width, height int, logger *zap.Logger) *EPD {
	return &EPD{
		port:   port,
		logger: logger,
		width:  width,
		height: height,
	}
}

type EPD struct {
	port   proto.Port
	logger *zap.Logger
	width  int
	height int
}

func (e *EPD) Startup() error {
	return e.sendCMD(Startup)
}

func (e *EPD) Shutdown() error {
	return e.sendCMD(Shutdown)
}

func (e *EPD) Clear() error {
	return e.sendCMD(Clear)
}

// DrawContainer announces the frame window, then streams the container
// bytes exactly as they would be stored on the card.
func (e *EPD) DrawContainer(c *bitmap.Container) error {
	if c.Width > e.width {
		return errors.New("width overflow")
	} else if c.Height > e.height {
		return errors.New("height overflow")
	}
	if c.Width-1 > maxCoord || c.Height-1 > maxCoord {
		return errors.New("frame exceeds command range")
	}

	if err := e.sendCMD(DrawBitmap, 0, 0, c.Width-1, c.Height-1); err != nil {
		return err
	}

	return e.sendBytes(c.Bytes())
}

func (e *EPD) Close() error {
	return e.port.Close()
}
