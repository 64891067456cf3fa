package proto

import (
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

type Options struct {
	DTR         bool
	RTS         bool
	BaudRate    int
	ReadTimeout time.Duration
}

// Port is the byte stream a device speaks over.
type Port interface {
	io.ReadWriteCloser
}

func NewSerial(name string) *Serial {
	return &Serial{name: name}
}

// Serial matches the first system port whose name contains name.
type Serial struct {
	name string
	port serial.Port
}

func (s *Serial) Ports() ([]string, error) {
	return serial.GetPortsList()
}

func (s *Serial) Open(opts *Options) error {
	ports, err := s.Ports()
	if err != nil {
		return err
	}

	var matched string
	for _, name := range ports {
		if strings.Contains(name, s.name) {
			matched = name
			break
		}
	}
	if matched == "" {
		return errors.New("USB port not found")
	}

	port, err := serial.Open(matched, &serial.Mode{BaudRate: opts.BaudRate})
	if err != nil {
		return err
	}

	if err := port.SetDTR(opts.DTR); err != nil {
		_ = port.Close()
		return err
	}

	if err := port.SetRTS(opts.RTS); err != nil {
		_ = port.Close()
		return err
	}

	if opts.ReadTimeout > 0 {
		if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
			_ = port.Close()
			return err
		}
	}

	s.port = port
	return nil
}

func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}

func (s *Serial) Read(p []byte) (n int, err error) {
	return s.port.Read(p)
}

func (s *Serial) Write(p []byte) (n int, err error) {
	return s.port.Write(p)
}
