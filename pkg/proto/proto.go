package proto

import (
	"epdbin/pkg/bitmap"
)

// Control drives an e-paper panel that renders bitmap containers.
type Control interface {
	Startup() error
	Shutdown() error
	Clear() error

	DrawContainer(c *bitmap.Container) error
}
