package bitmap

import (
	"github.com/pkg/errors"
)

var (
	ErrDecode            = errors.New("image decode failed")
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrSizeMismatch      = errors.New("frame size mismatch")
	ErrEncoding          = errors.New("unexpected pixel level")
)
