package logger

import (
	"go.uber.org/zap"
)

// New returns a development logger at debug level, or a production one.
func New(debug bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)

	if debug {
		l, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		l, err = cfg.Build()
	}

	if err != nil {
		return zap.NewNop()
	}
	return l
}
