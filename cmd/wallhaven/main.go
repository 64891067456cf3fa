package main

import (
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"epdbin/internal/config"
	"epdbin/internal/device"
	"epdbin/internal/logger"
	"epdbin/pkg/convert"
	"epdbin/pkg/source"
)

var cfgPath = flag.String("config", "", "config file (default ~/.epdbin/config.toml)")
var interval = flag.String("interval", "30m", "draw interval")
var retry = flag.String("retry", "1m", "wait after a failed draw")
var whCategory = flag.String("wh-category", "", "wallhaven category names")
var whPurity = flag.String("wh-purity", "", "wallhaven purity levels")
var whRandom = flag.Bool("wh-random", false, "wallhaven random sort")
var whRatio = flag.String("wh-ratio", "", "wallhaven ratio filter")

func main() {
	cfg := config.DefaultConfig()
	config.BindCodec(flag.CommandLine, &cfg)
	config.BindDevice(flag.CommandLine, &cfg)
	flag.StringVar(&cfg.WhKey, "wh-key", cfg.WhKey, "wallhaven api key")
	flag.StringVar(&cfg.WhQuery, "wh-query", cfg.WhQuery, "wallhaven query string")
	flag.StringVar(&cfg.WhToplist, "wh-toplist", cfg.WhToplist, "wallhaven toplist range")
	flag.Parse()

	if err := config.Load(flag.CommandLine, &cfg, *cfgPath, *cfgPath != ""); err != nil {
		log.Fatal(err)
	}

	changeWait, err := time.ParseDuration(*interval)
	if err != nil {
		log.Fatal(err)
	}
	errorWait, err := time.ParseDuration(*retry)
	if err != nil {
		log.Fatal(err)
	}

	logger := logger.New(cfg.Debug)

	opts, err := cfg.ConverterOptions()
	if err != nil {
		log.Fatal(err)
	}
	conv := convert.New(cfg.Width, cfg.Height, logger, opts...)

	dev, err := device.Open(&cfg, afero.NewOsFs(), logger)
	if err != nil {
		log.Fatal(err)
	}

	if err := dev.Startup(); err != nil {
		log.Fatal(err)
	}

	wh := source.NewWallhaven(cfg.WhKey, source.Query{
		Keywords: cfg.WhQuery,
		Category: *whCategory,
		Purity:   *whPurity,
		Ratio:    *whRatio,
		Toplist:  cfg.WhToplist,
		Random:   *whRandom,
	}, logger)

	drawing := func() error {
		img, url, err := wh.Pick()
		if err != nil {
			return err
		}
		ct, err := conv.Picture(img)
		if err != nil {
			return err
		}
		logger.With(zap.String("url", url), zap.Int("bytes", ct.Len())).Info("drawing")
		return dev.DrawContainer(ct)
	}

	shutdown := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		timer := time.NewTimer(time.Nanosecond)

		defer func() {
			timer.Stop()
			if err := dev.Shutdown(); err != nil {
				logger.With(zap.Error(err)).Info("shutdown failed")
			}
			if cl, ok := dev.(io.Closer); ok {
				_ = cl.Close()
			}
			exited <- struct{}{}
		}()

		for {
			select {
			case <-shutdown:
				return
			case <-timer.C:
				if err := drawing(); err != nil {
					logger.With(zap.Error(err)).Info("drawing failed")
					timer.Reset(errorWait)
				} else {
					timer.Reset(changeWait)
				}
			}
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	<-signals
	logger.Info("shutting down")
	shutdown <- struct{}{}
	<-exited
	logger.Info("exited")
}
