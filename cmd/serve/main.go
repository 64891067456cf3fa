package main

import (
	"context"
	"log"
	"net/http"

	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"epdbin/internal/config"
	"epdbin/internal/device"
	"epdbin/internal/logger"
	"epdbin/internal/server"
	"epdbin/pkg/bot"
	"epdbin/pkg/convert"
	"epdbin/pkg/device/remote"
	"epdbin/pkg/proto"
)

var cfgPath = flag.String("config", "", "config file (default ~/.epdbin/config.toml)")
var proxy = flag.String("proxy-listen", "", "also expose the panel over rpc on this addr")

func main() {
	cfg := config.DefaultConfig()
	config.BindCodec(flag.CommandLine, &cfg)
	config.BindDirs(flag.CommandLine, &cfg)
	config.BindDevice(flag.CommandLine, &cfg)
	flag.StringVar(&cfg.Listen, "listen", cfg.Listen, "listen addr")
	flag.StringVar(&cfg.TgToken, "tg-token", cfg.TgToken, "telegram bot token")
	flag.Parse()

	if err := config.Load(flag.CommandLine, &cfg, *cfgPath, *cfgPath != ""); err != nil {
		log.Fatal(err)
	}

	fx.New(
		fx.Supply(&cfg),
		fx.Provide(
			func(cfg *config.Config) *zap.Logger {
				return logger.New(cfg.Debug)
			},
			func() afero.Fs {
				return afero.NewOsFs()
			},
			func(cfg *config.Config, logger *zap.Logger) (*convert.Converter, error) {
				opts, err := cfg.ConverterOptions()
				if err != nil {
					return nil, err
				}
				return convert.New(cfg.Width, cfg.Height, logger, opts...), nil
			},
			func(cfg *config.Config, fs afero.Fs, conv *convert.Converter, logger *zap.Logger) (*convert.Workspace, error) {
				return convert.NewWorkspace(fs, cfg.Dirs, conv, logger)
			},
			func(cfg *config.Config, lifecycle fx.Lifecycle, logger *zap.Logger) (proto.Control, error) {
				dev, err := device.Open(cfg, afero.NewBasePathFs(afero.NewOsFs(), cfg.Dirs.Processed), logger)
				if err != nil {
					return nil, err
				}
				lifecycle.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return dev.Startup()
					},
					OnStop: func(ctx context.Context) error {
						return dev.Shutdown()
					},
				})
				return dev, nil
			},
			server.New,
			func(cfg *config.Config) *http.Server {
				return &http.Server{Addr: cfg.Listen}
			},
		),
		fx.Invoke(
			server.Serve,
			runBot,
			runProxy,
		),
	).Run()
}

func runBot(cfg *config.Config, conv *convert.Converter, dev proto.Control, lifecycle fx.Lifecycle, logger *zap.Logger) error {
	if cfg.TgToken == "" {
		return nil
	}
	b, err := bot.NewBot(cfg.TgToken, conv, dev, logger)
	if err != nil {
		return err
	}
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			b.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			b.Stop()
			return nil
		},
	})
	return nil
}

func runProxy(dev proto.Control, lifecycle fx.Lifecycle, logger *zap.Logger) error {
	if *proxy == "" {
		return nil
	}
	return remote.Proxy(dev, &http.Server{Addr: *proxy}, lifecycle, logger.With(zap.String("via", "rpc")))
}
