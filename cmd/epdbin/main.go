package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"epdbin/internal/config"
	"epdbin/internal/device"
	"epdbin/internal/logger"
	"epdbin/pkg/bitmap"
	"epdbin/pkg/convert"
	"epdbin/pkg/device/gallery"
	"epdbin/pkg/source"
	"epdbin/pkg/watch"
)

var exampleUsage = strings.TrimSpace(`
  epdbin convert photo.jpg logo.xbm -o out/
  epdbin convert https://example.com/cat.png
  epdbin convert photo.png --policy legacy --width 296 --height 128
  epdbin batch --upload-dir uploaded_files --zip
  epdbin push photo.jpg --device gallery --host 192.168.4.1
  epdbin clock --device gallery --host 192.168.4.1
`)

type app struct {
	cfg     config.Config
	cfgPath string
	log     *zap.Logger
	conv    *convert.Converter
	fs      afero.Fs
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.Load(cmd.Flags(), &a.cfg, a.cfgPath, a.cfgPath != ""); err != nil {
		return err
	}

	a.log = logger.New(a.cfg.Debug)

	opts, err := a.cfg.ConverterOptions()
	if err != nil {
		return err
	}
	a.conv = convert.New(a.cfg.Width, a.cfg.Height, a.log, opts...)
	a.fs = afero.NewOsFs()
	return nil
}

func (a *app) workspace(progress bool) (*convert.Workspace, error) {
	return convert.NewWorkspace(a.fs, a.cfg.Dirs, a.conv, a.log, convert.WithProgress(progress))
}

func isURL(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// source converts the file or http(s) URL at p, forcing the text parser
// when text is set.
func (a *app) source(p string, text bool) (*bitmap.Container, error) {
	if isURL(p) {
		bs, err := source.NewDownloader(a.log, true).Get(p)
		if err != nil {
			return nil, err
		}
		if text {
			return a.conv.Text(bytes.NewReader(bs))
		}
		return a.conv.Source(source.Name(p), bytes.NewReader(bs))
	}

	f, err := a.fs.Open(p)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	if text {
		return a.conv.Text(f)
	}
	return a.conv.Source(filepath.Base(p), f)
}

func (a *app) write(dir, src string, c *bitmap.Container) (string, error) {
	name := filepath.Base(src)
	if isURL(src) {
		name = source.Name(src)
	}
	dst := filepath.Join(dir, convert.BinName(name))
	if err := a.fs.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	if err := afero.WriteFile(a.fs, dst, c.Bytes(), 0644); err != nil {
		return "", err
	}
	return dst, nil
}

func (a *app) convertCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "convert FILE...",
		Short: "Convert images or .xbm text bitmaps into .bin containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, p := range args {
				c, err := a.source(p, false)
				if err == nil {
					var dst string
					if dst, err = a.write(out, p, c); err == nil {
						fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d bytes)\n", p, dst, c.Len())
						continue
					}
				}
				failed++
				a.log.With(zap.String("src", p), zap.Error(err)).Error("convert failed")
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory")
	return cmd
}

func (a *app) xbmCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "xbm FILE",
		Short: "Parse a C-style text bitmap regardless of its extension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.source(args[0], true)
			if err != nil {
				return err
			}
			if out == "-" {
				_, err := c.WriteTo(cmd.OutOrStdout())
				return err
			}
			dst, err := a.write(out, args[0], c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%dx%d)\n", args[0], dst, c.Width, c.Height)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory, - for stdout")
	return cmd
}

func (a *app) batchCmd() *cobra.Command {
	var bundle bool
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Convert every supported file in the upload directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.workspace(true)
			if err != nil {
				return err
			}
			names, err := ws.Scan()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "nothing to convert in %s\n", ws.Dirs().Upload)
				return nil
			}

			report := ws.Batch(names)
			for _, f := range report.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %s\n", f.Name, f.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "converted %d, failed %d\n", len(report.Converted), len(report.Failed))

			if bundle && len(report.Converted) > 0 {
				name, err := ws.Bundle(report.Converted)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(ws.Dirs().Zipped, name))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&bundle, "zip", false, "bundle the results into a zip archive")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Convert files as they appear in the upload directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.workspace(false)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := watch.New(ws.Dirs().Upload, watch.WorkspaceConverter{Workspace: ws}, a.log)
			return w.Run(ctx)
		},
	}
}

func (a *app) pushCmd() *cobra.Command {
	var wipe bool
	cmd := &cobra.Command{
		Use:   "push FILE",
		Short: "Convert a file and draw it on the panel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.source(args[0], false)
			if err != nil {
				return err
			}

			dev, err := device.Open(&a.cfg, a.fs, a.log)
			if err != nil {
				return err
			}
			if cl, ok := dev.(io.Closer); ok {
				defer func() {
					_ = cl.Close()
				}()
			}

			if err := dev.Startup(); err != nil {
				return err
			}
			if wipe {
				if err := dev.Clear(); err != nil {
					return err
				}
			}
			if g, ok := dev.(*gallery.Gallery); ok {
				name := filepath.Base(args[0])
				if isURL(args[0]) {
					name = source.Name(args[0])
				}
				return g.Upload(convert.BinName(name), c)
			}
			return dev.DrawContainer(c)
		},
	}
	config.BindDevice(cmd.Flags(), &a.cfg)
	cmd.Flags().BoolVar(&wipe, "clear", false, "clear the panel before drawing")
	return cmd
}

func (a *app) clockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clock [\"YYYY-MM-DD HH:MM:SS\"]",
		Short: "Set the gallery board clock, to local time when no time is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if len(args) == 1 {
				t, err := time.ParseInLocation(gallery.TimeLayout, args[0], time.Local)
				if err != nil {
					return err
				}
				now = t
			}

			dev, err := device.Open(&a.cfg, a.fs, a.log)
			if err != nil {
				return err
			}
			g, ok := dev.(*gallery.Gallery)
			if !ok {
				return fmt.Errorf("device %q has no clock", a.cfg.Device)
			}
			return g.SetTime(now)
		},
	}
	config.BindDevice(cmd.Flags(), &a.cfg)
	return cmd
}

func (a *app) previewCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Render what the panel will show as a PNG",
		Long:  "FILE may be a source image, a text bitmap or a canonical .bin container.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var c *bitmap.Container
			var err error
			if strings.EqualFold(filepath.Ext(args[0]), ".bin") {
				var bs []byte
				if bs, err = afero.ReadFile(a.fs, args[0]); err == nil {
					c, err = bitmap.ParseContainer(bs)
				}
			} else {
				c, err = a.source(args[0], false)
			}
			if err != nil {
				return err
			}

			frame, err := c.Unpack()
			if err != nil {
				return err
			}
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".preview.png"
			}
			if err := imaging.Save(frame, out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output PNG path")
	return cmd
}

func main() {
	a := &app{cfg: config.DefaultConfig()}

	root := &cobra.Command{
		Use:               "epdbin",
		Short:             "Convert images into packed 1-bit bitmaps for e-paper panels",
		Example:           exampleUsage,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "config file (default ~/.epdbin/config.toml)")
	config.BindCodec(pf, &a.cfg)
	config.BindDirs(pf, &a.cfg)

	root.AddCommand(
		a.convertCmd(),
		a.xbmCmd(),
		a.batchCmd(),
		a.watchCmd(),
		a.pushCmd(),
		a.clockCmd(),
		a.previewCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
