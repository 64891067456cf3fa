// Package bot converts images sent over Telegram and replies with the
// packed container.
package bot

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/inhies/go-bytesize"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"epdbin/pkg/bitmap"
	"epdbin/pkg/convert"
	"epdbin/pkg/proto"
)

// NewBot connects to Telegram. dev may be nil when no panel is attached.
func NewBot(token string, conv *convert.Converter, dev proto.Control, logger *zap.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token: token,
		Poller: &tele.LongPoller{
			Timeout: 30 * time.Second,
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	return &Bot{
		b:    b,
		conv: conv,
		dev:  dev,
		log:  logger.With(zap.String("via", "bot")),
		last: make(map[int64]*bitmap.Container),
	}, nil
}

type Bot struct {
	b    *tele.Bot
	conv *convert.Converter
	dev  proto.Control
	log  *zap.Logger

	mu   sync.Mutex
	last map[int64]*bitmap.Container
}

func (b *Bot) remember(chat int64, c *bitmap.Container) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last[chat] = c
}

func (b *Bot) recall(chat int64) *bitmap.Container {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last[chat]
}

func (b *Bot) fetch(file *tele.File) ([]byte, error) {
	rc, err := b.b.File(file)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rc.Close()
	}()
	return io.ReadAll(rc)
}

func (b *Bot) reply(context tele.Context, name string, data []byte) error {
	c, err := b.conv.Source(name, bytes.NewReader(data))
	if err != nil {
		return context.Reply(fmt.Sprintf("convert failed: %s", err))
	}

	b.remember(context.Chat().ID, c)

	return context.Reply(&tele.Document{
		File:     tele.FromReader(bytes.NewReader(c.Bytes())),
		FileName: convert.BinName(name),
		Caption: fmt.Sprintf("%dx%d, %s",
			c.Width, c.Height, bytesize.New(float64(c.Len())).String()),
	})
}

func (b *Bot) handleConvert() {
	b.b.Handle(tele.OnPhoto, func(context tele.Context) error {
		photo := context.Message().Photo
		data, err := b.fetch(&photo.File)
		if err != nil {
			return context.Reply(fmt.Sprintf("download failed: %s", err))
		}
		return b.reply(context, fmt.Sprintf("photo-%d.jpg", context.Message().ID), data)
	})

	b.b.Handle(tele.OnDocument, func(context tele.Context) error {
		doc := context.Message().Document
		if !convert.Supported(doc.FileName) {
			return context.Reply("unsupported file type")
		}
		data, err := b.fetch(&doc.File)
		if err != nil {
			return context.Reply(fmt.Sprintf("download failed: %s", err))
		}
		return b.reply(context, doc.FileName, data)
	})
}

func (b *Bot) handleDevice() {
	b.b.Handle("/size", func(context tele.Context) error {
		return context.Reply(fmt.Sprintf("%dx%d", b.conv.Width(), b.conv.Height()))
	})

	b.b.Handle("/push", func(context tele.Context) error {
		if b.dev == nil {
			return context.Reply("no device attached")
		}
		c := b.recall(context.Chat().ID)
		if c == nil {
			return context.Reply("nothing converted yet")
		}
		if err := b.dev.DrawContainer(c); err != nil {
			return context.Reply(fmt.Sprintf("push failed: %s", err))
		}
		return context.Reply("OK")
	})

	b.b.Handle("/clear", func(context tele.Context) error {
		if b.dev == nil {
			return context.Reply("no device attached")
		}
		if err := b.dev.Clear(); err != nil {
			return context.Reply(fmt.Sprintf("clear failed: %s", err))
		}
		return context.Reply("OK")
	})
}

func (b *Bot) Start() {
	b.handleConvert()
	b.handleDevice()
	b.log.Info("started")
	go b.b.Start()
}

func (b *Bot) Stop() {
	// telebot Stop waits for the pending long poll to return
	go b.b.Stop()
}
