package bot

import (
	"testing"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"epdbin/pkg/bitmap"
	"epdbin/pkg/convert"
)

func TestRecallPerChat(t *testing.T) {
	tb, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatal(err)
	}
	b := &Bot{
		b:    tb,
		conv: convert.New(8, 1, zap.NewNop()),
		log:  zap.NewNop(),
		last: make(map[int64]*bitmap.Container),
	}

	if b.recall(1) != nil {
		t.Fatal("unexpected container")
	}

	c := &bitmap.Container{Width: 8, Height: 1, Header: true, Payload: []byte{0x0F}}
	b.remember(1, c)
	if b.recall(1) != c {
		t.Fatal("container not remembered")
	}
	if b.recall(2) != nil {
		t.Fatal("container leaked across chats")
	}

	b.handleConvert()
	b.handleDevice()
}
