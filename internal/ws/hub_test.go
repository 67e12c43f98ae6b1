package ws

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishEncodesEvent(t *testing.T) {
	h := NewHub(slog.Default())
	h.Publish(Event{Type: "stock_update", Action: "sale_created", Message: "sold"})

	select {
	case msg := <-h.Broadcast:
		var got Event
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, "stock_update", got.Type)
		assert.Equal(t, "sale_created", got.Action)
		assert.Equal(t, "sold", got.Message)
	case <-time.After(time.Second):
		t.Fatal("event was not broadcast")
	}
}

func TestDiscardDropsEvents(t *testing.T) {
	assert.NotPanics(t, func() { Discard.Publish(Event{Type: "x"}) })
}

func TestRegisterCountsClients(t *testing.T) {
	h := NewHub(slog.Default())
	go h.Run()

	h.Register <- &websocket.Conn{}
	h.Register <- &websocket.Conn{}

	assert.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 10*time.Millisecond)
}
