package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Event is the JSON envelope pushed to every connected client after a
// committed change.
type Event struct {
	Type    string      `json:"type"`
	Action  string      `json:"action"`
	Data    interface{} `json:"data,omitempty"`
	User    string      `json:"user,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Publisher is implemented by Hub; services depend on this instead of the hub.
type Publisher interface {
	Publish(event Event)
}

type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			clients := len(h.Clients)
			h.mutex.Unlock()
			h.log.Debug("ws client connected", "clients", clients)

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// ClientCount reports how many sockets are registered.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

// Publish encodes event and hands it to the broadcast loop without
// blocking the caller.
func (h *Hub) Publish(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.log.Error("ws event encode failed", "type", event.Type, "action", event.Action, "error", err)
		return
	}
	go func() {
		h.Broadcast <- msg
	}()
}

type discard struct{}

func (discard) Publish(Event) {}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}
