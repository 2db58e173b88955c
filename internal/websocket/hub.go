// Package websocket pushes display changes to every open page so a tab
// that did not submit still sees controls lock and results land.
package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"pdfqa/internal/controller"
)

const (
	writeWait = 5 * time.Second

	// updates queued per connection before it counts as too slow
	sendBuffer = 16
)

// Origin is checked by the upgrader's same-host default.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Update is the live part of the display. Notifications and the inputs a
// user may be typing into are left to page loads.
type Update struct {
	IndexLabel   string   `json:"index_label"`
	IndexPending bool     `json:"index_pending"`
	AskPending   bool     `json:"ask_pending"`
	Plan         string   `json:"plan"`
	Answer       string   `json:"answer"`
	Context      string   `json:"context"`
	SubQuestions []string `json:"sub_questions"`
}

func UpdateFrom(s controller.DisplayState) Update {
	items := s.SubQuestions
	if items == nil {
		items = []string{}
	}
	return Update{
		IndexLabel:   s.IndexLabel,
		IndexPending: s.IndexPending,
		AskPending:   s.AskPending,
		Plan:         s.Plan,
		Answer:       s.Answer,
		Context:      s.Context,
		SubQuestions: items,
	}
}

// client is one page connection. Only writePump writes to conn; version
// and last are guarded by the hub's mutex.
type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte

	version uint64
	last    []byte
}

type Hub struct {
	mu          sync.Mutex
	connections map[uuid.UUID]*client
	current     func() controller.DisplayState
}

// NewHub builds a hub; current supplies the state sent on connect.
func NewHub(current func() controller.DisplayState) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*client),
		current:     current,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &client{id: uuid.New(), conn: conn, send: make(chan []byte, sendBuffer)}
	h.registerConnection(c)

	go h.writePump(c)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// registerConnection reads the current state under h.mu so a Publish racing
// the connect is either already in that state or delivered after it.
func (h *Hub) registerConnection(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state := h.current()

	h.connections[c.id] = c
	c.version = state.Version
	if data, err := json.Marshal(UpdateFrom(state)); err == nil {
		c.last = data
		c.send <- data
	}

	logrus.WithFields(logrus.Fields{"conn": c.id, "total": len(h.connections)}).Debug("websocket connected")
}

func (h *Hub) unregisterConnection(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

// drop must be called with h.mu held. Closing send tells writePump to close
// the connection; calling it twice is harmless.
func (h *Hub) drop(c *client) {
	if _, ok := h.connections[c.id]; !ok {
		return
	}
	delete(h.connections, c.id)
	close(c.send)

	logrus.WithField("conn", c.id).Debug("websocket disconnected")
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logrus.WithField("conn", c.id).WithError(err).Debug("websocket write failed")
			h.unregisterConnection(c)
			return
		}
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Publish queues the live part of s for every connection and never blocks.
// A connection skips snapshots no newer than what it already has and
// repeats of its last update; a connection with a full queue is dropped.
func (h *Hub) Publish(s controller.DisplayState) {
	data, err := json.Marshal(UpdateFrom(s))
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.connections {
		if s.Version <= c.version {
			continue
		}
		c.version = s.Version
		if string(data) == string(c.last) {
			continue
		}
		c.last = data

		select {
		case c.send <- data:
		default:
			logrus.WithField("conn", c.id).Warn("websocket client too slow, dropping")
			h.drop(c)
		}
	}
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.connections {
		h.drop(c)
	}
}

func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}
