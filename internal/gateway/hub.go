// Package gateway is the websocket adapter between the simulation core and
// the presentation process: input snapshots in, notification batches out.
// Strictly one-way in each direction; nothing here touches world state.
package gateway

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/valewood/simcore/internal/boundary"
	"go.uber.org/zap"
)

// Envelope wraps one notification for the wire with a type discriminator.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans notification batches out to connected presentation clients and
// feeds inbound input snapshots into the mailbox. Implements boundary.Sink.
type Hub struct {
	mailbox  *boundary.Mailbox
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}

	sendQueue int
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(mailbox *boundary.Mailbox, sendQueue int, log *zap.Logger) *Hub {
	if sendQueue <= 0 {
		sendQueue = 256
	}
	return &Hub{
		mailbox: mailbox,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:       log,
		clients:   make(map[*client]struct{}),
		sendQueue: sendQueue,
	}
}

// Publish marshals the batch once and fans it out. A client whose send
// queue is full is dropped rather than ever stalling the simulation.
func (h *Hub) Publish(batch []boundary.Notification) {
	frames := make([][]byte, 0, len(batch))
	for _, n := range batch {
		raw, err := json.Marshal(envelope(n))
		if err != nil {
			h.log.Error("marshal notification", zap.Error(err))
			continue
		}
		frames = append(frames, raw)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !enqueueAll(c, frames) {
			h.log.Warn("presentation client too slow, dropping")
			h.dropLocked(c)
		}
	}
}

func enqueueAll(c *client, frames [][]byte) bool {
	for _, f := range frames {
		select {
		case c.send <- f:
		default:
			return false
		}
	}
	return true
}

func envelope(n boundary.Notification) Envelope {
	switch n.(type) {
	case boundary.EntitySpawned:
		return Envelope{Type: "entity_spawned", Data: n}
	case boundary.EntityDespawned:
		return Envelope{Type: "entity_despawned", Data: n}
	case boundary.EntityMoved:
		return Envelope{Type: "entity_moved", Data: n}
	case boundary.EntityStateChanged:
		return Envelope{Type: "entity_state_changed", Data: n}
	default:
		return Envelope{Type: "unknown", Data: n}
	}
}

// ServeWS upgrades an HTTP request and runs the client pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, h.sendQueue)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	for raw := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			h.drop(c)
			return
		}
	}
	c.conn.Close()
}

// readPump parses input snapshots; anything unparseable is logged and
// skipped. Snapshots coalesce in the mailbox, last write wins.
func (h *Hub) readPump(c *client) {
	defer h.drop(c)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var snap boundary.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			h.log.Debug("bad input snapshot", zap.Error(err))
			continue
		}
		h.mailbox.Post(snap)
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	h.dropLocked(c)
	h.mu.Unlock()
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Shutdown closes every client connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
}
