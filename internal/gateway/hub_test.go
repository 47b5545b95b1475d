package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/valewood/simcore/internal/boundary"
	"go.uber.org/zap"
)

func dialTestHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestEnvelopeTypes(t *testing.T) {
	cases := []struct {
		n    boundary.Notification
		want string
	}{
		{boundary.EntitySpawned{Handle: 1}, "entity_spawned"},
		{boundary.EntityDespawned{Handle: 1}, "entity_despawned"},
		{boundary.EntityMoved{Handle: 1}, "entity_moved"},
		{boundary.EntityStateChanged{Handle: 1}, "entity_state_changed"},
	}
	for _, c := range cases {
		if got := envelope(c.n); got.Type != c.want {
			t.Fatalf("envelope(%T).Type = %q, want %q", c.n, got.Type, c.want)
		}
	}
}

func TestHubPublishReachesClient(t *testing.T) {
	mailbox := boundary.NewMailbox()
	h := NewHub(mailbox, 16, zap.NewNop())
	defer h.Shutdown()

	conn := dialTestHub(t, h)
	waitForClients(t, h, 1)

	h.Publish([]boundary.Notification{
		boundary.EntitySpawned{Handle: 9, Kind: "npc", DefinitionID: "villager"},
		boundary.EntityMoved{Handle: 9, Position: boundary.Vec2JSON{X: 5}},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != "entity_spawned" {
		t.Fatalf("first frame type = %q", env.Type)
	}
	var sp boundary.EntitySpawned
	if err := json.Unmarshal(env.Data, &sp); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if sp.Handle != 9 || sp.DefinitionID != "villager" {
		t.Fatalf("payload = %+v", sp)
	}

	_, raw, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read second frame: %v", err)
	}
	if err := json.Unmarshal(raw, &env); err != nil || env.Type != "entity_moved" {
		t.Fatalf("second frame = %s (err %v)", raw, err)
	}
}

func TestHubFeedsMailboxFromClient(t *testing.T) {
	mailbox := boundary.NewMailbox()
	h := NewHub(mailbox, 16, zap.NewNop())
	defer h.Shutdown()

	conn := dialTestHub(t, h)
	waitForClients(t, h, 1)

	snap := boundary.Snapshot{Move: boundary.Vec2JSON{X: 1, Y: -1}, Timestamp: 42}
	raw, _ := json.Marshal(snap)
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got, ok := mailbox.Take(); ok {
			if got.Timestamp != 42 || got.Move.X != 1 {
				t.Fatalf("snapshot = %+v", got)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("input snapshot never reached the mailbox")
}

func TestHubDropsSlowClient(t *testing.T) {
	mailbox := boundary.NewMailbox()
	// Queue of one: the second undelivered frame overflows it.
	h := NewHub(mailbox, 1, zap.NewNop())
	defer h.Shutdown()

	c := &client{send: make(chan []byte, 1)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	batch := []boundary.Notification{
		boundary.EntityDespawned{Handle: 1},
		boundary.EntityDespawned{Handle: 2},
	}
	h.Publish(batch)

	h.mu.Lock()
	_, stillThere := h.clients[c]
	h.mu.Unlock()
	if stillThere {
		t.Fatalf("client with a full send queue must be dropped")
	}
	// Dropping closes the channel; publishing again must not panic.
	h.Publish(batch)
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.mu.Lock()
		got := len(h.clients)
		h.mu.Unlock()
		if got == n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("clients never reached %d", n)
}
