package progress

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 2 * time.Second

// Hub fans progress messages out to websocket clients. All writes happen
// under mu, so a connection never has two concurrent writers.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	last    []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// Add registers ws and sends it a welcome followed by the latest
// snapshot, if any.
func (h *Hub) Add(ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"welcome","transport":"websocket"}`)); err != nil {
		_ = ws.Close()
		return
	}
	if h.last != nil {
		if err := ws.WriteMessage(websocket.TextMessage, h.last); err != nil {
			_ = ws.Close()
			return
		}
	}
	h.clients[ws] = struct{}{}
}

func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = b
	for ws := range h.clients {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.clients, ws)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
