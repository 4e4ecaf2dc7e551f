package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mabouzeid04/workflow-daddy/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans engine events out to websocket subscribers. A slow subscriber
// is disconnected rather than allowed to stall the pump.
type Hub struct {
	mu   sync.Mutex
	subs map[*websocket.Conn]chan []byte
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*websocket.Conn]chan []byte)}
}

// Pump broadcasts engine events until the channel closes, then drops all
// subscribers.
func (h *Hub) Pump(events <-chan pipeline.Event) {
	for ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			log.Printf("server: marshaling event: %v", err)
			continue
		}
		h.broadcast(payload)
	}
	h.closeAll()
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, out := range h.subs {
		select {
		case out <- payload:
		default:
			log.Printf("server: dropping slow websocket subscriber")
			close(out)
			delete(h.subs, conn)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, out := range h.subs {
		close(out)
		delete(h.subs, conn)
	}
}

func (h *Hub) add(conn *websocket.Conn) chan []byte {
	out := make(chan []byte, 32)
	h.mu.Lock()
	h.subs[conn] = out
	h.mu.Unlock()
	return out
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if out, ok := h.subs[conn]; ok {
		close(out)
		delete(h.subs, conn)
	}
	h.mu.Unlock()
}

// HandleWebSocket upgrades the connection and streams events until the
// client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	out := h.add(conn)
	defer h.remove(conn)

	// Reader goroutine only notices disconnects; clients never send.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case payload, ok := <-out:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
