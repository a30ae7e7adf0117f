package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds every connection write. A peer that stops draining its
// buffer fails the deadline and is pruned instead of wedging its room.
const writeWait = 10 * time.Second

// WSMessage is the outbound envelope written to every connection.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// room holds one room's subscribed connections. The room mutex serializes
// all writes to those connections, so rooms never block one another.
type room struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// Hub tracks, per room code, the set of currently-subscribed connections and
// fans out room-scoped messages. A connection may subscribe to a room without
// being a joined participant. The hub mutex guards only the room registry;
// connection writes take the owning room's lock.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]*room),
	}
}

func (h *Hub) room(roomCode string) *room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[roomCode]
}

// AddConnection subscribes a connection to a room's broadcasts.
func (h *Hub) AddConnection(roomCode string, conn *websocket.Conn) {
	h.mu.Lock()
	r := h.rooms[roomCode]
	if r == nil {
		r = &room{conns: make(map[*websocket.Conn]bool)}
		h.rooms[roomCode] = r
	}
	h.mu.Unlock()

	r.mu.Lock()
	r.conns[conn] = true
	total := len(r.conns)
	r.mu.Unlock()
	log.Printf("ws: client subscribed to room %s (total: %d)", roomCode, total)
}

// RemoveConnection drops a connection's subscription without closing it; the
// read loop owns the connection's lifetime.
func (h *Hub) RemoveConnection(roomCode string, conn *websocket.Conn) {
	r := h.room(roomCode)
	if r == nil {
		return
	}

	r.mu.Lock()
	delete(r.conns, conn)
	empty := len(r.conns) == 0
	r.mu.Unlock()
	log.Printf("ws: client unsubscribed from room %s", roomCode)

	if empty {
		h.dropIfEmpty(roomCode, r)
	}
}

// dropIfEmpty removes a drained room from the registry unless it was
// re-populated or replaced in the meantime.
func (h *Hub) dropIfEmpty(roomCode string, r *room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.rooms[roomCode]
	if !ok || current != r {
		return
	}
	r.mu.Lock()
	if len(r.conns) == 0 {
		delete(h.rooms, roomCode)
	}
	r.mu.Unlock()
}

// Broadcast fans a message out to every connection subscribed to the room.
// Connections that fail to write within the deadline are closed and pruned.
func (h *Hub) Broadcast(roomCode string, message WSMessage) {
	r := h.room(roomCode)
	if r == nil {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}

	r.mu.Lock()
	for conn := range r.conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws: write error: %v", err)
			conn.Close()
			delete(r.conns, conn)
		}
	}
	empty := len(r.conns) == 0
	r.mu.Unlock()

	if empty {
		h.dropIfEmpty(roomCode, r)
	}
}

// Send writes a message to a single connection. roomCode names the room the
// connection is subscribed to so the write is serialized against that room's
// broadcasts; it is empty for connections that have not subscribed yet, whose
// only writer is their own read loop.
func (h *Hub) Send(roomCode string, conn *websocket.Conn, message WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}

	if r := h.room(roomCode); r != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("ws: write error: %v", err)
	}
}
