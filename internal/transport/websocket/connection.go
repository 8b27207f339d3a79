package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"side-stacker-server/internal/domain"
)

type serverMessage struct {
	Type         string           `json:"type"`
	GameData     *domain.Snapshot `json:"game_data,omitempty"`
	PlayerNumber int              `json:"player_number,omitempty"`
	ClaimToken   string           `json:"claim_token,omitempty"`
	Code         string           `json:"code,omitempty"`
	Message      string           `json:"message,omitempty"`
}

type client struct {
	conn *websocket.Conn

	// writeMu ensures only one goroutine writes to this socket at a time;
	// conn.WriteJSON is not safe for concurrent use.
	writeMu sync.Mutex

	gameID string
	name   string
	slot   int
}

func (c *client) send(msg serverMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(msg)
}

// Hub tracks which sockets are in which game room and fans session events
// out to them. It implements the session layer's Broadcaster.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]struct{})}
}

func (h *Hub) join(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.gameID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[c.gameID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[c.gameID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.gameID)
		}
	}
}

// Publish delivers a whole-snapshot event to every socket in the game's
// room. Best effort: a slow or dead socket never blocks the others.
func (h *Hub) Publish(gameID string, event string, snap domain.Snapshot) {
	h.mu.RLock()
	members := make([]*client, 0, len(h.rooms[gameID]))
	for c := range h.rooms[gameID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	msg := serverMessage{Type: event, GameData: &snap}
	for _, c := range members {
		go func(c *client) {
			if err := c.send(msg); err != nil {
				log.Printf("[WS] Game %s: broadcast to %q failed: %v", gameID, c.name, err)
			}
		}(c)
	}
}
