package server

import (
	"sync"

	"go.uber.org/zap"
)

// Hub tracks connected clients and their room membership, and fans
// outbound frames to them. Clients register on upgrade and unregister
// when their read pump exits.
type Hub struct {
	logger *zap.Logger

	mu       sync.RWMutex
	clients  map[*Client]bool
	byPlayer map[string]*Client          // player ID -> client
	rooms    map[string]map[*Client]bool // room code -> members
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:   logger,
		clients:  make(map[*Client]bool),
		byPlayer: make(map[string]*Client),
		rooms:    make(map[string]map[*Client]bool),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = true
	h.byPlayer[c.PlayerID] = c
	h.logger.Debug("client registered",
		zap.String("player_id", c.PlayerID),
		zap.Int("total", len(h.clients)),
	)
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	if h.byPlayer[c.PlayerID] == c {
		delete(h.byPlayer, c.PlayerID)
	}
	if c.RoomCode != "" {
		if members := h.rooms[c.RoomCode]; members != nil {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, c.RoomCode)
			}
		}
	}
	close(c.send)
	h.logger.Debug("client unregistered",
		zap.String("player_id", c.PlayerID),
		zap.Int("total", len(h.clients)),
	)
}

// JoinRoom moves the client into a room's broadcast group.
func (h *Hub) JoinRoom(c *Client, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.RoomCode != "" {
		if members := h.rooms[c.RoomCode]; members != nil {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, c.RoomCode)
			}
		}
	}
	c.RoomCode = roomCode
	if h.rooms[roomCode] == nil {
		h.rooms[roomCode] = make(map[*Client]bool)
	}
	h.rooms[roomCode][c] = true
}

// LeaveRoom removes the client from its room's broadcast group.
func (h *Hub) LeaveRoom(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.RoomCode == "" {
		return
	}
	if members := h.rooms[c.RoomCode]; members != nil {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, c.RoomCode)
		}
	}
	c.RoomCode = ""
}

// RoomClients returns the clients currently in a room.
func (h *Hub) RoomClients(roomCode string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Client, 0, len(h.rooms[roomCode]))
	for c := range h.rooms[roomCode] {
		out = append(out, c)
	}
	return out
}

// RebindPlayer reassigns a client's player identity, used when a
// reconnecting connection reclaims its old seat.
func (h *Hub) RebindPlayer(c *Client, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.byPlayer[c.PlayerID] == c {
		delete(h.byPlayer, c.PlayerID)
	}
	c.PlayerID = playerID
	h.byPlayer[playerID] = c
}

// ClientByPlayer returns the connected client for a player.
func (h *Hub) ClientByPlayer(playerID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.byPlayer[playerID]
	return c, ok
}

// Broadcast sends a frame to every client in a room.
func (h *Hub) Broadcast(roomCode string, frame []byte) {
	for _, c := range h.RoomClients(roomCode) {
		c.Enqueue(frame)
	}
}

// BroadcastExcept sends a frame to every client in a room but one.
func (h *Hub) BroadcastExcept(roomCode string, except *Client, frame []byte) {
	for _, c := range h.RoomClients(roomCode) {
		if c != except {
			c.Enqueue(frame)
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
