package room

import (
	"crypto/rand"
	"math/big"
	"sync"

	"go.uber.org/zap"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const codeLength = 5

// Manager tracks the live lobby rooms.
type Manager struct {
	logger *zap.Logger
	mu     sync.RWMutex
	rooms  map[string]*Room // code -> room
}

// NewManager creates an empty room manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger: logger,
		rooms:  make(map[string]*Room),
	}
}

// GenerateCode produces a fresh join code not currently in use.
func (m *Manager) GenerateCode() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		if _, taken := m.rooms[code]; !taken {
			return code, nil
		}
	}
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// CreateRoom registers a new room under code.
func (m *Manager) CreateRoom(code string, maxPlayers int, private bool, hostID string) (*Room, error) {
	room, err := New(code, maxPlayers, private, hostID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rooms[room.Code()]; exists {
		return nil, ErrRoomExists
	}
	m.rooms[room.Code()] = room

	m.logger.Info("room created",
		zap.String("room_code", room.Code()),
		zap.Int("max_players", maxPlayers),
		zap.Bool("private", private),
	)
	return room, nil
}

// GetRoom returns the room with the given code.
func (m *Manager) GetRoom(code string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// DeleteRoom unregisters a room.
func (m *Manager) DeleteRoom(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[code]; ok {
		delete(m.rooms, code)
		m.logger.Info("room deleted", zap.String("room_code", code))
	}
}

// ListPublic returns the non-empty public rooms.
func (m *Manager) ListPublic() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Room
	for _, r := range m.rooms {
		if !r.Private() && !r.IsEmpty() {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of registered rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
