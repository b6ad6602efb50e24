package game

import (
	"sync"

	"go.uber.org/zap"
)

// Manager tracks the active engine for each room. Engines serialize their
// own operations; the manager only guards the room map, so operations on
// distinct rooms run fully in parallel.
type Manager struct {
	logger *zap.Logger
	mu     sync.RWMutex
	games  map[string]*Engine // roomCode -> engine
}

// NewManager creates an empty game manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger: logger,
		games:  make(map[string]*Engine),
	}
}

// CreateGame builds a fresh engine for a room and registers it. An
// existing game for the room is replaced.
func (m *Manager) CreateGame(roomCode string, playerIDs []string, opts ...Option) (*Engine, error) {
	engine, err := NewEngine(roomCode, playerIDs, m.logger, opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.games[roomCode] = engine
	m.mu.Unlock()

	m.logger.Info("game registered",
		zap.String("room_code", roomCode),
		zap.Int("players", len(playerIDs)),
	)
	return engine, nil
}

// GetGame returns the engine for a room.
func (m *Manager) GetGame(roomCode string) (*Engine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	engine, ok := m.games[roomCode]
	return engine, ok
}

// RemoveGame tears down a room's game. Used both for normal round-end
// cleanup and for rooms poisoned by an invariant failure.
func (m *Manager) RemoveGame(roomCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.games, roomCode)
	m.logger.Info("game removed", zap.String("room_code", roomCode))
}

// Count returns the number of active games.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.games)
}
