package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionLimit    = errors.New("session limit reached")
)

// Session is one connected player's lease. The transport renews it on
// every inbound message; a session whose lease lapses is reaped and the
// player falls back to the reconnect flow.
type Session struct {
	ID        string
	PlayerID  string
	RoomCode  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the lease has lapsed at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Manager tracks active sessions and reaps expired leases.
type Manager struct {
	leasePeriod time.Duration
	maxSessions int
	logger      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session // session ID -> session
	byPlayer map[string]string   // player ID -> session ID
}

// NewManager creates a session manager. maxSessions caps concurrent
// sessions; zero means unlimited.
func NewManager(leasePeriod time.Duration, maxSessions int, logger *zap.Logger) *Manager {
	return &Manager{
		leasePeriod: leasePeriod,
		maxSessions: maxSessions,
		logger:      logger,
		sessions:    make(map[string]*Session),
		byPlayer:    make(map[string]string),
	}
}

// Create opens a session for a player. An existing session for the same
// player is replaced, so a reconnecting client never fights its own stale
// lease.
func (m *Manager) Create(playerID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.byPlayer[playerID]; ok {
		delete(m.sessions, old)
		delete(m.byPlayer, playerID)
	}
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return nil, ErrSessionLimit
	}

	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.leasePeriod),
	}
	m.sessions[s.ID] = s
	m.byPlayer[playerID] = s.ID

	m.logger.Debug("session created",
		zap.String("session_id", s.ID),
		zap.String("player_id", playerID),
	)
	return s, nil
}

// Get returns the session by ID.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// GetByPlayer returns the player's active session.
func (m *Manager) GetByPlayer(playerID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byPlayer[playerID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return m.sessions[id], nil
}

// Renew extends the session's lease by the manager's lease period.
func (m *Manager) Renew(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.ExpiresAt = time.Now().Add(m.leasePeriod)
	return nil
}

// BindRoom associates the session with a room.
func (m *Manager) BindRoom(sessionID, roomCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.RoomCode = roomCode
	return nil
}

// Remove closes a session.
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionID]; ok {
		delete(m.byPlayer, s.PlayerID)
		delete(m.sessions, sessionID)
	}
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// CloseAll drops every session. Called during shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.sessions)
	m.sessions = make(map[string]*Session)
	m.byPlayer = make(map[string]string)
	m.logger.Info("closed all sessions", zap.Int("count", n))
}

// CleanupExpiredSessions reaps lapsed leases until ctx is cancelled. Run
// it as a goroutine next to the server loop.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) {
	interval := m.leasePeriod / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reapExpired()
		}
	}
}

func (m *Manager) reapExpired() {
	now := time.Now()

	m.mu.Lock()
	var reaped []string
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.byPlayer, s.PlayerID)
			delete(m.sessions, id)
			reaped = append(reaped, s.PlayerID)
		}
	}
	m.mu.Unlock()

	for _, playerID := range reaped {
		m.logger.Info("session expired", zap.String("player_id", playerID))
	}
}
