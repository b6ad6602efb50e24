package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateAndGet(t *testing.T) {
	m := NewManager(time.Minute, 0, zap.NewNop())

	s, err := m.Create("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "alice", s.PlayerID)
	assert.False(t, s.Expired(time.Now()))

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	byPlayer, err := m.GetByPlayer("alice")
	require.NoError(t, err)
	assert.Equal(t, s.ID, byPlayer.ID)

	_, err = m.Get("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.GetByPlayer("bob")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCreateReplacesExistingSession(t *testing.T) {
	m := NewManager(time.Minute, 0, zap.NewNop())

	first, err := m.Create("alice")
	require.NoError(t, err)
	second, err := m.Create("alice")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, m.Count())

	_, err = m.Get(first.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionLimit(t *testing.T) {
	m := NewManager(time.Minute, 2, zap.NewNop())

	_, err := m.Create("alice")
	require.NoError(t, err)
	_, err = m.Create("bob")
	require.NoError(t, err)

	_, err = m.Create("carol")
	assert.ErrorIs(t, err, ErrSessionLimit)

	// Replacing an existing player's session does not count against the cap.
	_, err = m.Create("alice")
	assert.NoError(t, err)
}

func TestRenewExtendsLease(t *testing.T) {
	m := NewManager(50*time.Millisecond, 0, zap.NewNop())

	s, err := m.Create("alice")
	require.NoError(t, err)
	before := s.ExpiresAt

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, m.Renew(s.ID))

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.True(t, got.ExpiresAt.After(before))

	assert.ErrorIs(t, m.Renew("nope"), ErrSessionNotFound)
}

func TestBindRoom(t *testing.T) {
	m := NewManager(time.Minute, 0, zap.NewNop())

	s, err := m.Create("alice")
	require.NoError(t, err)
	require.NoError(t, m.BindRoom(s.ID, "ROOM1"))

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "ROOM1", got.RoomCode)

	assert.ErrorIs(t, m.BindRoom("nope", "ROOM1"), ErrSessionNotFound)
}

func TestRemove(t *testing.T) {
	m := NewManager(time.Minute, 0, zap.NewNop())

	s, err := m.Create("alice")
	require.NoError(t, err)

	m.Remove(s.ID)
	assert.Equal(t, 0, m.Count())
	_, err = m.GetByPlayer("alice")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	m.Remove("nope") // no panic
}

func TestReapExpired(t *testing.T) {
	m := NewManager(time.Millisecond, 0, zap.NewNop())

	_, err := m.Create("alice")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	m.reapExpired()
	assert.Equal(t, 0, m.Count())
}

func TestCloseAll(t *testing.T) {
	m := NewManager(time.Minute, 0, zap.NewNop())

	_, err := m.Create("alice")
	require.NoError(t, err)
	_, err = m.Create("bob")
	require.NoError(t, err)

	m.CloseAll()
	assert.Equal(t, 0, m.Count())
}
