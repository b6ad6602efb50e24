package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func replaySnapshot(roomCode string, round int) *GameState {
	return &GameState{
		RoomCode:    roomCode,
		Phase:       DealingPhase{RoundNumber: round},
		RoundNumber: round,
		Players: []PlayerState{
			{ID: "alice", Connected: true},
			{ID: "bob", Connected: true},
		},
		ShakeMultipliers: map[string]int{},
		BombMultipliers:  map[string]int{},
	}
}

func TestNewReplay(t *testing.T) {
	replay := NewReplay("ROOM1")
	assert.Equal(t, "ROOM1", replay.RoomCode)
	assert.Equal(t, 0, replay.CurrentIndex)
	assert.Equal(t, 0, replay.Size())
}

func TestReplayRecordAndPlayback(t *testing.T) {
	replay := NewReplay("ROOM1")
	replay.RecordState(replaySnapshot("ROOM1", 1))
	replay.RecordState(replaySnapshot("ROOM1", 2))
	replay.RecordState(replaySnapshot("ROOM1", 3))

	assert.Equal(t, 3, replay.Size())

	replay.Start()
	first := replay.Next()
	require.NotNil(t, first)
	assert.Equal(t, 1, first.RoundNumber)

	second := replay.Next()
	require.NotNil(t, second)
	assert.Equal(t, 2, second.RoundNumber)

	back := replay.Previous()
	require.NotNil(t, back)
	assert.Equal(t, 2, back.RoundNumber)

	third := replay.Next()
	require.NotNil(t, third)

	require.NotNil(t, replay.Next())
	assert.Nil(t, replay.Next(), "playback past the end returns nil")
}

func TestReplayPreviousAtStart(t *testing.T) {
	replay := NewReplay("ROOM1")
	replay.RecordState(replaySnapshot("ROOM1", 1))
	replay.Start()
	assert.Nil(t, replay.Previous())
}

func TestReplayGetStateAt(t *testing.T) {
	replay := NewReplay("ROOM1")
	replay.RecordState(replaySnapshot("ROOM1", 1))
	replay.RecordState(replaySnapshot("ROOM1", 2))

	state := replay.GetStateAt(1)
	require.NotNil(t, state)
	assert.Equal(t, 2, state.RoundNumber)

	assert.Nil(t, replay.GetStateAt(-1))
	assert.Nil(t, replay.GetStateAt(2))
}

func TestReplaySaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	replay := NewReplay("ROOM1")
	replay.RecordState(replaySnapshot("ROOM1", 1))
	replay.RecordState(replaySnapshot("ROOM1", 2))

	require.NoError(t, replay.SaveToFile(dir))

	_, err := os.Stat(filepath.Join(dir, "ROOM1.replay"))
	require.NoError(t, err)

	loaded, err := LoadReplayFromFile(dir, "ROOM1")
	require.NoError(t, err)
	assert.Equal(t, "ROOM1", loaded.RoomCode)
	require.Equal(t, 2, loaded.Size())

	state := loaded.GetStateAt(0)
	require.NotNil(t, state)
	assert.Equal(t, 1, state.RoundNumber)
	assert.Equal(t, PhaseDealing, state.Phase.PhaseName())
	assert.Len(t, state.Players, 2)
}

func TestLoadReplayMissingFile(t *testing.T) {
	_, err := LoadReplayFromFile(t.TempDir(), "NOPE")
	assert.Error(t, err)
}

func TestRecorderLifecycle(t *testing.T) {
	rec := NewReplayRecorder(zap.NewNop(), t.TempDir())

	assert.False(t, rec.IsRecording("ROOM1"))

	rec.StartRecording("ROOM1")
	assert.True(t, rec.IsRecording("ROOM1"))

	rec.RecordState("ROOM1", replaySnapshot("ROOM1", 1))
	rec.RecordState("ROOM1", replaySnapshot("ROOM1", 2))

	replay, ok := rec.GetReplay("ROOM1")
	require.True(t, ok)
	assert.Equal(t, 2, replay.Size())

	rec.StopRecording("ROOM1")
	rec.RecordState("ROOM1", replaySnapshot("ROOM1", 3))
	assert.Equal(t, 2, replay.Size(), "snapshots after StopRecording are dropped")
}

func TestRecorderIgnoresUnknownRoom(t *testing.T) {
	rec := NewReplayRecorder(zap.NewNop(), t.TempDir())
	rec.RecordState("NOPE", replaySnapshot("NOPE", 1)) // no panic, no effect
	_, ok := rec.GetReplay("NOPE")
	assert.False(t, ok)
}

func TestRecorderSaveReplay(t *testing.T) {
	dir := t.TempDir()
	rec := NewReplayRecorder(zap.NewNop(), dir)

	rec.StartRecording("ROOM1")
	rec.RecordState("ROOM1", replaySnapshot("ROOM1", 1))

	require.NoError(t, rec.SaveReplay("ROOM1"))

	// Saving evicts the in-memory copy.
	_, ok := rec.GetReplay("ROOM1")
	assert.False(t, ok)
	assert.False(t, rec.IsRecording("ROOM1"))

	loaded, err := LoadReplayFromFile(dir, "ROOM1")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Size())

	assert.Error(t, rec.SaveReplay("ROOM1"), "second save has nothing to persist")
}

func TestRecorderClearReplay(t *testing.T) {
	rec := NewReplayRecorder(zap.NewNop(), t.TempDir())

	rec.StartRecording("ROOM1")
	rec.RecordState("ROOM1", replaySnapshot("ROOM1", 1))
	rec.ClearReplay("ROOM1")

	_, ok := rec.GetReplay("ROOM1")
	assert.False(t, ok)
}

func TestEngineRecordsReplay(t *testing.T) {
	rec := NewReplayRecorder(zap.NewNop(), t.TempDir())

	e, err := NewEngine("ROOM1", []string{"alice", "bob"}, zap.NewNop(), WithSeed(42), WithRecorder(rec))
	require.NoError(t, err)

	_, err = e.Begin()
	require.NoError(t, err)
	require.NoError(t, e.StartTurns())

	replay, ok := rec.GetReplay("ROOM1")
	require.True(t, ok)
	// Creation plus two committed operations.
	assert.Equal(t, 3, replay.Size())

	first := replay.GetStateAt(0)
	require.NotNil(t, first)
	assert.Equal(t, PhaseDealing, first.Phase.PhaseName())
	last := replay.GetStateAt(2)
	require.NotNil(t, last)
	assert.Equal(t, PhaseTurnPlayCard, last.Phase.PhaseName())
}
