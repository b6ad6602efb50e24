package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Replay is a recorded game: sequential state snapshots, one per committed
// engine operation, replayable for audit or debugging.
type Replay struct {
	RoomCode     string
	States       []*GameState
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay for a room.
func NewReplay(roomCode string) *Replay {
	return &Replay{
		RoomCode: roomCode,
		States:   make([]*GameState, 0),
	}
}

// RecordState appends a snapshot.
func (r *Replay) RecordState(snapshot *GameState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.States = append(r.States, snapshot)
}

// Start resets playback to the beginning.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the next snapshot, or nil at the end.
func (r *Replay) Next() *GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.States) {
		state := r.States[r.CurrentIndex]
		r.CurrentIndex++
		return state
	}
	return nil
}

// Previous steps playback back one snapshot, or nil at the beginning.
func (r *Replay) Previous() *GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.States[r.CurrentIndex]
	}
	return nil
}

// Size returns the number of recorded snapshots.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.States)
}

// GetStateAt returns the snapshot at index, or nil when out of range.
func (r *Replay) GetStateAt(index int) *GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.States) {
		return r.States[index]
	}
	return nil
}

// replayMetadata heads a saved replay file.
type replayMetadata struct {
	RoomCode   string
	Timestamp  time.Time
	Version    int
	StateCount int
}

// SaveToFile writes the replay to directory as a gzipped gob stream.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.RoomCode))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		RoomCode:   r.RoomCode,
		Timestamp:  time.Now(),
		Version:    1,
		StateCount: len(r.States),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	for i, state := range r.States {
		if err := encoder.Encode(state); err != nil {
			return fmt.Errorf("failed to encode state %d: %w", i, err)
		}
	}

	return nil
}

// LoadReplayFromFile loads a saved replay for a room from directory.
func LoadReplayFromFile(directory, roomCode string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", roomCode))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != 1 {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.RoomCode)
	for i := 0; i < metadata.StateCount; i++ {
		var state GameState
		if err := decoder.Decode(&state); err != nil {
			return nil, fmt.Errorf("failed to decode state %d: %w", i, err)
		}
		replay.States = append(replay.States, &state)
	}

	return replay, nil
}

// ReplayRecorder manages replay recording across rooms.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay // roomCode -> Replay
	enabled map[string]bool
	saveDir string
}

// NewReplayRecorder creates a recorder that saves replay files to saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a room's game.
func (rr *ReplayRecorder) StartRecording(roomCode string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.replays[roomCode] = NewReplay(roomCode)
	rr.enabled[roomCode] = true

	if rr.logger != nil {
		rr.logger.Info("started replay recording",
			zap.String("room_code", roomCode),
		)
	}
}

// StopRecording stops recording a room's game.
func (rr *ReplayRecorder) StopRecording(roomCode string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[roomCode] = false
}

// RecordState records a snapshot if recording is enabled for the room.
func (rr *ReplayRecorder) RecordState(roomCode string, snapshot *GameState) {
	rr.mu.RLock()
	enabled := rr.enabled[roomCode]
	replay := rr.replays[roomCode]
	rr.mu.RUnlock()

	if !enabled || replay == nil {
		return
	}

	replay.RecordState(snapshot)
}

// GetReplay returns the in-memory replay for a room.
func (rr *ReplayRecorder) GetReplay(roomCode string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, exists := rr.replays[roomCode]
	return replay, exists
}

// SaveReplay persists a room's replay to disk and drops it from memory.
func (rr *ReplayRecorder) SaveReplay(roomCode string) error {
	rr.mu.Lock()
	replay, exists := rr.replays[roomCode]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for room %s", roomCode)
	}
	delete(rr.replays, roomCode)
	delete(rr.enabled, roomCode)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	if rr.logger != nil {
		rr.logger.Info("saved replay to disk",
			zap.String("room_code", roomCode),
			zap.Int("state_count", replay.Size()),
			zap.String("directory", rr.saveDir),
		)
	}
	return nil
}

// ClearReplay removes a room's replay from memory without saving.
func (rr *ReplayRecorder) ClearReplay(roomCode string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, roomCode)
	delete(rr.enabled, roomCode)
}

// IsRecording reports whether recording is enabled for the room.
func (rr *ReplayRecorder) IsRecording(roomCode string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.enabled[roomCode]
}
