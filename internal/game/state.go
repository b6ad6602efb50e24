package game

import (
	"time"

	"github.com/gostop/gostop-server-go/internal/hwatu"
	"github.com/gostop/gostop-server-go/internal/scoring"
)

// ChoiceSource records which action produced a pending choice.
type ChoiceSource int

const (
	ChoiceFromPlay ChoiceSource = iota
	ChoiceFromFlip
)

// PendingChoice is the transient context while a player disambiguates a
// two-match capture. At most one exists per game; it is cleared the moment
// a choice resolves.
type PendingChoice struct {
	Source       ChoiceSource
	Card         hwatu.Card
	MatchOptions []hwatu.Card
}

// PlayerState is one seat's state within a game.
type PlayerState struct {
	ID             string
	Name           string
	Hand           []hwatu.Card
	Captured       scoring.CapturedCards
	Score          int
	GoCount        int
	Connected      bool
	ReconnectToken []byte // bcrypt hash of the issued token
}

// TurnRecord is one line of the append-only turn history.
type TurnRecord struct {
	RoundNumber int
	PlayerID    string
	Action      string
	Timestamp   time.Time
}

// GameState is the complete authoritative state of one room's game. The
// engine treats it as an immutable snapshot: operations clone it, mutate
// the clone and swap it in atomically.
type GameState struct {
	RoomCode           string
	Phase              Phase
	Deck               []hwatu.Card
	Players            []PlayerState
	Field              []hwatu.Card
	CurrentPlayerIndex int
	Pending            *PendingChoice
	// Interrupted holds the phase to resume after a DISCONNECTED park.
	Interrupted      Phase
	NagariCount      int
	RoundNumber      int
	ShakeMultipliers map[string]int
	BombMultipliers  map[string]int
	History          []TurnRecord
}

// Clone deep-copies the snapshot.
func (s *GameState) Clone() *GameState {
	clone := &GameState{
		RoomCode:           s.RoomCode,
		Phase:              s.Phase,
		Interrupted:        s.Interrupted,
		Deck:               append([]hwatu.Card(nil), s.Deck...),
		Players:            make([]PlayerState, len(s.Players)),
		Field:              append([]hwatu.Card(nil), s.Field...),
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		NagariCount:        s.NagariCount,
		RoundNumber:        s.RoundNumber,
		ShakeMultipliers:   make(map[string]int, len(s.ShakeMultipliers)),
		BombMultipliers:    make(map[string]int, len(s.BombMultipliers)),
		History:            append([]TurnRecord(nil), s.History...),
	}

	for i, p := range s.Players {
		clone.Players[i] = PlayerState{
			ID:             p.ID,
			Name:           p.Name,
			Hand:           append([]hwatu.Card(nil), p.Hand...),
			Captured:       p.Captured.Clone(),
			Score:          p.Score,
			GoCount:        p.GoCount,
			Connected:      p.Connected,
			ReconnectToken: append([]byte(nil), p.ReconnectToken...),
		}
	}
	for id, n := range s.ShakeMultipliers {
		clone.ShakeMultipliers[id] = n
	}
	for id, n := range s.BombMultipliers {
		clone.BombMultipliers[id] = n
	}
	if s.Pending != nil {
		clone.Pending = &PendingChoice{
			Source:       s.Pending.Source,
			Card:         s.Pending.Card,
			MatchOptions: append([]hwatu.Card(nil), s.Pending.MatchOptions...),
		}
	}
	return clone
}

// player returns the index of playerID, or -1.
func (s *GameState) playerIndex(playerID string) int {
	for i := range s.Players {
		if s.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// CurrentPlayer returns the player whose turn it is.
func (s *GameState) CurrentPlayer() *PlayerState {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.CurrentPlayerIndex]
}

// CardCount returns the total number of cards across deck, field, hands,
// captured piles and any card held in a pending choice. It must always
// equal hwatu.DeckSize.
func (s *GameState) CardCount() int {
	n := len(s.Deck) + len(s.Field)
	for _, p := range s.Players {
		n += len(p.Hand) + len(p.Captured.All())
	}
	if s.Pending != nil {
		n++
	}
	return n
}
