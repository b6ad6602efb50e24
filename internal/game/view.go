package game

import (
	"time"

	"github.com/gostop/gostop-server-go/internal/hwatu"
	"github.com/gostop/gostop-server-go/internal/scoring"
)

// PlayerView is one seat as seen by a particular viewer. Opponents' hands
// are reduced to a count.
type PlayerView struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	HandCount int                   `json:"handCount"`
	Hand      []hwatu.Card          `json:"hand,omitempty"`
	Captured  scoring.CapturedCards `json:"captured"`
	Score     int                   `json:"score"`
	GoCount   int                   `json:"goCount"`
	Connected bool                  `json:"connected"`
}

// GameView is the redacted game state broadcast to one player.
type GameView struct {
	RoomCode           string       `json:"roomCode"`
	Phase              string       `json:"phase"`
	CurrentPlayerID    string       `json:"currentPlayerId"`
	CurrentPlayerIndex int          `json:"currentPlayerIndex"`
	TimeoutAt          time.Time    `json:"timeoutAt,omitempty"`
	MatchOptions       []string     `json:"matchOptions,omitempty"`
	Players            []PlayerView `json:"players"`
	Field              []hwatu.Card `json:"fieldCards"`
	DeckCount          int          `json:"deckCount"`
	NagariCount        int          `json:"nagariCount"`
	RoundNumber        int          `json:"roundNumber"`
}

// phaseView extracts the display fields common across phase variants.
func phaseView(phase Phase) (currentPlayer string, timeoutAt time.Time, matchOptions []string) {
	switch p := phase.(type) {
	case TurnPlayCardPhase:
		return p.CurrentPlayerID, p.TimeoutAt, nil
	case TurnChooseFieldCardPhase:
		return p.CurrentPlayerID, p.TimeoutAt, p.MatchOptions
	case TurnFlipDeckPhase:
		return p.CurrentPlayerID, p.TimeoutAt, nil
	case TurnChooseFlipMatchPhase:
		return p.CurrentPlayerID, p.TimeoutAt, p.MatchOptions
	case TurnResolveCapturePhase:
		return p.CurrentPlayerID, time.Time{}, nil
	case TurnCheckScorePhase:
		return p.CurrentPlayerID, time.Time{}, nil
	case AwaitingGoStopPhase:
		return p.CurrentPlayerID, p.TimeoutAt, nil
	case DisconnectedPhase:
		return p.DisconnectedPlayerID, p.TimeoutAt, nil
	default:
		return "", time.Time{}, nil
	}
}

// ViewFor builds the redacted view of the current snapshot for viewerID.
// Only the viewer's own hand is included.
func (e *Engine) ViewFor(viewerID string) GameView {
	st := e.State()

	currentPlayer, timeoutAt, matchOptions := phaseView(st.Phase)
	view := GameView{
		RoomCode:           st.RoomCode,
		Phase:              st.Phase.PhaseName().String(),
		CurrentPlayerID:    currentPlayer,
		CurrentPlayerIndex: st.CurrentPlayerIndex,
		TimeoutAt:          timeoutAt,
		MatchOptions:       matchOptions,
		Field:              st.Field,
		DeckCount:          len(st.Deck),
		NagariCount:        st.NagariCount,
		RoundNumber:        st.RoundNumber,
	}

	view.Players = make([]PlayerView, len(st.Players))
	for i, p := range st.Players {
		pv := PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			HandCount: len(p.Hand),
			Captured:  p.Captured,
			Score:     p.Score,
			GoCount:   p.GoCount,
			Connected: p.Connected,
		}
		if p.ID == viewerID {
			pv.Hand = p.Hand
		}
		view.Players[i] = pv
	}
	return view
}
