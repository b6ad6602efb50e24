package game

import (
	"encoding/gob"
	"time"

	"github.com/gostop/gostop-server-go/internal/scoring"
)

// PhaseName identifies a phase of the round state machine.
type PhaseName int

const (
	PhaseLobby PhaseName = iota
	PhaseWaitingForPlayers
	PhaseDealing
	PhaseCheckSpecialHands
	PhaseTurnPlayCard
	PhaseTurnChooseFieldCard
	PhaseTurnFlipDeck
	PhaseTurnChooseFlipMatch
	PhaseTurnResolveCapture
	PhaseTurnCheckScore
	PhaseAwaitingGoStop
	PhaseRoundEnd
	PhaseNagari
	PhaseGameOver
	PhaseDisconnected
)

var phaseNames = map[PhaseName]string{
	PhaseLobby:               "LOBBY",
	PhaseWaitingForPlayers:   "WAITING_FOR_PLAYERS",
	PhaseDealing:             "DEALING",
	PhaseCheckSpecialHands:   "CHECK_SPECIAL_HANDS",
	PhaseTurnPlayCard:        "TURN_PLAY_CARD",
	PhaseTurnChooseFieldCard: "TURN_CHOOSE_FIELD_CARD",
	PhaseTurnFlipDeck:        "TURN_FLIP_DECK",
	PhaseTurnChooseFlipMatch: "TURN_CHOOSE_FLIP_MATCH",
	PhaseTurnResolveCapture:  "TURN_RESOLVE_CAPTURE",
	PhaseTurnCheckScore:      "TURN_CHECK_SCORE",
	PhaseAwaitingGoStop:      "AWAITING_GO_STOP",
	PhaseRoundEnd:            "ROUND_END",
	PhaseNagari:              "NAGARI",
	PhaseGameOver:            "GAME_OVER",
	PhaseDisconnected:        "DISCONNECTED",
}

func (p PhaseName) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// Phase is a tagged variant: one concrete type per phase, each carrying only
// the data valid for that phase.
type Phase interface {
	PhaseName() PhaseName
}

// LobbyPhase is the sole initial phase.
type LobbyPhase struct{}

// WaitingForPlayersPhase waits for a room to fill and ready up.
type WaitingForPlayersPhase struct {
	RoomCode string
}

// DealingPhase covers shuffle and deal for a round.
type DealingPhase struct {
	RoundNumber int
}

// CheckSpecialHandsPhase is entered right after the deal to evaluate
// chongtong, shake and reshuffle eligibility.
type CheckSpecialHandsPhase struct{}

// TurnPlayCardPhase waits for the current player to play a hand card.
type TurnPlayCardPhase struct {
	CurrentPlayerID string
	TimeoutAt       time.Time
}

// TurnChooseFieldCardPhase waits for the player to disambiguate a two-match
// play.
type TurnChooseFieldCardPhase struct {
	CurrentPlayerID string
	MatchOptions    []string
	TimeoutAt       time.Time
}

// TurnFlipDeckPhase waits for the deck flip that follows a play.
type TurnFlipDeckPhase struct {
	CurrentPlayerID string
	TimeoutAt       time.Time
}

// TurnChooseFlipMatchPhase waits for the player to disambiguate a two-match
// flip.
type TurnChooseFlipMatchPhase struct {
	CurrentPlayerID string
	MatchOptions    []string
	TimeoutAt       time.Time
}

// TurnResolveCapturePhase finalizes the captures of the current turn.
type TurnResolveCapturePhase struct {
	CurrentPlayerID string
}

// TurnCheckScorePhase evaluates the current player's score after resolution.
type TurnCheckScorePhase struct {
	CurrentPlayerID string
}

// AwaitingGoStopPhase waits for a Go or Stop declaration from an eligible
// player.
type AwaitingGoStopPhase struct {
	CurrentPlayerID string
	CurrentScore    int
	GoCount         int
	TimeoutAt       time.Time
}

// RoundEndPhase carries the round outcome. WinnerID is empty for a round
// that ended without a winner.
type RoundEndPhase struct {
	WinnerID  string
	Breakdown scoring.ScoreBreakdown
}

// NagariPhase marks a no-winner round awaiting replay.
type NagariPhase struct {
	NagariCount int
}

// GameOverPhase is terminal except for an explicit rematch back to LOBBY.
type GameOverPhase struct {
	Results []FinalResult
}

// DisconnectedPhase interrupts a mid-turn phase while a player is away.
type DisconnectedPhase struct {
	DisconnectedPlayerID string
	TimeoutAt            time.Time
}

// FinalResult is one player's line in the game-over summary.
type FinalResult struct {
	PlayerID string
	Score    int
}

func (LobbyPhase) PhaseName() PhaseName               { return PhaseLobby }
func (WaitingForPlayersPhase) PhaseName() PhaseName   { return PhaseWaitingForPlayers }
func (DealingPhase) PhaseName() PhaseName             { return PhaseDealing }
func (CheckSpecialHandsPhase) PhaseName() PhaseName   { return PhaseCheckSpecialHands }
func (TurnPlayCardPhase) PhaseName() PhaseName        { return PhaseTurnPlayCard }
func (TurnChooseFieldCardPhase) PhaseName() PhaseName { return PhaseTurnChooseFieldCard }
func (TurnFlipDeckPhase) PhaseName() PhaseName        { return PhaseTurnFlipDeck }
func (TurnChooseFlipMatchPhase) PhaseName() PhaseName { return PhaseTurnChooseFlipMatch }
func (TurnResolveCapturePhase) PhaseName() PhaseName  { return PhaseTurnResolveCapture }
func (TurnCheckScorePhase) PhaseName() PhaseName      { return PhaseTurnCheckScore }
func (AwaitingGoStopPhase) PhaseName() PhaseName      { return PhaseAwaitingGoStop }
func (RoundEndPhase) PhaseName() PhaseName            { return PhaseRoundEnd }
func (NagariPhase) PhaseName() PhaseName              { return PhaseNagari }
func (GameOverPhase) PhaseName() PhaseName            { return PhaseGameOver }
func (DisconnectedPhase) PhaseName() PhaseName        { return PhaseDisconnected }

// validTransitions is the exhaustive adjacency of legal phase changes. Every
// phase lists its complete set of legal successors; anything absent is
// rejected. DISCONNECTED is reachable from any mid-turn phase and resolves
// only into its bounded allow-list.
var validTransitions = map[PhaseName][]PhaseName{
	PhaseLobby:               {PhaseWaitingForPlayers},
	PhaseWaitingForPlayers:   {PhaseDealing, PhaseLobby},
	PhaseDealing:             {PhaseCheckSpecialHands},
	PhaseCheckSpecialHands:   {PhaseTurnPlayCard, PhaseDealing, PhaseRoundEnd},
	PhaseTurnPlayCard:        {PhaseTurnChooseFieldCard, PhaseTurnFlipDeck, PhaseTurnPlayCard, PhaseRoundEnd, PhaseDisconnected},
	PhaseTurnChooseFieldCard: {PhaseTurnFlipDeck, PhaseDisconnected},
	PhaseTurnFlipDeck:        {PhaseTurnChooseFlipMatch, PhaseTurnResolveCapture, PhaseRoundEnd, PhaseDisconnected},
	PhaseTurnChooseFlipMatch: {PhaseTurnResolveCapture, PhaseDisconnected},
	PhaseTurnResolveCapture:  {PhaseTurnCheckScore, PhaseDisconnected},
	PhaseTurnCheckScore:      {PhaseAwaitingGoStop, PhaseTurnPlayCard, PhaseRoundEnd, PhaseDisconnected},
	PhaseAwaitingGoStop:      {PhaseTurnPlayCard, PhaseRoundEnd, PhaseDisconnected},
	PhaseRoundEnd:            {PhaseDealing, PhaseNagari, PhaseGameOver},
	PhaseNagari:              {PhaseDealing},
	PhaseGameOver:            {PhaseLobby},
	PhaseDisconnected:        {PhaseTurnPlayCard, PhaseTurnChooseFieldCard, PhaseAwaitingGoStop, PhaseRoundEnd, PhaseGameOver},
}

// IsValidTransition reports whether the state machine permits moving from
// one phase to another. The engine consults it before committing any phase
// change; a violation is a programming error, never a user mistake.
func IsValidTransition(from, to Phase) bool {
	for _, next := range validTransitions[from.PhaseName()] {
		if next == to.PhaseName() {
			return true
		}
	}
	return false
}

func init() {
	// Phase is an interface field on replay snapshots; gob needs the
	// concrete types registered.
	gob.Register(LobbyPhase{})
	gob.Register(WaitingForPlayersPhase{})
	gob.Register(DealingPhase{})
	gob.Register(CheckSpecialHandsPhase{})
	gob.Register(TurnPlayCardPhase{})
	gob.Register(TurnChooseFieldCardPhase{})
	gob.Register(TurnFlipDeckPhase{})
	gob.Register(TurnChooseFlipMatchPhase{})
	gob.Register(TurnResolveCapturePhase{})
	gob.Register(TurnCheckScorePhase{})
	gob.Register(AwaitingGoStopPhase{})
	gob.Register(RoundEndPhase{})
	gob.Register(NagariPhase{})
	gob.Register(GameOverPhase{})
	gob.Register(DisconnectedPhase{})
}
