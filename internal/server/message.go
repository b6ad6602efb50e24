package server

import (
	"encoding/json"

	"github.com/gostop/gostop-server-go/internal/game"
	"github.com/gostop/gostop-server-go/internal/hwatu"
	"github.com/gostop/gostop-server-go/internal/room"
	"github.com/gostop/gostop-server-go/internal/scoring"
)

// Client-to-server event names.
const (
	EvtRoomCreate       = "room:create"
	EvtRoomJoin         = "room:join"
	EvtRoomLeave        = "room:leave"
	EvtRoomReady        = "room:ready"
	EvtRoomStart        = "room:start"
	EvtRoomKick         = "room:kick"
	EvtRoomChat         = "room:chat"
	EvtPlayCard         = "game:play_card"
	EvtChooseFieldCard  = "game:choose_field_card"
	EvtChooseFlipMatch  = "game:choose_flip_match"
	EvtDeclareGo        = "game:declare_go"
	EvtDeclareStop      = "game:declare_stop"
	EvtDeclareShake     = "game:declare_shake"
	EvtDeclareChongTong = "game:declare_chongtong"
	EvtRequestReshuffle = "game:request_reshuffle"
	EvtPing             = "connection:ping"
	EvtReconnect        = "connection:reconnect"
)

// Server-to-client event names.
const (
	EvtRoomCreated        = "room:created"
	EvtRoomJoined         = "room:joined"
	EvtRoomPlayerJoined   = "room:player_joined"
	EvtRoomPlayerLeft     = "room:player_left"
	EvtRoomPlayerReady    = "room:player_ready"
	EvtRoomPlayerKicked   = "room:player_kicked"
	EvtRoomChatMessage    = "room:chat_message"
	EvtGameStarted        = "game:started"
	EvtGameState          = "game:state"
	EvtSpecialHandCheck   = "game:special_hand_check"
	EvtTurnStart          = "game:turn_start"
	EvtCardPlayed         = "game:card_played"
	EvtDeckFlipped        = "game:deck_flipped"
	EvtFieldCardChosen    = "game:field_card_chosen"
	EvtFlipMatchChosen    = "game:flip_match_chosen"
	EvtScoreCheck         = "game:score_check"
	EvtGoDeclared         = "game:go_declared"
	EvtStopDeclared       = "game:stop_declared"
	EvtShakeDeclared      = "game:shake_declared"
	EvtChongTongDeclared  = "game:chongtong_declared"
	EvtRoundEnd           = "game:round_end"
	EvtNagari             = "game:nagari"
	EvtGameOver           = "game:over"
	EvtPong               = "connection:pong"
	EvtPlayerDisconnected = "connection:player_disconnected"
	EvtPlayerReconnected  = "connection:player_reconnected"
	EvtErrorRoom          = "error:room"
	EvtErrorGame          = "error:game"
	EvtErrorInvalidAction = "error:invalid_action"
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload into an outbound frame.
func NewEnvelope(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Payload: raw})
}

// Client payloads.

type RoomCreatePayload struct {
	PlayerName string `json:"playerName"`
	MaxPlayers int    `json:"maxPlayers"`
	IsPrivate  bool   `json:"isPrivate"`
}

type RoomJoinPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type RoomCodePayload struct {
	RoomCode string `json:"roomCode"`
}

type RoomReadyPayload struct {
	RoomCode string `json:"roomCode"`
	Ready    bool   `json:"ready"`
}

type RoomKickPayload struct {
	RoomCode       string `json:"roomCode"`
	TargetPlayerID string `json:"targetPlayerId"`
}

type RoomChatPayload struct {
	RoomCode string `json:"roomCode"`
	Message  string `json:"message"`
}

type CardPayload struct {
	CardID string `json:"cardId"`
}

type MonthPayload struct {
	Month hwatu.Month `json:"month"`
}

type PingPayload struct {
	Timestamp int64 `json:"timestamp"`
}

type ReconnectPayload struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

// Server payloads.

type RoomCreatedPayload struct {
	RoomCode string     `json:"roomCode"`
	Room     room.State `json:"room"`
}

type RoomJoinedPayload struct {
	Room     room.State `json:"room"`
	PlayerID string     `json:"playerId"`
}

type PlayerJoinedPayload struct {
	Player room.Player `json:"player"`
}

type PlayerIDPayload struct {
	PlayerID string `json:"playerId"`
}

type PlayerReadyPayload struct {
	PlayerID string `json:"playerId"`
	Ready    bool   `json:"ready"`
}

type ChatMessagePayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

type GameStatePayload struct {
	GameState game.GameView `json:"gameState"`
}

type SpecialHandCheckPayload struct {
	Checks []game.SpecialHands `json:"checks"`
}

type TurnStartPayload struct {
	CurrentPlayerID string `json:"currentPlayerId"`
	TimeLimit       int64  `json:"timeLimit"`
}

type CardPlayedPayload struct {
	PlayerID     string       `json:"playerId"`
	Card         hwatu.Card   `json:"card"`
	MatchOptions []hwatu.Card `json:"matchOptions"`
	IsBomb       bool         `json:"isBomb"`
}

type DeckFlippedPayload struct {
	Card         hwatu.Card   `json:"card"`
	MatchOptions []hwatu.Card `json:"matchOptions"`
	IsBomb       bool         `json:"isBomb"`
}

type CardChosenPayload struct {
	PlayerID string `json:"playerId"`
	CardID   string `json:"cardId"`
}

type ScoreCheckPayload struct {
	PlayerID  string                 `json:"playerId"`
	Score     int                    `json:"score"`
	Breakdown scoring.ScoreBreakdown `json:"breakdown"`
	CanGoStop bool                   `json:"canGoStop"`
}

type GoDeclaredPayload struct {
	PlayerID string `json:"playerId"`
	GoCount  int    `json:"goCount"`
}

type ShakeDeclaredPayload struct {
	PlayerID string      `json:"playerId"`
	Month    hwatu.Month `json:"month"`
}

type ChongTongDeclaredPayload struct {
	PlayerID string      `json:"playerId"`
	Month    hwatu.Month `json:"month"`
}

type RoundEndPayload struct {
	Winner         string                 `json:"winner,omitempty"`
	ScoreBreakdown scoring.ScoreBreakdown `json:"scoreBreakdown"`
	FinalScore     int                    `json:"finalScore"`
}

type NagariPayload struct {
	NagariCount int `json:"nagariCount"`
}

type GameOverPayload struct {
	Results []game.FinalResult `json:"results"`
}

type PongPayload struct {
	Timestamp  int64 `json:"timestamp"`
	ServerTime int64 `json:"serverTime"`
}

type DisconnectedPayload struct {
	PlayerID string `json:"playerId"`
	Timeout  int64  `json:"timeout"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}
