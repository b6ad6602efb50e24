package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gostop/gostop-server-go/internal/hwatu"
	"github.com/gostop/gostop-server-go/internal/scoring"
)

// DefaultTurnTimeout is the advisory per-turn deadline carried in phase
// data. Enforcement belongs to the transport scheduler, not the engine.
const DefaultTurnTimeout = 30 * time.Second

// chongTongPoints is the instant-win value of a declared chongtong.
const chongTongPoints = 10

// Engine owns one room's game state. All operations serialize on the
// engine mutex (single-writer per room); every operation builds a new
// snapshot and swaps it in atomically, so no partial update is ever
// visible.
type Engine struct {
	mu          sync.Mutex
	logger      *zap.Logger
	rng         *rand.Rand
	turnTimeout time.Duration
	bcryptCost  int
	recorder    *ReplayRecorder

	state *GameState
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeed makes shuffles deterministic, for tests and replays.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithTurnTimeout overrides the advisory turn deadline.
func WithTurnTimeout(d time.Duration) Option {
	return func(e *Engine) { e.turnTimeout = d }
}

// WithBcryptCost overrides the reconnect-token hash cost.
func WithBcryptCost(cost int) Option {
	return func(e *Engine) { e.bcryptCost = cost }
}

// WithRecorder attaches a replay recorder; a snapshot is recorded after
// every committed operation.
func WithRecorder(rec *ReplayRecorder) Option {
	return func(e *Engine) { e.recorder = rec }
}

// NewEngine builds a fresh game for the given seats: full deck, shuffle,
// deal per player count, phase DEALING, zeroed scores and empty captures.
func NewEngine(roomCode string, playerIDs []string, logger *zap.Logger, opts ...Option) (*Engine, error) {
	config, err := hwatu.DealConfigFor(len(playerIDs))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		logger:      logger,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		turnTimeout: DefaultTurnTimeout,
		bcryptCost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(e)
	}

	deal, err := hwatu.Deal(hwatu.Shuffle(hwatu.NewDeck(), e.rng), config)
	if err != nil {
		return nil, err
	}

	players := make([]PlayerState, len(playerIDs))
	for i, id := range playerIDs {
		players[i] = PlayerState{
			ID:        id,
			Hand:      deal.Hands[i],
			Connected: true,
		}
	}

	e.state = &GameState{
		RoomCode:           roomCode,
		Phase:              DealingPhase{RoundNumber: 1},
		Deck:               deal.Deck,
		Players:            players,
		Field:              deal.Field,
		CurrentPlayerIndex: 0,
		NagariCount:        0,
		RoundNumber:        1,
		ShakeMultipliers:   make(map[string]int),
		BombMultipliers:    make(map[string]int),
	}

	if e.recorder != nil {
		e.recorder.StartRecording(roomCode)
		e.recorder.RecordState(roomCode, e.state.Clone())
	}

	e.logger.Info("game created",
		zap.String("room_code", roomCode),
		zap.Int("player_count", len(playerIDs)),
		zap.Int("field_cards", len(deal.Field)),
		zap.Int("deck_cards", len(deal.Deck)),
	)
	return e, nil
}

// State returns a deep copy of the current snapshot.
func (e *Engine) State() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// RoomCode returns the room this engine belongs to.
func (e *Engine) RoomCode() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.RoomCode
}

// transition moves st to a new phase after consulting the state machine.
// A rejected transition is an engine bug, not user input.
func (e *Engine) transition(st *GameState, to Phase) error {
	if !IsValidTransition(st.Phase, to) {
		e.logger.Error("rejected phase transition",
			zap.String("room_code", st.RoomCode),
			zap.Stringer("from", st.Phase.PhaseName()),
			zap.Stringer("to", to.PhaseName()),
		)
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, st.Phase.PhaseName(), to.PhaseName())
	}
	st.Phase = to
	return nil
}

// commit swaps in the new snapshot and appends the turn record.
func (e *Engine) commit(st *GameState, playerID, action string) {
	st.History = append(st.History, TurnRecord{
		RoundNumber: st.RoundNumber,
		PlayerID:    playerID,
		Action:      action,
		Timestamp:   time.Now(),
	})
	e.state = st
	if e.recorder != nil {
		e.recorder.RecordState(st.RoomCode, st.Clone())
	}
}

func (e *Engine) deadline() time.Time {
	return time.Now().Add(e.turnTimeout)
}

// SpecialHands pairs a player with their post-deal special-hand check.
type SpecialHands struct {
	PlayerID string
	Check    hwatu.SpecialHandCheck
}

// Begin moves DEALING to CHECK_SPECIAL_HANDS and reports each player's
// declarable special hands.
func (e *Engine) Begin() ([]SpecialHands, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.state.Phase.(DealingPhase); !ok {
		return nil, ErrInvalidPhase
	}

	st := e.state.Clone()
	if err := e.transition(st, CheckSpecialHandsPhase{}); err != nil {
		return nil, err
	}

	checks := make([]SpecialHands, len(st.Players))
	for i, p := range st.Players {
		checks[i] = SpecialHands{PlayerID: p.ID, Check: hwatu.CheckSpecialHands(p.Hand)}
	}

	e.commit(st, "", "CHECK_SPECIAL_HANDS")
	return checks, nil
}

// StartTurns moves CHECK_SPECIAL_HANDS into the first TURN_PLAY_CARD.
func (e *Engine) StartTurns() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.state.Phase.(CheckSpecialHandsPhase); !ok {
		return ErrInvalidPhase
	}

	st := e.state.Clone()
	current := st.CurrentPlayer()
	if current == nil {
		return ErrPlayerNotFound
	}
	if err := e.transition(st, TurnPlayCardPhase{CurrentPlayerID: current.ID, TimeoutAt: e.deadline()}); err != nil {
		return err
	}
	e.commit(st, current.ID, "TURN_START")
	return nil
}

// RequestReshuffle redeals the round for a player holding no two cards of
// the same month. Valid only during CHECK_SPECIAL_HANDS.
func (e *Engine) RequestReshuffle(playerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.state.Phase.(CheckSpecialHandsPhase); !ok {
		return ErrInvalidPhase
	}
	idx := e.state.playerIndex(playerID)
	if idx < 0 {
		return ErrPlayerNotFound
	}
	if !hwatu.CanRequestReshuffle(e.state.Players[idx].Hand) {
		return ErrInvalidAction
	}

	st := e.state.Clone()
	if err := e.transition(st, DealingPhase{RoundNumber: st.RoundNumber}); err != nil {
		return err
	}
	if err := e.redeal(st); err != nil {
		return err
	}
	e.commit(st, playerID, "RESHUFFLE")

	e.logger.Info("hand reshuffled",
		zap.String("room_code", st.RoomCode),
		zap.String("player_id", playerID),
	)
	return nil
}

// DeclareChongTong ends the round immediately for a player dealt all four
// cards of one month.
func (e *Engine) DeclareChongTong(playerID string, month hwatu.Month) (StopResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.state.Phase.(CheckSpecialHandsPhase); !ok {
		return StopResult{}, ErrInvalidPhase
	}
	idx := e.state.playerIndex(playerID)
	if idx < 0 {
		return StopResult{}, ErrPlayerNotFound
	}
	if got, ok := hwatu.CheckChongTong(e.state.Players[idx].Hand); !ok || got != month {
		return StopResult{}, ErrInvalidAction
	}

	st := e.state.Clone()
	breakdown := scoring.ScoreBreakdown{BasePoints: chongTongPoints, FinalPoints: chongTongPoints}
	if err := e.transition(st, RoundEndPhase{WinnerID: playerID, Breakdown: breakdown}); err != nil {
		return StopResult{}, err
	}
	st.Players[idx].Score += chongTongPoints
	e.commit(st, playerID, fmt.Sprintf("CHONGTONG %d", month))

	e.logger.Info("chongtong declared",
		zap.String("room_code", st.RoomCode),
		zap.String("player_id", playerID),
		zap.Int("month", int(month)),
	)
	return StopResult{WinnerID: playerID, Breakdown: breakdown}, nil
}

// PlayResult describes what happened to a played card.
type PlayResult struct {
	Played  hwatu.Card
	Matches []hwatu.Card
	IsBomb  bool
}

// PlayCard removes cardID from the player's hand and applies the capture
// policy against the field. All match counts except 2 resolve immediately
// and move to TURN_FLIP_DECK; a 2-match records a pending choice and moves
// to TURN_CHOOSE_FIELD_CARD.
func (e *Engine) PlayCard(playerID, cardID string) (PlayResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	phase, ok := e.state.Phase.(TurnPlayCardPhase)
	if !ok {
		return PlayResult{}, ErrInvalidPhase
	}
	if phase.CurrentPlayerID != playerID {
		return PlayResult{}, ErrNotYourTurn
	}
	idx := e.state.playerIndex(playerID)
	if idx < 0 {
		return PlayResult{}, ErrPlayerNotFound
	}

	st := e.state.Clone()
	player := &st.Players[idx]

	cardIdx := -1
	for i, c := range player.Hand {
		if c.ID == cardID {
			cardIdx = i
			break
		}
	}
	if cardIdx < 0 {
		return PlayResult{}, ErrCardNotInHand
	}
	card := player.Hand[cardIdx]
	player.Hand = append(player.Hand[:cardIdx:cardIdx], player.Hand[cardIdx+1:]...)

	matches := hwatu.Matches(card, st.Field)
	bomb := hwatu.IsBomb(hwatu.MatchCount(card, st.Field))

	switch len(matches) {
	case 0:
		st.Field = append(st.Field, card)
	case 1:
		removeFromField(st, matches[0].ID)
		player.Captured.Add(card)
		player.Captured.Add(matches[0])
	case 2:
		st.Pending = &PendingChoice{Source: ChoiceFromPlay, Card: card, MatchOptions: matches}
	default: // bomb: the whole month leaves the field
		player.Captured.Add(card)
		for _, m := range matches {
			removeFromField(st, m.ID)
			player.Captured.Add(m)
		}
		st.BombMultipliers[playerID]++
	}

	var next Phase
	if len(matches) == 2 {
		next = TurnChooseFieldCardPhase{
			CurrentPlayerID: playerID,
			MatchOptions:    cardIDs(matches),
			TimeoutAt:       e.deadline(),
		}
	} else {
		next = TurnFlipDeckPhase{CurrentPlayerID: playerID, TimeoutAt: e.deadline()}
	}
	if err := e.transition(st, next); err != nil {
		return PlayResult{}, err
	}

	e.commit(st, playerID, "PLAY_CARD "+cardID)
	return PlayResult{Played: card, Matches: matches, IsBomb: bomb}, nil
}

// FlipResult describes what happened to a flipped deck card.
type FlipResult struct {
	Flipped hwatu.Card
	Matches []hwatu.Card
	IsBomb  bool
}

// FlipDeck reveals the front deck card and applies the capture policy. A
// three-match flip captures the whole month exactly like a played bomb; a
// two-match records a pending choice and moves to TURN_CHOOSE_FLIP_MATCH;
// everything else resolves to TURN_RESOLVE_CAPTURE.
func (e *Engine) FlipDeck(playerID string) (FlipResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	phase, ok := e.state.Phase.(TurnFlipDeckPhase)
	if !ok {
		return FlipResult{}, ErrInvalidPhase
	}
	if phase.CurrentPlayerID != playerID {
		return FlipResult{}, ErrNotYourTurn
	}
	if len(e.state.Deck) == 0 {
		return FlipResult{}, ErrDeckEmpty
	}
	idx := e.state.playerIndex(playerID)
	if idx < 0 {
		return FlipResult{}, ErrPlayerNotFound
	}

	st := e.state.Clone()
	player := &st.Players[idx]

	flipped := st.Deck[0]
	st.Deck = st.Deck[1:]

	matches := hwatu.Matches(flipped, st.Field)
	bomb := hwatu.IsBomb(hwatu.MatchCount(flipped, st.Field))

	switch len(matches) {
	case 0:
		st.Field = append(st.Field, flipped)
	case 1:
		removeFromField(st, matches[0].ID)
		player.Captured.Add(flipped)
		player.Captured.Add(matches[0])
	case 2:
		st.Pending = &PendingChoice{Source: ChoiceFromFlip, Card: flipped, MatchOptions: matches}
	default:
		player.Captured.Add(flipped)
		for _, m := range matches {
			removeFromField(st, m.ID)
			player.Captured.Add(m)
		}
		st.BombMultipliers[playerID]++
	}

	var next Phase
	if len(matches) == 2 {
		next = TurnChooseFlipMatchPhase{
			CurrentPlayerID: playerID,
			MatchOptions:    cardIDs(matches),
			TimeoutAt:       e.deadline(),
		}
	} else {
		next = TurnResolveCapturePhase{CurrentPlayerID: playerID}
	}
	if err := e.transition(st, next); err != nil {
		return FlipResult{}, err
	}

	e.commit(st, playerID, "FLIP_DECK "+flipped.ID)
	return FlipResult{Flipped: flipped, Matches: matches, IsBomb: bomb}, nil
}

// ChooseFieldCard resolves the pending two-match choice of a played card.
func (e *Engine) ChooseFieldCard(playerID, chosenCardID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	phase, ok := e.state.Phase.(TurnChooseFieldCardPhase)
	if !ok {
		return ErrInvalidPhase
	}
	next := TurnFlipDeckPhase{CurrentPlayerID: phase.CurrentPlayerID, TimeoutAt: e.deadline()}
	return e.resolveChoice(playerID, chosenCardID, phase.CurrentPlayerID, ChoiceFromPlay, next, "CHOOSE_FIELD_CARD")
}

// ChooseFlipMatch resolves the pending two-match choice of a flipped card.
func (e *Engine) ChooseFlipMatch(playerID, chosenCardID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	phase, ok := e.state.Phase.(TurnChooseFlipMatchPhase)
	if !ok {
		return ErrInvalidPhase
	}
	next := TurnResolveCapturePhase{CurrentPlayerID: phase.CurrentPlayerID}
	return e.resolveChoice(playerID, chosenCardID, phase.CurrentPlayerID, ChoiceFromFlip, next, "CHOOSE_FLIP_MATCH")
}

// resolveChoice captures the pending card together with the chosen field
// card and clears the choice context. Caller holds the engine mutex.
func (e *Engine) resolveChoice(playerID, chosenCardID, currentPlayerID string, source ChoiceSource, next Phase, action string) error {
	if currentPlayerID != playerID {
		return ErrNotYourTurn
	}
	pending := e.state.Pending
	if pending == nil || pending.Source != source {
		return ErrNoTurnContext
	}
	idx := e.state.playerIndex(playerID)
	if idx < 0 {
		return ErrPlayerNotFound
	}

	var chosen *hwatu.Card
	for i := range e.state.Field {
		if e.state.Field[i].ID == chosenCardID {
			chosen = &e.state.Field[i]
			break
		}
	}
	if chosen == nil {
		return ErrCardNotOnField
	}
	valid := false
	for _, option := range pending.MatchOptions {
		if option.ID == chosenCardID {
			valid = true
			break
		}
	}
	if !valid {
		return ErrInvalidChoice
	}

	st := e.state.Clone()
	player := &st.Players[idx]
	removeFromField(st, chosenCardID)
	player.Captured.Add(st.Pending.Card)
	player.Captured.Add(*chosen)
	st.Pending = nil

	if err := e.transition(st, next); err != nil {
		return err
	}
	e.commit(st, playerID, action+" "+chosenCardID)
	return nil
}

// TurnResult summarizes turn resolution for the transport.
type TurnResult struct {
	Breakdown    scoring.ScoreBreakdown
	CanGoStop    bool
	RoundOver    bool
	NextPlayerID string
}

// FinishTurn moves TURN_RESOLVE_CAPTURE through TURN_CHECK_SCORE and
// decides what follows: AWAITING_GO_STOP when the player became eligible,
// ROUND_END with no winner when every hand is exhausted, otherwise the
// next player's TURN_PLAY_CARD.
func (e *Engine) FinishTurn(playerID string) (TurnResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	phase, ok := e.state.Phase.(TurnResolveCapturePhase)
	if !ok {
		return TurnResult{}, ErrInvalidPhase
	}
	if phase.CurrentPlayerID != playerID {
		return TurnResult{}, ErrNotYourTurn
	}
	idx := e.state.playerIndex(playerID)
	if idx < 0 {
		return TurnResult{}, ErrPlayerNotFound
	}

	st := e.state.Clone()
	if err := e.transition(st, TurnCheckScorePhase{CurrentPlayerID: playerID}); err != nil {
		return TurnResult{}, err
	}

	player := &st.Players[idx]
	breakdown := scoring.ApplyMultipliers(scoring.Calculate(player.Captured), e.playerMultipliers(st, player))
	canGoStop := hwatu.CanDeclareGoStop(breakdown.FinalPoints, len(st.Players))
	exhausted := handsExhausted(st)

	result := TurnResult{Breakdown: breakdown, CanGoStop: canGoStop}
	switch {
	case canGoStop:
		if err := e.transition(st, AwaitingGoStopPhase{
			CurrentPlayerID: playerID,
			CurrentScore:    breakdown.FinalPoints,
			GoCount:         player.GoCount,
			TimeoutAt:       e.deadline(),
		}); err != nil {
			return TurnResult{}, err
		}
	case exhausted:
		// Nobody stopped and the hands ran out: no winner.
		if err := e.transition(st, RoundEndPhase{}); err != nil {
			return TurnResult{}, err
		}
		result.RoundOver = true
	default:
		nextIdx := (st.CurrentPlayerIndex + 1) % len(st.Players)
		next := st.Players[nextIdx]
		if err := e.transition(st, TurnPlayCardPhase{CurrentPlayerID: next.ID, TimeoutAt: e.deadline()}); err != nil {
			return TurnResult{}, err
		}
		st.CurrentPlayerIndex = nextIdx
		st.Pending = nil
		result.NextPlayerID = next.ID
	}

	e.commit(st, playerID, "FINISH_TURN")
	return result, nil
}

// ScoreCheck is the result of a read-only score query.
type ScoreCheck struct {
	Breakdown scoring.ScoreBreakdown
	CanGoStop bool
}

// CheckScore computes the player's current breakdown with their earned
// multipliers applied and whether they may declare Go or Stop. It never
// mutates state; eligibility always uses FinalPoints.
func (e *Engine) CheckScore(playerID string) (ScoreCheck, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.state.playerIndex(playerID)
	if idx < 0 {
		return ScoreCheck{}, ErrPlayerNotFound
	}

	player := &e.state.Players[idx]
	breakdown := scoring.ApplyMultipliers(scoring.Calculate(player.Captured), e.playerMultipliers(e.state, player))
	return ScoreCheck{
		Breakdown: breakdown,
		CanGoStop: hwatu.CanDeclareGoStop(breakdown.FinalPoints, len(e.state.Players)),
	}, nil
}

// handsExhausted reports whether no player has a card left to play.
func handsExhausted(st *GameState) bool {
	for _, p := range st.Players {
		if len(p.Hand) > 0 {
			return false
		}
	}
	return true
}

// DeclareGo records the player's choice to continue. It does not advance
// the turn; the caller invokes AdvanceTurn afterward. With every hand
// exhausted there is nothing left to continue into, so an eligible player
// on the round's final capture must stop.
func (e *Engine) DeclareGo(playerID string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	phase, ok := e.state.Phase.(AwaitingGoStopPhase)
	if !ok {
		return 0, ErrInvalidPhase
	}
	if phase.CurrentPlayerID != playerID {
		return 0, ErrNotYourTurn
	}
	idx := e.state.playerIndex(playerID)
	if idx < 0 {
		return 0, ErrPlayerNotFound
	}
	if handsExhausted(e.state) {
		return 0, ErrInvalidAction
	}

	st := e.state.Clone()
	st.Players[idx].GoCount++
	goCount := st.Players[idx].GoCount
	e.commit(st, playerID, "DECLARE_GO")

	e.logger.Info("go declared",
		zap.String("room_code", st.RoomCode),
		zap.String("player_id", playerID),
		zap.Int("go_count", goCount),
	)
	return goCount, nil
}

// StopResult carries the round outcome of a stop or chongtong.
type StopResult struct {
	WinnerID  string
	Breakdown scoring.ScoreBreakdown
}

// DeclareStop banks the player's score and ends the round. A carried
// nagari doubles the winner's points once per carried round.
func (e *Engine) DeclareStop(playerID string) (StopResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	phase, ok := e.state.Phase.(AwaitingGoStopPhase)
	if !ok {
		return StopResult{}, ErrInvalidPhase
	}
	if phase.CurrentPlayerID != playerID {
		return StopResult{}, ErrNotYourTurn
	}
	idx := e.state.playerIndex(playerID)
	if idx < 0 {
		return StopResult{}, ErrPlayerNotFound
	}

	st := e.state.Clone()
	player := &st.Players[idx]

	multipliers := e.playerMultipliers(st, player)
	for i := 0; i < st.NagariCount; i++ {
		multipliers = append(multipliers, scoring.Multiplier{Type: scoring.MultiplierNagari, Value: 2})
	}
	breakdown := scoring.ApplyMultipliers(scoring.Calculate(player.Captured), multipliers)
	if !hwatu.CanDeclareGoStop(breakdown.FinalPoints, len(st.Players)) {
		return StopResult{}, ErrCannotStop
	}

	if err := e.transition(st, RoundEndPhase{WinnerID: playerID, Breakdown: breakdown}); err != nil {
		return StopResult{}, err
	}
	player.Score += breakdown.FinalPoints
	st.NagariCount = 0
	e.commit(st, playerID, "DECLARE_STOP")

	e.logger.Info("stop declared",
		zap.String("room_code", st.RoomCode),
		zap.String("player_id", playerID),
		zap.Int("final_points", breakdown.FinalPoints),
	)
	return StopResult{WinnerID: playerID, Breakdown: breakdown}, nil
}

// DeclareShake records a shake for a month with exactly three hand cards,
// doubling the declarer's eventual round score.
func (e *Engine) DeclareShake(playerID string, month hwatu.Month) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	phase, ok := e.state.Phase.(TurnPlayCardPhase)
	if !ok {
		return ErrInvalidPhase
	}
	if phase.CurrentPlayerID != playerID {
		return ErrNotYourTurn
	}
	idx := e.state.playerIndex(playerID)
	if idx < 0 {
		return ErrPlayerNotFound
	}
	if !hwatu.CanDeclareShake(e.state.Players[idx].Hand, month) {
		return ErrInvalidAction
	}

	st := e.state.Clone()
	st.ShakeMultipliers[playerID]++
	e.commit(st, playerID, fmt.Sprintf("DECLARE_SHAKE %d", month))
	return nil
}

// AdvanceTurn rotates to the next player and opens their TURN_PLAY_CARD
// phase with a fresh deadline. Any pending choice is cleared.
func (e *Engine) AdvanceTurn() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.advanceTurnLocked()
}

func (e *Engine) advanceTurnLocked() error {
	if len(e.state.Players) == 0 {
		return ErrPlayerNotFound
	}

	st := e.state.Clone()
	nextIdx := (st.CurrentPlayerIndex + 1) % len(st.Players)
	next := st.Players[nextIdx]
	if err := e.transition(st, TurnPlayCardPhase{CurrentPlayerID: next.ID, TimeoutAt: e.deadline()}); err != nil {
		return err
	}
	st.CurrentPlayerIndex = nextIdx
	st.Pending = nil
	e.commit(st, next.ID, "ADVANCE_TURN")
	return nil
}

// ForceAdvance drives the turn forward on behalf of an unresponsive
// player: pending choices take the first option, the flip and resolution
// steps run, an unanswered Go/Stop banks the score as a stop, and a game
// parked in DISCONNECTED resumes its interrupted phase first. It stops
// once a new TURN_PLAY_CARD or a terminal phase is reached.
func (e *Engine) ForceAdvance() error {
	for i := 0; i < 8; i++ {
		e.mu.Lock()
		phase := e.state.Phase
		var pendingFirst string
		if e.state.Pending != nil && len(e.state.Pending.MatchOptions) > 0 {
			pendingFirst = e.state.Pending.MatchOptions[0].ID
		}
		e.mu.Unlock()

		switch p := phase.(type) {
		case TurnChooseFieldCardPhase:
			if err := e.ChooseFieldCard(p.CurrentPlayerID, pendingFirst); err != nil {
				return err
			}
		case TurnChooseFlipMatchPhase:
			if err := e.ChooseFlipMatch(p.CurrentPlayerID, pendingFirst); err != nil {
				return err
			}
		case TurnFlipDeckPhase:
			if _, err := e.FlipDeck(p.CurrentPlayerID); err != nil {
				return err
			}
		case TurnResolveCapturePhase:
			result, err := e.FinishTurn(p.CurrentPlayerID)
			if err != nil {
				return err
			}
			// FinishTurn already handed the turn off unless the player
			// became eligible, in which case the next pass stops for them.
			if !result.CanGoStop {
				return nil
			}
		case AwaitingGoStopPhase:
			if _, err := e.DeclareStop(p.CurrentPlayerID); err != nil {
				return err
			}
			return nil
		case TurnPlayCardPhase:
			return e.AdvanceTurn()
		case DisconnectedPhase:
			if err := e.resumeInterrupted(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return fmt.Errorf("force advance did not settle")
}

// resumeInterrupted restores the phase the game parked from, leaving the
// absent player flagged disconnected, so the loop can force the turn past
// them once their grace ran out.
func (e *Engine) resumeInterrupted() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.state.Phase.(DisconnectedPhase)
	if !ok || e.state.Interrupted == nil {
		return ErrInvalidPhase
	}

	st := e.state.Clone()
	if err := e.transition(st, st.Interrupted); err != nil {
		return err
	}
	st.Interrupted = nil
	e.commit(st, p.DisconnectedPlayerID, "GRACE_EXPIRED")
	return nil
}

// IssueReconnectToken generates a fresh reconnect token for the player and
// stores only its bcrypt hash. The plaintext is returned exactly once.
func (e *Engine) IssueReconnectToken(playerID string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.state.playerIndex(playerID)
	if idx < 0 {
		return "", ErrPlayerNotFound
	}

	token := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), e.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash reconnect token: %w", err)
	}

	st := e.state.Clone()
	st.Players[idx].ReconnectToken = hash
	e.commit(st, playerID, "ISSUE_TOKEN")
	return token, nil
}

// MarkDisconnected flips the player's connectivity flag. If the player is
// the one the game is waiting on in a resumable phase, the game parks in
// DISCONNECTED until they return or the transport forfeits them. Hands,
// field, deck and captures are never touched.
func (e *Engine) MarkDisconnected(playerID string, graceUntil time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.state.playerIndex(playerID)
	if idx < 0 {
		return ErrPlayerNotFound
	}

	st := e.state.Clone()
	st.Players[idx].Connected = false

	if interruptible(st.Phase, playerID) {
		st.Interrupted = st.Phase
		if err := e.transition(st, DisconnectedPhase{DisconnectedPlayerID: playerID, TimeoutAt: graceUntil}); err != nil {
			return err
		}
	}
	e.commit(st, playerID, "DISCONNECT")

	e.logger.Info("player disconnected",
		zap.String("room_code", st.RoomCode),
		zap.String("player_id", playerID),
	)
	return nil
}

// interruptible reports whether the game should park while playerID is
// away: only when the absent player is the one being waited on, and only
// from phases the state machine allows resuming into.
func interruptible(phase Phase, playerID string) bool {
	switch p := phase.(type) {
	case TurnPlayCardPhase:
		return p.CurrentPlayerID == playerID
	case TurnChooseFieldCardPhase:
		return p.CurrentPlayerID == playerID
	case AwaitingGoStopPhase:
		return p.CurrentPlayerID == playerID
	default:
		return false
	}
}

// Reconnect verifies the player's reconnect token, restores their
// connectivity flag and resumes the interrupted phase if the game was
// parked for them.
func (e *Engine) Reconnect(playerID, token string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.state.playerIndex(playerID)
	if idx < 0 {
		return ErrPlayerNotFound
	}
	if bcrypt.CompareHashAndPassword(e.state.Players[idx].ReconnectToken, []byte(token)) != nil {
		return ErrInvalidReconntoken
	}

	st := e.state.Clone()
	st.Players[idx].Connected = true

	if p, ok := st.Phase.(DisconnectedPhase); ok && p.DisconnectedPlayerID == playerID && st.Interrupted != nil {
		if err := e.transition(st, st.Interrupted); err != nil {
			return err
		}
		st.Interrupted = nil
	}
	e.commit(st, playerID, "RECONNECT")

	e.logger.Info("player reconnected",
		zap.String("room_code", st.RoomCode),
		zap.String("player_id", playerID),
	)
	return nil
}

// Nagari moves a winnerless ROUND_END into NAGARI, carrying the doubled
// stake into the next round.
func (e *Engine) Nagari() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	phase, ok := e.state.Phase.(RoundEndPhase)
	if !ok {
		return ErrInvalidPhase
	}
	if phase.WinnerID != "" {
		return ErrInvalidAction
	}

	st := e.state.Clone()
	st.NagariCount++
	if err := e.transition(st, NagariPhase{NagariCount: st.NagariCount}); err != nil {
		return err
	}
	e.commit(st, "", "NAGARI")
	return nil
}

// NextRound redeals for a new round after ROUND_END or NAGARI. Cumulative
// scores and the nagari counter carry over; everything else resets.
func (e *Engine) NextRound() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state.Phase.(type) {
	case RoundEndPhase, NagariPhase:
	default:
		return ErrInvalidPhase
	}

	st := e.state.Clone()
	st.RoundNumber++
	if err := e.transition(st, DealingPhase{RoundNumber: st.RoundNumber}); err != nil {
		return err
	}
	if err := e.redeal(st); err != nil {
		return err
	}
	e.commit(st, "", "NEXT_ROUND")

	e.logger.Info("round dealt",
		zap.String("room_code", st.RoomCode),
		zap.Int("round", st.RoundNumber),
		zap.Int("nagari_count", st.NagariCount),
	)
	return nil
}

// redeal rebuilds deck, hands and field in place for st's player count.
func (e *Engine) redeal(st *GameState) error {
	config, err := hwatu.DealConfigFor(len(st.Players))
	if err != nil {
		return err
	}
	deal, err := hwatu.Deal(hwatu.Shuffle(hwatu.NewDeck(), e.rng), config)
	if err != nil {
		return err
	}

	st.Deck = deal.Deck
	st.Field = deal.Field
	st.CurrentPlayerIndex = 0
	st.Pending = nil
	st.ShakeMultipliers = make(map[string]int)
	st.BombMultipliers = make(map[string]int)
	for i := range st.Players {
		st.Players[i].Hand = deal.Hands[i]
		st.Players[i].Captured = scoring.CapturedCards{}
		st.Players[i].GoCount = 0
	}
	return nil
}

// Finish moves ROUND_END to GAME_OVER with the cumulative standings.
func (e *Engine) Finish() ([]FinalResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.state.Phase.(RoundEndPhase); !ok {
		return nil, ErrInvalidPhase
	}

	st := e.state.Clone()
	results := make([]FinalResult, len(st.Players))
	for i, p := range st.Players {
		results[i] = FinalResult{PlayerID: p.ID, Score: p.Score}
	}
	if err := e.transition(st, GameOverPhase{Results: results}); err != nil {
		return nil, err
	}
	e.commit(st, "", "GAME_OVER")
	return results, nil
}

// playerMultipliers assembles the tagged multiplier list a player has
// earned so far: go count, one doubling per declared shake, one per bomb.
func (e *Engine) playerMultipliers(st *GameState, player *PlayerState) []scoring.Multiplier {
	var out []scoring.Multiplier
	if player.GoCount > 0 {
		out = append(out, scoring.Multiplier{Type: scoring.MultiplierGo, Value: player.GoCount})
	}
	for i := 0; i < st.ShakeMultipliers[player.ID]; i++ {
		out = append(out, scoring.Multiplier{Type: scoring.MultiplierShake, Value: 2})
	}
	for i := 0; i < st.BombMultipliers[player.ID]; i++ {
		out = append(out, scoring.Multiplier{Type: scoring.MultiplierBomb, Value: 2})
	}
	return out
}

func removeFromField(st *GameState, cardID string) {
	for i, c := range st.Field {
		if c.ID == cardID {
			st.Field = append(st.Field[:i:i], st.Field[i+1:]...)
			return
		}
	}
}

func cardIDs(cards []hwatu.Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}
