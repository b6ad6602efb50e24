package server

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/gostop/gostop-server-go/internal/game"
	"github.com/gostop/gostop-server-go/internal/repository"
	"github.com/gostop/gostop-server-go/internal/room"
	"github.com/gostop/gostop-server-go/internal/scoring"
)

// dispatch routes one inbound frame. Every frame renews the session lease.
func (s *Server) dispatch(c *Client, env Envelope) {
	if c.SessionID != "" {
		if err := s.sessions.Renew(c.SessionID); err != nil {
			s.logger.Warn("lease renewal failed",
				zap.String("player_id", c.PlayerID),
				zap.Error(err),
			)
		}
	}

	switch env.Event {
	case EvtRoomCreate:
		s.handleRoomCreate(c, env.Payload)
	case EvtRoomJoin:
		s.handleRoomJoin(c, env.Payload)
	case EvtRoomLeave:
		s.handleRoomLeave(c)
	case EvtRoomReady:
		s.handleRoomReady(c, env.Payload)
	case EvtRoomStart:
		s.handleRoomStart(c)
	case EvtRoomKick:
		s.handleRoomKick(c, env.Payload)
	case EvtRoomChat:
		s.handleRoomChat(c, env.Payload)
	case EvtPlayCard:
		s.handlePlayCard(c, env.Payload)
	case EvtChooseFieldCard:
		s.handleChooseFieldCard(c, env.Payload)
	case EvtChooseFlipMatch:
		s.handleChooseFlipMatch(c, env.Payload)
	case EvtDeclareGo:
		s.handleDeclareGo(c)
	case EvtDeclareStop:
		s.handleDeclareStop(c)
	case EvtDeclareShake:
		s.handleDeclareShake(c, env.Payload)
	case EvtDeclareChongTong:
		s.handleDeclareChongTong(c, env.Payload)
	case EvtRequestReshuffle:
		s.handleRequestReshuffle(c)
	case EvtPing:
		s.handlePing(c, env.Payload)
	case EvtReconnect:
		s.handleReconnect(c, env.Payload)
	default:
		c.SendError(EvtErrorInvalidAction, "unknown event: "+env.Event, "UNKNOWN_EVENT")
	}
}

func decode[T any](c *Client, raw json.RawMessage, errEvent string) (T, bool) {
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.SendError(errEvent, "invalid payload", "BAD_PAYLOAD")
		return payload, false
	}
	return payload, true
}

// --- room events ---

func (s *Server) handleRoomCreate(c *Client, raw json.RawMessage) {
	payload, ok := decode[RoomCreatePayload](c, raw, EvtErrorRoom)
	if !ok {
		return
	}

	code, err := s.rooms.GenerateCode()
	if err != nil {
		c.SendError(EvtErrorRoom, "failed to create room", "CREATE_FAILED")
		return
	}
	r, err := s.rooms.CreateRoom(code, payload.MaxPlayers, payload.IsPrivate, c.PlayerID)
	if err != nil {
		c.SendError(EvtErrorRoom, err.Error(), "CREATE_FAILED")
		return
	}

	c.Name = payload.PlayerName
	if err := r.AddPlayer(room.Player{
		ID:        c.PlayerID,
		Name:      payload.PlayerName,
		Connected: true,
		Host:      true,
		SessionID: c.SessionID,
	}); err != nil {
		c.SendError(EvtErrorRoom, err.Error(), "CREATE_FAILED")
		return
	}

	s.hub.JoinRoom(c, code)
	s.sessions.BindRoom(c.SessionID, code)
	c.Send(EvtRoomCreated, RoomCreatedPayload{RoomCode: code, Room: r.State()})
}

func (s *Server) handleRoomJoin(c *Client, raw json.RawMessage) {
	payload, ok := decode[RoomJoinPayload](c, raw, EvtErrorRoom)
	if !ok {
		return
	}

	r, err := s.rooms.GetRoom(payload.RoomCode)
	if err != nil {
		c.SendError(EvtErrorRoom, "room not found", "ROOM_NOT_FOUND")
		return
	}

	c.Name = payload.PlayerName
	player := room.Player{
		ID:        c.PlayerID,
		Name:      payload.PlayerName,
		Connected: true,
		SessionID: c.SessionID,
	}
	if err := r.AddPlayer(player); err != nil {
		c.SendError(EvtErrorRoom, err.Error(), "JOIN_FAILED")
		return
	}

	s.hub.JoinRoom(c, r.Code())
	s.sessions.BindRoom(c.SessionID, r.Code())

	c.Send(EvtRoomJoined, RoomJoinedPayload{Room: r.State(), PlayerID: c.PlayerID})
	if frame, err := NewEnvelope(EvtRoomPlayerJoined, PlayerJoinedPayload{Player: player}); err == nil {
		s.hub.BroadcastExcept(r.Code(), c, frame)
	}
}

func (s *Server) handleRoomLeave(c *Client) {
	if c.RoomCode == "" {
		return
	}
	r, err := s.rooms.GetRoom(c.RoomCode)
	if err != nil {
		s.hub.LeaveRoom(c)
		return
	}

	r.RemovePlayer(c.PlayerID)
	code := c.RoomCode
	s.hub.LeaveRoom(c)

	if frame, err := NewEnvelope(EvtRoomPlayerLeft, PlayerIDPayload{PlayerID: c.PlayerID}); err == nil {
		s.hub.Broadcast(code, frame)
	}
	if r.IsEmpty() {
		s.rooms.DeleteRoom(code)
		s.cancelRoomTimer(code)
		s.games.RemoveGame(code)
	}
}

func (s *Server) handleRoomReady(c *Client, raw json.RawMessage) {
	payload, ok := decode[RoomReadyPayload](c, raw, EvtErrorRoom)
	if !ok {
		return
	}
	r, err := s.rooms.GetRoom(c.RoomCode)
	if err != nil {
		c.SendError(EvtErrorRoom, "room not found", "ROOM_NOT_FOUND")
		return
	}
	if err := r.SetReady(c.PlayerID, payload.Ready); err != nil {
		c.SendError(EvtErrorRoom, err.Error(), "READY_FAILED")
		return
	}
	if frame, err := NewEnvelope(EvtRoomPlayerReady, PlayerReadyPayload{PlayerID: c.PlayerID, Ready: payload.Ready}); err == nil {
		s.hub.Broadcast(r.Code(), frame)
	}
}

func (s *Server) handleRoomStart(c *Client) {
	r, err := s.rooms.GetRoom(c.RoomCode)
	if err != nil {
		c.SendError(EvtErrorRoom, "room not found", "ROOM_NOT_FOUND")
		return
	}
	if r.HostID() != c.PlayerID {
		c.SendError(EvtErrorRoom, "only the host may start", "NOT_HOST")
		return
	}
	if !r.CanStart() {
		c.SendError(EvtErrorRoom, "players are not ready", "CANNOT_START")
		return
	}

	opts := []game.Option{game.WithTurnTimeout(s.cfg.Server.TurnTimeout)}
	if s.recorder != nil {
		opts = append(opts, game.WithRecorder(s.recorder))
	}
	if s.cfg.Auth.BcryptCost > 0 {
		opts = append(opts, game.WithBcryptCost(s.cfg.Auth.BcryptCost))
	}
	engine, err := s.games.CreateGame(r.Code(), r.PlayerIDs(), opts...)
	if err != nil {
		c.SendError(EvtErrorRoom, "failed to start game", "START_FAILED")
		return
	}
	r.MarkStarted()

	// Each player gets a private reconnect token alongside their first view.
	for _, member := range s.hub.RoomClients(r.Code()) {
		token, err := engine.IssueReconnectToken(member.PlayerID)
		if err != nil {
			s.logger.Warn("reconnect token issue failed",
				zap.String("player_id", member.PlayerID),
				zap.Error(err),
			)
		}
		member.Send(EvtGameStarted, map[string]any{
			"gameState":      engine.ViewFor(member.PlayerID),
			"reconnectToken": token,
		})
	}

	s.beginRound(r.Code())
}

func (s *Server) handleRoomKick(c *Client, raw json.RawMessage) {
	payload, ok := decode[RoomKickPayload](c, raw, EvtErrorRoom)
	if !ok {
		return
	}
	r, err := s.rooms.GetRoom(c.RoomCode)
	if err != nil {
		c.SendError(EvtErrorRoom, "room not found", "ROOM_NOT_FOUND")
		return
	}
	if r.HostID() != c.PlayerID {
		c.SendError(EvtErrorRoom, "only the host may kick", "NOT_HOST")
		return
	}

	r.RemovePlayer(payload.TargetPlayerID)
	if frame, err := NewEnvelope(EvtRoomPlayerKicked, PlayerIDPayload{PlayerID: payload.TargetPlayerID}); err == nil {
		s.hub.Broadcast(r.Code(), frame)
	}
	if target, ok := s.hub.ClientByPlayer(payload.TargetPlayerID); ok {
		s.hub.LeaveRoom(target)
	}
}

func (s *Server) handleRoomChat(c *Client, raw json.RawMessage) {
	payload, ok := decode[RoomChatPayload](c, raw, EvtErrorRoom)
	if !ok {
		return
	}
	if c.RoomCode == "" || payload.Message == "" {
		return
	}
	frame, err := NewEnvelope(EvtRoomChatMessage, ChatMessagePayload{
		PlayerID:   c.PlayerID,
		PlayerName: c.Name,
		Message:    payload.Message,
		Timestamp:  time.Now().UnixMilli(),
	})
	if err == nil {
		s.hub.Broadcast(c.RoomCode, frame)
	}
}

// --- game events ---

func (s *Server) engineFor(c *Client) (*game.Engine, bool) {
	if c.RoomCode == "" {
		c.SendError(EvtErrorGame, "not in a room", "NO_ROOM")
		return nil, false
	}
	engine, ok := s.games.GetGame(c.RoomCode)
	if !ok {
		c.SendError(EvtErrorGame, "no active game", "NO_GAME")
		return nil, false
	}
	return engine, true
}

// sendGameError reports a user error to the actor, or tears the room down
// on an invariant violation.
func (s *Server) sendGameError(c *Client, err error) {
	if game.IsUserError(err) {
		c.SendError(EvtErrorInvalidAction, err.Error(), game.ErrorCode(err))
		return
	}
	s.failRoom(c.RoomCode, err)
}

// failRoom handles an engine invariant failure: the round cannot continue,
// so the game is torn down and everyone is told.
func (s *Server) failRoom(roomCode string, err error) {
	s.logger.Error("game invariant failure, tearing down room",
		zap.String("room_code", roomCode),
		zap.Error(err),
	)
	if frame, ferr := NewEnvelope(EvtErrorGame, ErrorPayload{
		Message: "game state corrupted, round aborted",
		Code:    game.ErrorCode(err),
	}); ferr == nil {
		s.hub.Broadcast(roomCode, frame)
	}
	s.cancelRoomTimer(roomCode)
	s.games.RemoveGame(roomCode)
	if s.recorder != nil {
		s.recorder.ClearReplay(roomCode)
	}
}

// beginRound drives DEALING into live turns and publishes special-hand
// checks on the way.
func (s *Server) beginRound(roomCode string) {
	engine, ok := s.games.GetGame(roomCode)
	if !ok {
		return
	}
	checks, err := engine.Begin()
	if err != nil {
		s.failRoom(roomCode, err)
		return
	}
	if frame, err := NewEnvelope(EvtSpecialHandCheck, SpecialHandCheckPayload{Checks: checks}); err == nil {
		s.hub.Broadcast(roomCode, frame)
	}

	// Hold the round open only when someone actually has a declarable
	// hand; their next game event resolves or implicitly declines it.
	for _, check := range checks {
		if check.Check.HasChongTong || check.Check.CanReshuffle {
			s.broadcastState(roomCode)
			return
		}
	}
	s.startTurns(roomCode)
}

func (s *Server) startTurns(roomCode string) {
	engine, ok := s.games.GetGame(roomCode)
	if !ok {
		return
	}
	if err := engine.StartTurns(); err != nil {
		s.failRoom(roomCode, err)
		return
	}
	s.announceTurn(roomCode)
	s.broadcastState(roomCode)
}

func (s *Server) announceTurn(roomCode string) {
	engine, ok := s.games.GetGame(roomCode)
	if !ok {
		return
	}
	view := engine.ViewFor("")
	if frame, err := NewEnvelope(EvtTurnStart, TurnStartPayload{
		CurrentPlayerID: view.CurrentPlayerID,
		TimeLimit:       s.cfg.Server.TurnTimeout.Milliseconds(),
	}); err == nil {
		s.hub.Broadcast(roomCode, frame)
	}
	s.armRoomTimer(roomCode, s.cfg.Server.TurnTimeout)
}

// broadcastState sends each member their own redacted view.
func (s *Server) broadcastState(roomCode string) {
	engine, ok := s.games.GetGame(roomCode)
	if !ok {
		return
	}
	for _, member := range s.hub.RoomClients(roomCode) {
		member.Send(EvtGameState, GameStatePayload{GameState: engine.ViewFor(member.PlayerID)})
	}
}

// startTurnsIfPending resolves a held special-hand window before a normal
// turn action.
func (s *Server) startTurnsIfPending(engine *game.Engine, roomCode string) {
	if _, held := engine.State().Phase.(game.CheckSpecialHandsPhase); held {
		s.startTurns(roomCode)
	}
}

func (s *Server) handlePlayCard(c *Client, raw json.RawMessage) {
	payload, ok := decode[CardPayload](c, raw, EvtErrorGame)
	if !ok {
		return
	}
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	s.startTurnsIfPending(engine, c.RoomCode)

	result, err := engine.PlayCard(c.PlayerID, payload.CardID)
	if err != nil {
		s.sendGameError(c, err)
		return
	}
	if frame, err := NewEnvelope(EvtCardPlayed, CardPlayedPayload{
		PlayerID:     c.PlayerID,
		Card:         result.Played,
		MatchOptions: result.Matches,
		IsBomb:       result.IsBomb,
	}); err == nil {
		s.hub.Broadcast(c.RoomCode, frame)
	}
	s.continueGame(c.RoomCode)
}

func (s *Server) handleChooseFieldCard(c *Client, raw json.RawMessage) {
	payload, ok := decode[CardPayload](c, raw, EvtErrorGame)
	if !ok {
		return
	}
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	if err := engine.ChooseFieldCard(c.PlayerID, payload.CardID); err != nil {
		s.sendGameError(c, err)
		return
	}
	if frame, err := NewEnvelope(EvtFieldCardChosen, CardChosenPayload{PlayerID: c.PlayerID, CardID: payload.CardID}); err == nil {
		s.hub.Broadcast(c.RoomCode, frame)
	}
	s.continueGame(c.RoomCode)
}

func (s *Server) handleChooseFlipMatch(c *Client, raw json.RawMessage) {
	payload, ok := decode[CardPayload](c, raw, EvtErrorGame)
	if !ok {
		return
	}
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	if err := engine.ChooseFlipMatch(c.PlayerID, payload.CardID); err != nil {
		s.sendGameError(c, err)
		return
	}
	if frame, err := NewEnvelope(EvtFlipMatchChosen, CardChosenPayload{PlayerID: c.PlayerID, CardID: payload.CardID}); err == nil {
		s.hub.Broadcast(c.RoomCode, frame)
	}
	s.continueGame(c.RoomCode)
}

// continueGame drives the automatic steps of a turn: the deck flip after a
// play, the capture resolution after the flip, and whatever follows.
func (s *Server) continueGame(roomCode string) {
	engine, ok := s.games.GetGame(roomCode)
	if !ok {
		return
	}

	for {
		switch phase := engine.State().Phase.(type) {
		case game.TurnFlipDeckPhase:
			result, err := engine.FlipDeck(phase.CurrentPlayerID)
			if err != nil {
				s.failRoom(roomCode, err)
				return
			}
			if frame, ferr := NewEnvelope(EvtDeckFlipped, DeckFlippedPayload{
				Card:         result.Flipped,
				MatchOptions: result.Matches,
				IsBomb:       result.IsBomb,
			}); ferr == nil {
				s.hub.Broadcast(roomCode, frame)
			}

		case game.TurnResolveCapturePhase:
			result, err := engine.FinishTurn(phase.CurrentPlayerID)
			if err != nil {
				s.failRoom(roomCode, err)
				return
			}
			if result.CanGoStop {
				if frame, ferr := NewEnvelope(EvtScoreCheck, ScoreCheckPayload{
					PlayerID:  phase.CurrentPlayerID,
					Score:     result.Breakdown.FinalPoints,
					Breakdown: result.Breakdown,
					CanGoStop: true,
				}); ferr == nil {
					s.hub.Broadcast(roomCode, frame)
				}
				// Fresh window for the Go/Stop decision.
				s.armRoomTimer(roomCode, s.cfg.Server.TurnTimeout)
				s.broadcastState(roomCode)
				return
			}
			if result.RoundOver {
				s.handleWinnerlessRound(roomCode)
				return
			}
			s.announceTurn(roomCode)
			s.broadcastState(roomCode)
			return

		default:
			s.broadcastState(roomCode)
			return
		}
	}
}

// handleWinnerlessRound rolls an exhausted round into nagari and redeals.
func (s *Server) handleWinnerlessRound(roomCode string) {
	engine, ok := s.games.GetGame(roomCode)
	if !ok {
		return
	}
	if err := engine.Nagari(); err != nil {
		s.failRoom(roomCode, err)
		return
	}
	if frame, err := NewEnvelope(EvtNagari, NagariPayload{NagariCount: engine.State().NagariCount}); err == nil {
		s.hub.Broadcast(roomCode, frame)
	}
	if err := engine.NextRound(); err != nil {
		s.failRoom(roomCode, err)
		return
	}
	s.beginRound(roomCode)
}

func (s *Server) handleDeclareGo(c *Client) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	goCount, err := engine.DeclareGo(c.PlayerID)
	if err != nil {
		s.sendGameError(c, err)
		return
	}
	if frame, ferr := NewEnvelope(EvtGoDeclared, GoDeclaredPayload{PlayerID: c.PlayerID, GoCount: goCount}); ferr == nil {
		s.hub.Broadcast(c.RoomCode, frame)
	}
	if err := engine.AdvanceTurn(); err != nil {
		s.failRoom(c.RoomCode, err)
		return
	}
	s.announceTurn(c.RoomCode)
	s.broadcastState(c.RoomCode)
}

func (s *Server) handleDeclareStop(c *Client) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	result, err := engine.DeclareStop(c.PlayerID)
	if err != nil {
		s.sendGameError(c, err)
		return
	}
	if frame, ferr := NewEnvelope(EvtStopDeclared, PlayerIDPayload{PlayerID: c.PlayerID}); ferr == nil {
		s.hub.Broadcast(c.RoomCode, frame)
	}
	s.concludeRound(c.RoomCode, result)
}

func (s *Server) handleDeclareShake(c *Client, raw json.RawMessage) {
	payload, ok := decode[MonthPayload](c, raw, EvtErrorGame)
	if !ok {
		return
	}
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	s.startTurnsIfPending(engine, c.RoomCode)
	if err := engine.DeclareShake(c.PlayerID, payload.Month); err != nil {
		s.sendGameError(c, err)
		return
	}
	if frame, err := NewEnvelope(EvtShakeDeclared, ShakeDeclaredPayload{PlayerID: c.PlayerID, Month: payload.Month}); err == nil {
		s.hub.Broadcast(c.RoomCode, frame)
	}
}

func (s *Server) handleDeclareChongTong(c *Client, raw json.RawMessage) {
	payload, ok := decode[MonthPayload](c, raw, EvtErrorGame)
	if !ok {
		return
	}
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	result, err := engine.DeclareChongTong(c.PlayerID, payload.Month)
	if err != nil {
		s.sendGameError(c, err)
		return
	}
	if frame, ferr := NewEnvelope(EvtChongTongDeclared, ChongTongDeclaredPayload{PlayerID: c.PlayerID, Month: payload.Month}); ferr == nil {
		s.hub.Broadcast(c.RoomCode, frame)
	}
	s.concludeRound(c.RoomCode, result)
}

func (s *Server) handleRequestReshuffle(c *Client) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	if err := engine.RequestReshuffle(c.PlayerID); err != nil {
		s.sendGameError(c, err)
		return
	}
	s.beginRound(c.RoomCode)
}

// concludeRound broadcasts the round outcome, persists it, and closes the
// game out.
func (s *Server) concludeRound(roomCode string, result game.StopResult) {
	engine, ok := s.games.GetGame(roomCode)
	if !ok {
		return
	}

	if frame, err := NewEnvelope(EvtRoundEnd, RoundEndPayload{
		Winner:         result.WinnerID,
		ScoreBreakdown: result.Breakdown,
		FinalScore:     result.Breakdown.FinalPoints,
	}); err == nil {
		s.hub.Broadcast(roomCode, frame)
	}

	s.persistRound(engine, result)

	results, err := engine.Finish()
	if err != nil {
		s.failRoom(roomCode, err)
		return
	}
	if frame, ferr := NewEnvelope(EvtGameOver, GameOverPayload{Results: results}); ferr == nil {
		s.hub.Broadcast(roomCode, frame)
	}

	if s.recorder != nil {
		if err := s.recorder.SaveReplay(roomCode); err != nil {
			s.logger.Warn("replay save failed",
				zap.String("room_code", roomCode),
				zap.Error(err),
			)
		}
	}
	s.cancelRoomTimer(roomCode)
	s.games.RemoveGame(roomCode)
}

func (s *Server) persistRound(engine *game.Engine, result game.StopResult) {
	st := engine.State()

	record := repository.RoundRecord{
		RoomCode:    st.RoomCode,
		RoundNumber: st.RoundNumber,
		WinnerID:    result.WinnerID,
		BasePoints:  result.Breakdown.BasePoints,
		FinalPoints: result.Breakdown.FinalPoints,
		NagariCount: st.NagariCount,
		EndedAt:     time.Now(),
	}
	for _, p := range st.Players {
		if p.ID == result.WinnerID {
			record.GoCount = p.GoCount
		}
		record.Players = append(record.Players, repository.PlayerRoundRecord{
			PlayerID:    p.ID,
			Score:       p.Score,
			GwangCount:  len(p.Captured.Gwang),
			AnimalCount: len(p.Captured.Animal),
			RibbonCount: len(p.Captured.Ribbon),
			PiCount:     piTotal(p.Captured),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.rounds.SaveRound(ctx, record); err != nil {
		s.logger.Warn("round persistence failed",
			zap.String("room_code", st.RoomCode),
			zap.Error(err),
		)
	}
}

func piTotal(captured scoring.CapturedCards) int {
	total := 0
	for _, c := range captured.Pi {
		total += c.PiValue()
	}
	return total
}

// --- connection events ---

func (s *Server) handlePing(c *Client, raw json.RawMessage) {
	payload, _ := decode[PingPayload](c, raw, EvtErrorInvalidAction)
	c.Send(EvtPong, PongPayload{
		Timestamp:  payload.Timestamp,
		ServerTime: time.Now().UnixMilli(),
	})
}

func (s *Server) handleReconnect(c *Client, raw json.RawMessage) {
	payload, ok := decode[ReconnectPayload](c, raw, EvtErrorGame)
	if !ok {
		return
	}
	engine, ok := s.games.GetGame(payload.RoomCode)
	if !ok {
		c.SendError(EvtErrorGame, "no active game", "NO_GAME")
		return
	}
	if err := engine.Reconnect(payload.PlayerID, payload.Token); err != nil {
		c.SendError(EvtErrorGame, "reconnect rejected", game.ErrorCode(err))
		return
	}

	// The new connection takes over the old identity.
	s.sessions.Remove(c.SessionID)
	s.hub.RebindPlayer(c, payload.PlayerID)
	if sess, err := s.sessions.Create(payload.PlayerID); err == nil {
		c.SessionID = sess.ID
		s.sessions.BindRoom(sess.ID, payload.RoomCode)
	}
	s.hub.JoinRoom(c, payload.RoomCode)
	if r, err := s.rooms.GetRoom(payload.RoomCode); err == nil {
		r.SetConnected(payload.PlayerID, true)
		if p, found := r.Player(payload.PlayerID); found {
			c.Name = p.Name
		}
	}

	if frame, err := NewEnvelope(EvtPlayerReconnected, PlayerIDPayload{PlayerID: payload.PlayerID}); err == nil {
		s.hub.Broadcast(payload.RoomCode, frame)
	}
	c.Send(EvtGameState, GameStatePayload{GameState: engine.ViewFor(payload.PlayerID)})

	// The resumed phase gets a fresh turn window in place of the grace.
	s.armRoomTimer(payload.RoomCode, s.cfg.Server.TurnTimeout)
}

// handleDisconnect runs when a connection's read pump exits.
func (s *Server) handleDisconnect(c *Client) {
	s.sessions.Remove(c.SessionID)
	if c.RoomCode == "" {
		return
	}

	if r, err := s.rooms.GetRoom(c.RoomCode); err == nil {
		r.SetConnected(c.PlayerID, false)
	}

	grace := s.cfg.Server.DisconnectGrace
	if engine, ok := s.games.GetGame(c.RoomCode); ok {
		if err := engine.MarkDisconnected(c.PlayerID, time.Now().Add(grace)); err != nil {
			s.logger.Warn("disconnect bookkeeping failed",
				zap.String("player_id", c.PlayerID),
				zap.Error(err),
			)
		}
		if _, parked := engine.State().Phase.(game.DisconnectedPhase); parked {
			s.armRoomTimer(c.RoomCode, grace)
		}
	}

	if frame, err := NewEnvelope(EvtPlayerDisconnected, DisconnectedPayload{
		PlayerID: c.PlayerID,
		Timeout:  grace.Milliseconds(),
	}); err == nil {
		s.hub.BroadcastExcept(c.RoomCode, c, frame)
	}
}
