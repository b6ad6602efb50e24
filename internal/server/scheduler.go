package server

import (
	"time"

	"go.uber.org/zap"

	"github.com/gostop/gostop-server-go/internal/game"
)

// Deadline enforcement. Phase timestamps are advisory for clients; the
// transport owns the authoritative timers. One timer per room covers both
// the turn time limit and a disconnected player's grace, rearmed on every
// turn handoff and cancelled when the game ends.

func (s *Server) armRoomTimer(roomCode string, d time.Duration) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if t, ok := s.timers[roomCode]; ok {
		t.Stop()
	}
	s.timers[roomCode] = time.AfterFunc(d, func() {
		s.enforceDeadline(roomCode)
	})
}

func (s *Server) cancelRoomTimer(roomCode string) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if t, ok := s.timers[roomCode]; ok {
		t.Stop()
		delete(s.timers, roomCode)
	}
}

// enforceDeadline forfeits whatever the room is waiting on: a stalled turn
// is skipped, an unanswered Go/Stop banks as a stop, and an expired
// disconnect grace resumes the parked phase and plays past the absent
// player.
func (s *Server) enforceDeadline(roomCode string) {
	engine, ok := s.games.GetGame(roomCode)
	if !ok {
		s.cancelRoomTimer(roomCode)
		return
	}

	s.logger.Info("deadline expired, forcing turn forward",
		zap.String("room_code", roomCode),
	)
	if err := engine.ForceAdvance(); err != nil {
		s.failRoom(roomCode, err)
		return
	}

	switch p := engine.State().Phase.(type) {
	case game.RoundEndPhase:
		if p.WinnerID == "" {
			s.handleWinnerlessRound(roomCode)
			return
		}
		// ForceAdvance banked an unanswered Go/Stop as a stop.
		s.concludeRound(roomCode, game.StopResult{WinnerID: p.WinnerID, Breakdown: p.Breakdown})
	default:
		s.announceTurn(roomCode)
		s.broadcastState(roomCode)
	}
}
