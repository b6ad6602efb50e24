package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gostop/gostop-server-go/internal/config"
	"github.com/gostop/gostop-server-go/internal/game"
	"github.com/gostop/gostop-server-go/internal/room"
	"github.com/gostop/gostop-server-go/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Auth.BcryptCost = bcrypt.MinCost

	logger := zap.NewNop()
	return NewServer(
		cfg,
		session.NewManager(time.Minute, 0, logger),
		room.NewManager(logger),
		game.NewManager(logger),
		nil, // no database
		nil, // no replay recorder
		logger,
	)
}

// newTestClient wires a client straight into the hub, bypassing the
// websocket upgrade.
func newTestClient(t *testing.T, s *Server, name string) *Client {
	t.Helper()
	sess, err := s.sessions.Create(name)
	require.NoError(t, err)
	c := &Client{
		PlayerID:  name,
		Name:      name,
		SessionID: sess.ID,
		server:    s,
		send:      make(chan []byte, sendBufferSize),
		logger:    zap.NewNop(),
	}
	s.hub.Register(c)
	return c
}

func send(t *testing.T, s *Server, c *Client, event string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	s.dispatch(c, Envelope{Event: event, Payload: raw})
}

// recv pops the next queued frame, failing if none arrived.
func recv(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case frame := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		return env
	default:
		t.Fatalf("no frame queued for %s", c.PlayerID)
		return Envelope{}
	}
}

// recvEvent drains frames until one matches event.
func recvEvent(t *testing.T, c *Client, event string) Envelope {
	t.Helper()
	for i := 0; i < sendBufferSize; i++ {
		select {
		case frame := <-c.send:
			var env Envelope
			require.NoError(t, json.Unmarshal(frame, &env))
			if env.Event == event {
				return env
			}
		default:
			t.Fatalf("no %s frame queued for %s", event, c.PlayerID)
		}
	}
	t.Fatalf("no %s frame within buffer for %s", event, c.PlayerID)
	return Envelope{}
}

func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func newOriginRequest(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", origin)
	return req
}

// ensureTurns resolves a held special-hand window so the game tests see a
// deterministic live turn, whatever the random deal contained.
func ensureTurns(t *testing.T, s *Server, code string) {
	t.Helper()
	engine, ok := s.games.GetGame(code)
	require.True(t, ok)
	if _, held := engine.State().Phase.(game.CheckSpecialHandsPhase); held {
		s.startTurns(code)
	}
}

func createRoom(t *testing.T, s *Server, host *Client, maxPlayers int) string {
	t.Helper()
	send(t, s, host, EvtRoomCreate, RoomCreatePayload{PlayerName: host.Name, MaxPlayers: maxPlayers})
	env := recvEvent(t, host, EvtRoomCreated)
	var payload RoomCreatedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.NotEmpty(t, payload.RoomCode)
	return payload.RoomCode
}

func TestUnknownEvent(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s, "alice")

	send(t, s, c, "game:teleport", struct{}{})
	env := recv(t, c)
	assert.Equal(t, EvtErrorInvalidAction, env.Event)
}

func TestRoomCreateAndJoin(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s, "alice")
	bob := newTestClient(t, s, "bob")

	code := createRoom(t, s, alice, 2)
	assert.Equal(t, code, alice.RoomCode)

	send(t, s, bob, EvtRoomJoin, RoomJoinPayload{RoomCode: code, PlayerName: "bob"})
	env := recvEvent(t, bob, EvtRoomJoined)
	var joined RoomJoinedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &joined))
	assert.Equal(t, "bob", joined.PlayerID)
	assert.Len(t, joined.Room.Players, 2)

	// The host hears about the new player.
	env = recvEvent(t, alice, EvtRoomPlayerJoined)
	var pj PlayerJoinedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &pj))
	assert.Equal(t, "bob", pj.Player.ID)
}

func TestRoomJoinFullRoom(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s, "alice")
	bob := newTestClient(t, s, "bob")
	carol := newTestClient(t, s, "carol")

	code := createRoom(t, s, alice, 2)
	send(t, s, bob, EvtRoomJoin, RoomJoinPayload{RoomCode: code, PlayerName: "bob"})
	drain(bob)

	send(t, s, carol, EvtRoomJoin, RoomJoinPayload{RoomCode: code, PlayerName: "carol"})
	env := recv(t, carol)
	assert.Equal(t, EvtErrorRoom, env.Event)
}

func TestRoomJoinUnknownRoom(t *testing.T) {
	s := newTestServer(t)
	bob := newTestClient(t, s, "bob")

	send(t, s, bob, EvtRoomJoin, RoomJoinPayload{RoomCode: "ZZZZZ", PlayerName: "bob"})
	env := recv(t, bob)
	assert.Equal(t, EvtErrorRoom, env.Event)
	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &errPayload))
	assert.Equal(t, "ROOM_NOT_FOUND", errPayload.Code)
}

func TestRoomChatBroadcast(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s, "alice")
	bob := newTestClient(t, s, "bob")

	code := createRoom(t, s, alice, 2)
	send(t, s, bob, EvtRoomJoin, RoomJoinPayload{RoomCode: code, PlayerName: "bob"})
	drain(alice)
	drain(bob)

	send(t, s, alice, EvtRoomChat, RoomChatPayload{RoomCode: code, Message: "hello"})
	for _, c := range []*Client{alice, bob} {
		env := recvEvent(t, c, EvtRoomChatMessage)
		var msg ChatMessagePayload
		require.NoError(t, json.Unmarshal(env.Payload, &msg))
		assert.Equal(t, "hello", msg.Message)
		assert.Equal(t, "alice", msg.PlayerID)
	}
}

func fillAndReady(t *testing.T, s *Server, host *Client, others ...*Client) string {
	t.Helper()
	code := createRoom(t, s, host, len(others)+1)
	for _, c := range others {
		send(t, s, c, EvtRoomJoin, RoomJoinPayload{RoomCode: code, PlayerName: c.Name})
	}
	all := append([]*Client{host}, others...)
	for _, c := range all {
		send(t, s, c, EvtRoomReady, RoomReadyPayload{RoomCode: code, Ready: true})
	}
	for _, c := range all {
		drain(c)
	}
	return code
}

func TestRoomStartOnlyHost(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s, "alice")
	bob := newTestClient(t, s, "bob")
	fillAndReady(t, s, alice, bob)

	send(t, s, bob, EvtRoomStart, struct{}{})
	env := recv(t, bob)
	assert.Equal(t, EvtErrorRoom, env.Event)
	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &errPayload))
	assert.Equal(t, "NOT_HOST", errPayload.Code)
}

func TestRoomStartRequiresReadyPlayers(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s, "alice")
	createRoom(t, s, alice, 2)

	send(t, s, alice, EvtRoomStart, struct{}{})
	env := recv(t, alice)
	assert.Equal(t, EvtErrorRoom, env.Event)
}

func TestRoomStartLaunchesGame(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s, "alice")
	bob := newTestClient(t, s, "bob")
	code := fillAndReady(t, s, alice, bob)

	send(t, s, alice, EvtRoomStart, struct{}{})

	_, ok := s.games.GetGame(code)
	require.True(t, ok)

	for _, c := range []*Client{alice, bob} {
		env := recvEvent(t, c, EvtGameStarted)
		var started struct {
			GameState      game.GameView `json:"gameState"`
			ReconnectToken string        `json:"reconnectToken"`
		}
		require.NoError(t, json.Unmarshal(env.Payload, &started))
		assert.NotEmpty(t, started.ReconnectToken)
		assert.Equal(t, code, started.GameState.RoomCode)
	}

	// Everyone gets the special-hand checks for the fresh deal.
	recvEvent(t, alice, EvtSpecialHandCheck)
}

func TestGamePlayRejectsOutsideTurn(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s, "alice")
	bob := newTestClient(t, s, "bob")
	code := fillAndReady(t, s, alice, bob)
	send(t, s, alice, EvtRoomStart, struct{}{})
	ensureTurns(t, s, code)
	drain(alice)
	drain(bob)

	engine, ok := s.games.GetGame(code)
	require.True(t, ok)

	// Whoever is not the current player gets NOT_YOUR_TURN.
	view := engine.ViewFor("")
	waiting := bob
	if view.CurrentPlayerID == "bob" {
		waiting = alice
	}
	send(t, s, waiting, EvtPlayCard, CardPayload{CardID: "1-0"})
	env := recvEvent(t, waiting, EvtErrorInvalidAction)
	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &errPayload))
	assert.Contains(t, []string{"NOT_YOUR_TURN", "CARD_NOT_IN_HAND", "INVALID_PHASE"}, errPayload.Code)
}

func TestGamePlayDrivesTurn(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s, "alice")
	bob := newTestClient(t, s, "bob")
	code := fillAndReady(t, s, alice, bob)
	send(t, s, alice, EvtRoomStart, struct{}{})
	ensureTurns(t, s, code)
	drain(alice)
	drain(bob)

	engine, ok := s.games.GetGame(code)
	require.True(t, ok)

	// The current player leads with their first hand card; the transport
	// flips the deck for them and either asks for a choice or hands off.
	view := engine.ViewFor("")
	actor := alice
	if view.CurrentPlayerID == "bob" {
		actor = bob
	}
	hand := engine.ViewFor(actor.PlayerID).Players
	var cardID string
	for _, p := range hand {
		if p.ID == actor.PlayerID {
			require.NotEmpty(t, p.Hand)
			cardID = p.Hand[0].ID
		}
	}

	send(t, s, actor, EvtPlayCard, CardPayload{CardID: cardID})

	env := recvEvent(t, actor, EvtCardPlayed)
	var played CardPlayedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &played))
	assert.Equal(t, cardID, played.Card.ID)

	st := engine.State()
	switch st.Phase.(type) {
	case game.TurnChooseFieldCardPhase:
		// Waiting on the player's field pick; the deck has not flipped.
	case game.TurnChooseFlipMatchPhase, game.TurnPlayCardPhase, game.AwaitingGoStopPhase:
		recvEvent(t, actor, EvtDeckFlipped)
	default:
		t.Fatalf("unexpected phase %s after play", st.Phase.PhaseName())
	}
}

func TestTurnTimerArmedOnGameStart(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s, "alice")
	bob := newTestClient(t, s, "bob")
	code := fillAndReady(t, s, alice, bob)
	send(t, s, alice, EvtRoomStart, struct{}{})
	ensureTurns(t, s, code)

	s.timerMu.Lock()
	_, armed := s.timers[code]
	s.timerMu.Unlock()
	assert.True(t, armed)

	// Game teardown disarms the room.
	s.cancelRoomTimer(code)
	s.timerMu.Lock()
	_, armed = s.timers[code]
	s.timerMu.Unlock()
	assert.False(t, armed)
}

func TestDeadlineEnforcementSkipsStalledTurn(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s, "alice")
	bob := newTestClient(t, s, "bob")
	code := fillAndReady(t, s, alice, bob)
	send(t, s, alice, EvtRoomStart, struct{}{})
	ensureTurns(t, s, code)
	drain(alice)
	drain(bob)

	engine, ok := s.games.GetGame(code)
	require.True(t, ok)
	before := engine.ViewFor("").CurrentPlayerID

	s.enforceDeadline(code)

	after := engine.ViewFor("").CurrentPlayerID
	assert.NotEqual(t, before, after)
	for _, c := range []*Client{alice, bob} {
		recvEvent(t, c, EvtTurnStart)
	}
}

func TestDeadlineEnforcementForfeitsDisconnectedPlayer(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s, "alice")
	bob := newTestClient(t, s, "bob")
	code := fillAndReady(t, s, alice, bob)
	send(t, s, alice, EvtRoomStart, struct{}{})
	ensureTurns(t, s, code)
	drain(alice)
	drain(bob)

	engine, ok := s.games.GetGame(code)
	require.True(t, ok)
	current := engine.ViewFor("").CurrentPlayerID
	stalled := alice
	if current == "bob" {
		stalled = bob
	}

	// The awaited player drops; the game parks until their grace runs out.
	s.handleDisconnect(stalled)
	_, parked := engine.State().Phase.(game.DisconnectedPhase)
	require.True(t, parked)
	s.timerMu.Lock()
	_, armed := s.timers[code]
	s.timerMu.Unlock()
	assert.True(t, armed)

	s.enforceDeadline(code)

	after := engine.ViewFor("").CurrentPlayerID
	assert.NotEqual(t, current, after)
	assert.Equal(t, game.PhaseTurnPlayCard, engine.State().Phase.PhaseName())
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s, "alice")

	send(t, s, c, EvtPing, PingPayload{Timestamp: 12345})
	env := recv(t, c)
	assert.Equal(t, EvtPong, env.Event)
	var pong PongPayload
	require.NoError(t, json.Unmarshal(env.Payload, &pong))
	assert.Equal(t, int64(12345), pong.Timestamp)
	assert.NotZero(t, pong.ServerTime)
}

func TestReconnectRejectsBadToken(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s, "alice")
	bob := newTestClient(t, s, "bob")
	code := fillAndReady(t, s, alice, bob)
	send(t, s, alice, EvtRoomStart, struct{}{})
	drain(alice)
	drain(bob)

	fresh := newTestClient(t, s, "conn-2")
	send(t, s, fresh, EvtReconnect, ReconnectPayload{RoomCode: code, PlayerID: "alice", Token: "bogus"})
	env := recvEvent(t, fresh, EvtErrorGame)
	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &errPayload))
	assert.Equal(t, "INVALID_TOKEN", errPayload.Code)
}

func TestReconnectRestoresSeat(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s, "alice")
	bob := newTestClient(t, s, "bob")
	code := fillAndReady(t, s, alice, bob)
	send(t, s, alice, EvtRoomStart, struct{}{})

	engine, ok := s.games.GetGame(code)
	require.True(t, ok)
	env := recvEvent(t, alice, EvtGameStarted)
	var started struct {
		ReconnectToken string `json:"reconnectToken"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &started))
	drain(alice)
	drain(bob)

	// The old connection drops; a fresh one reclaims the seat.
	s.handleDisconnect(alice)
	s.hub.Unregister(alice)

	fresh := newTestClient(t, s, "conn-2")
	send(t, s, fresh, EvtReconnect, ReconnectPayload{
		RoomCode: code,
		PlayerID: "alice",
		Token:    started.ReconnectToken,
	})

	assert.Equal(t, "alice", fresh.PlayerID)
	assert.Equal(t, code, fresh.RoomCode)
	recvEvent(t, fresh, EvtGameState)

	st := engine.State()
	for _, p := range st.Players {
		if p.ID == "alice" {
			assert.True(t, p.Connected)
		}
	}
}

func TestLeaveEmptiesRoom(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s, "alice")
	code := createRoom(t, s, alice, 2)

	send(t, s, alice, EvtRoomLeave, RoomCodePayload{RoomCode: code})
	_, err := s.rooms.GetRoom(code)
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
	assert.Empty(t, alice.RoomCode)
}

func TestCheckOrigin(t *testing.T) {
	s := newTestServer(t)

	// No allow-list admits everyone.
	assert.True(t, s.checkOrigin(newOriginRequest("https://evil.example")))

	s.cfg.Server.WebSocket.AllowedOrigins = []string{"https://gostop.example"}
	assert.True(t, s.checkOrigin(newOriginRequest("https://gostop.example")))
	assert.False(t, s.checkOrigin(newOriginRequest("https://evil.example")))
}
