package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gostop/gostop-server-go/internal/config"
	"github.com/gostop/gostop-server-go/internal/game"
	"github.com/gostop/gostop-server-go/internal/repository"
	"github.com/gostop/gostop-server-go/internal/room"
	"github.com/gostop/gostop-server-go/internal/session"
)

// Server is the websocket front door: it upgrades connections, assigns
// player identities, and routes room and game events to the managers.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	hub      *Hub
	sessions *session.Manager
	rooms    *room.Manager
	games    *game.Manager
	rounds   *repository.RoundRepository
	recorder *game.ReplayRecorder

	timerMu sync.Mutex
	timers  map[string]*time.Timer

	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// NewServer wires the transport to the managers.
func NewServer(
	cfg *config.Config,
	sessions *session.Manager,
	rooms *room.Manager,
	games *game.Manager,
	rounds *repository.RoundRepository,
	recorder *game.ReplayRecorder,
	logger *zap.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		hub:      NewHub(logger),
		sessions: sessions,
		rooms:    rooms,
		games:    games,
		rounds:   rounds,
		recorder: recorder,
		timers:   make(map[string]*time.Timer),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Server.WebSocket.Path, s.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.httpSrv = &http.Server{
		Addr:    cfg.Server.WebSocket.Address,
		Handler: mux,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	allowed := s.cfg.Server.WebSocket.AllowedOrigins
	if len(allowed) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range allowed {
		if o == origin {
			return true
		}
	}
	return false
}

// Hub exposes the client registry, mainly for tests.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start serves websocket traffic until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("websocket server listening",
		zap.String("address", s.cfg.Server.WebSocket.Address),
		zap.String("path", s.cfg.Server.WebSocket.Path),
	)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// ServeWS upgrades the request and starts the connection's pumps. Every
// connection gets a fresh player identity and session lease.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	playerID := uuid.NewString()
	sess, err := s.sessions.Create(playerID)
	if err != nil {
		s.logger.Warn("session rejected", zap.Error(err))
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "server full"),
			time.Now().Add(writeWait),
		)
		conn.Close()
		return
	}

	c := &Client{
		PlayerID:  playerID,
		SessionID: sess.ID,
		server:    s,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		logger:    s.logger,
	}
	s.hub.Register(c)

	go c.writePump()
	go c.readPump()
}
