// Package wsserver is the WebSocket dispatcher: it upgrades connections, runs
// each socket's read/write loops, decodes client frames into protocol
// messages, applies the matching internal/engine transition through the room
// manager, and pushes the resulting state back out. No game logic lives
// here; this package only wires sockets to the pure engine.
package wsserver

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tichu/internal/logx"
	"tichu/internal/protocol"
	"tichu/internal/room"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

const (
	pongWait       = 30 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 16
	outboundBuffer = 64
)

// Server owns the HTTP upgrade endpoint and ties a room.Manager to live
// gorilla/websocket connections.
type Server struct {
	manager           *room.Manager
	heartbeatInterval time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(manager *room.Manager, heartbeatInterval time.Duration, seed int64) *Server {
	return &Server{
		manager:           manager,
		heartbeatInterval: heartbeatInterval,
		rng:               rand.New(rand.NewSource(seed)),
	}
}

func (s *Server) nextRand() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return rand.New(rand.NewSource(s.rng.Int63()))
}

// Handler returns the http.Handler for the upgrade endpoint, for embedding
// into a caller-owned mux.
func (s *Server) Handler() http.HandlerFunc {
	return s.handleUpgrade
}

// Run starts the heartbeat loop and serves forever on addr.
func (s *Server) Run(addr string) error {
	return s.ListenAndServe(context.Background(), addr)
}

// ListenAndServe runs the heartbeat loop and the HTTP server until ctx is
// cancelled, then shuts the HTTP server down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	stop := make(chan struct{})
	go s.manager.Heartbeat(s.heartbeatInterval, protocol.EncodeSTC(protocol.STCPing{}), stop)
	defer close(stop)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleUpgrade)
	mux.HandleFunc("/", s.handleIndex)
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serveErr := make(chan error, 1)
	go func() {
		logx.Info("wsserver: listening on %s", addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logx.Info("wsserver: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("tichu server\n"))
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Warn("wsserver: upgrade failed remote=%s err=%v", r.RemoteAddr, err)
		return
	}

	token := r.URL.Query().Get("user_id")
	outbound := make(chan []byte, outboundBuffer)
	userID, reconnected, gameID := s.manager.Attach(token, outbound)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		if c, ok := s.manager.Connection(userID); ok {
			c.SetAlive(true)
		}
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go s.writeLoop(conn, outbound)

	s.sendTo(userID, protocol.UserIdAssigned{UserID: userID})
	if reconnected {
		logx.Info("wsserver: user_id=%s reconnected to game_id=%s", userID, gameID)
		s.broadcastExcept(gameID, userID, protocol.UserReconnected{UserID: userID})
		s.pushGameState(gameID)
	}

	s.readLoop(conn, userID)
}

func (s *Server) writeLoop(conn *websocket.Conn, outbound <-chan []byte) {
	defer func() { _ = conn.Close() }()
	for frame := range outbound {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			logx.Debug("wsserver: write failed: %v", err)
			return
		}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, nil)
}

func (s *Server) readLoop(conn *websocket.Conn, userID string) {
	defer s.handleDisconnect(userID)
	for {
		messageType, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logx.Debug("wsserver: user_id=%s read error: %v", userID, err)
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			s.sendTo(userID, protocol.UnexpectedMessageReceived{Debug: "expected a binary frame"})
			continue
		}
		s.handleFrame(userID, raw)
	}
}

func (s *Server) handleDisconnect(userID string) {
	gameID, wasInLobby := s.manager.Detach(userID)
	if gameID == "" {
		return
	}
	if wasInLobby {
		if _, destroyed, err := s.manager.LeaveGame(gameID, userID); err == nil && !destroyed {
			s.broadcast(gameID, protocol.UserLeft{UserID: userID})
			s.pushGameState(gameID)
		}
		return
	}
	s.broadcast(gameID, protocol.UserDisconnected{UserID: userID})
	s.manager.ScheduleGraceRemoval(userID, func() {
		if _, destroyed, err := s.manager.LeaveGame(gameID, userID); err == nil && !destroyed {
			s.broadcast(gameID, protocol.UserLeft{UserID: userID})
			s.pushGameState(gameID)
		}
	})
}
