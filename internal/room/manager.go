// Package room implements the shared, concurrency-safe tables the
// dispatcher acts through: connections, games, and game-code bindings.
// Locks are always acquired connections -> games -> game_codes, and no lock
// is ever held across a broadcast.
package room

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"tichu/internal/engine"
	"tichu/internal/logx"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Manager owns the three process-wide tables.
type Manager struct {
	connMu      sync.RWMutex
	connections map[string]*Connection // user_id -> Connection

	gameMu sync.RWMutex
	games  map[string]*engine.Game // game_id -> Game

	codeMu sync.RWMutex
	codes  map[string]string // game_code (uppercase) -> game_id

	rngMu sync.Mutex
	rng   *rand.Rand

	reconnectGrace time.Duration

	pendingMu sync.Mutex
	pending   map[string]*time.Timer // user_id -> grace-period removal timer
}

func NewManager(reconnectGrace time.Duration) *Manager {
	return &Manager{
		connections:    make(map[string]*Connection),
		games:          make(map[string]*engine.Game),
		codes:          make(map[string]string),
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		reconnectGrace: reconnectGrace,
		pending:        make(map[string]*time.Timer),
	}
}

func (m *Manager) newGameID() string { return uuid.NewString() }

// newGameCodeLocked draws a fresh 4-character code and retries on collision. The
// caller must hold codeMu.
func (m *Manager) newGameCodeLocked() string {
	for {
		buf := make([]byte, 4)
		m.rngMu.Lock()
		for i := range buf {
			buf[i] = codeAlphabet[m.rng.Intn(len(codeAlphabet))]
		}
		m.rngMu.Unlock()
		code := string(buf)
		if _, taken := m.codes[code]; !taken {
			return code
		}
	}
}

// CreateGame builds a new Lobby game owned by userID.
func (m *Manager) CreateGame(userID, displayName string) (*engine.Game, error) {
	m.gameMu.Lock()
	defer m.gameMu.Unlock()
	m.codeMu.Lock()
	defer m.codeMu.Unlock()

	gameID := m.newGameID()
	code := m.newGameCodeLocked()
	g, err := engine.CreateGame(userID, displayName, gameID, code)
	if err != nil {
		return nil, err
	}
	m.games[gameID] = g
	m.codes[code] = gameID
	return g, nil
}

// JoinWithCode resolves a game code to a game and appends the participant.
func (m *Manager) JoinWithCode(userID, displayName, code string) (*engine.Game, error) {
	m.gameMu.Lock()
	defer m.gameMu.Unlock()
	m.codeMu.RLock()
	gameID, ok := m.codes[normalizeCode(code)]
	m.codeMu.RUnlock()
	if !ok {
		return nil, engine.ErrNotFound
	}
	g, ok := m.games[gameID]
	if !ok {
		return nil, engine.ErrNotFound
	}
	next, err := engine.JoinWithCode(g, userID, displayName)
	if err != nil {
		return nil, err
	}
	m.games[gameID] = next
	return next, nil
}

// JoinRandom appends the caller to the oldest Lobby game with room, or
// creates a fresh one if none qualifies.
func (m *Manager) JoinRandom(userID, displayName string) (*engine.Game, error) {
	m.gameMu.Lock()
	var oldest *engine.Game
	for _, g := range m.games {
		if g.Stage != engine.StageLobby || len(g.Participants) >= 4 {
			continue
		}
		if oldest == nil || g.CreatedAt.Before(oldest.CreatedAt) {
			oldest = g
		}
	}
	if oldest == nil {
		m.gameMu.Unlock()
		return m.CreateGame(userID, displayName)
	}
	next, err := engine.JoinWithCode(oldest, userID, displayName)
	if err != nil {
		m.gameMu.Unlock()
		return nil, err
	}
	m.games[oldest.GameID] = next
	m.gameMu.Unlock()
	return next, nil
}

// Game returns the current value for gameID, or false if it no longer
// exists (destroyed or never created).
func (m *Manager) Game(gameID string) (*engine.Game, bool) {
	m.gameMu.RLock()
	defer m.gameMu.RUnlock()
	g, ok := m.games[gameID]
	return g, ok
}

// Mutate applies fn to the current value for gameID under the games write
// lock and stores the result. fn must not itself acquire any table lock or
// send on a connection — see the package doc's lock-order rule.
func (m *Manager) Mutate(gameID string, fn func(*engine.Game) (*engine.Game, error)) (*engine.Game, error) {
	m.gameMu.Lock()
	defer m.gameMu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, engine.ErrNotFound
	}
	next, err := fn(g)
	if err != nil {
		return nil, err
	}
	m.games[gameID] = next
	return next, nil
}

// LeaveGame removes userID from gameID, destroying the game (and releasing
// its code) if that empties it.
func (m *Manager) LeaveGame(gameID, userID string) (next *engine.Game, destroyed bool, err error) {
	m.gameMu.Lock()
	g, ok := m.games[gameID]
	if !ok {
		m.gameMu.Unlock()
		return nil, false, engine.ErrNotFound
	}
	next, destroyed, err = engine.LeaveGame(g, userID)
	if err != nil {
		m.gameMu.Unlock()
		return nil, false, err
	}
	if destroyed {
		delete(m.games, gameID)
	} else {
		m.games[gameID] = next
	}
	m.gameMu.Unlock()

	if destroyed {
		m.codeMu.Lock()
		delete(m.codes, g.GameCode)
		m.codeMu.Unlock()
	}
	return next, destroyed, nil
}

// GameIDFor returns the game userID's connection is currently bound to, or
// "" if the connection is unknown or unbound.
func (m *Manager) GameIDFor(userID string) string {
	m.connMu.RLock()
	defer m.connMu.RUnlock()
	if c, ok := m.connections[userID]; ok {
		return c.GameID
	}
	return ""
}

// DestroyGame removes a game and releases its code binding.
func (m *Manager) DestroyGame(gameID string) {
	m.gameMu.Lock()
	g, ok := m.games[gameID]
	if ok {
		delete(m.games, gameID)
	}
	m.gameMu.Unlock()
	if !ok {
		return
	}
	m.codeMu.Lock()
	delete(m.codes, g.GameCode)
	m.codeMu.Unlock()
}

func normalizeCode(code string) string {
	out := make([]byte, 0, len(code))
	for _, r := range code {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		out = append(out, byte(r))
	}
	return string(out)
}

// Connections returns every connection currently bound to gameID, a
// snapshot safe to range over after releasing connMu.
func (m *Manager) Connections(gameID string) []*Connection {
	m.connMu.RLock()
	defer m.connMu.RUnlock()
	var out []*Connection
	for _, c := range m.connections {
		if c.GameID == gameID {
			out = append(out, c)
		}
	}
	return out
}

func (m *Manager) Connection(userID string) (*Connection, bool) {
	m.connMu.RLock()
	defer m.connMu.RUnlock()
	c, ok := m.connections[userID]
	return c, ok
}

func (m *Manager) SetConnectionGame(userID, gameID string) {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	if c, ok := m.connections[userID]; ok {
		c.GameID = gameID
	}
}

// Attach registers a new socket. token is the sentinel "no_id" for a fresh
// identity, or a previously-assigned user_id for a reconnect. Attach
// returns the resolved user_id and whether this was a reconnect to a live
// game (in which case the caller must broadcast UserReconnected and push a
// fresh GameState).
func (m *Manager) Attach(token string, outbound chan []byte) (userID string, reconnected bool, gameID string) {
	m.connMu.Lock()
	defer m.connMu.Unlock()

	if token == "" || token == "no_id" {
		userID = uuid.NewString()
		m.connections[userID] = newConnection(userID, outbound)
		return userID, false, ""
	}

	if existing, ok := m.connections[token]; ok && existing.GameID != "" {
		m.cancelPendingRemovalLocked(token)
		existing.Rebind(outbound)
		existing.SetAlive(true)
		return token, true, existing.GameID
	}

	if c, ok := m.connections[token]; ok {
		c.Rebind(outbound)
		c.SetAlive(true)
		return token, false, c.GameID
	}

	// No record left (Detach removed it): the token still counts as a
	// reconnect if it is a participant of a live game.
	m.gameMu.RLock()
	for id, g := range m.games {
		for _, u := range g.Participants {
			if u.UserID == token {
				gameID = id
			}
		}
	}
	m.gameMu.RUnlock()
	c := newConnection(token, outbound)
	c.GameID = gameID
	m.connections[token] = c
	if gameID != "" {
		m.cancelPendingRemovalLocked(token)
		return token, true, gameID
	}
	return token, false, ""
}

func (m *Manager) cancelPendingRemovalLocked(userID string) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	if t, ok := m.pending[userID]; ok {
		t.Stop()
		delete(m.pending, userID)
	}
}

// Detach removes the connection record immediately. If the user was
// attached to a live non-Lobby game, a grace-period timer is started
// instead of tearing down game membership right away; the dispatcher is
// responsible for the UserDisconnected broadcast and for running
// engine.LeaveGame when the game is still in Lobby.
func (m *Manager) Detach(userID string) (gameID string, wasInLobby bool) {
	m.connMu.Lock()
	c, ok := m.connections[userID]
	if ok {
		gameID = c.GameID
		delete(m.connections, userID)
	}
	m.connMu.Unlock()
	if gameID == "" {
		return "", false
	}
	if g, ok := m.Game(gameID); ok {
		wasInLobby = g.Stage == engine.StageLobby
	}
	return gameID, wasInLobby
}

// ScheduleGraceRemoval starts the reconnect grace-period timer for userID;
// onExpire runs if the user hasn't reconnected within the window.
func (m *Manager) ScheduleGraceRemoval(userID string, onExpire func()) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	m.pending[userID] = time.AfterFunc(m.reconnectGrace, func() {
		m.pendingMu.Lock()
		delete(m.pending, userID)
		m.pendingMu.Unlock()
		onExpire()
	})
}

// Heartbeat runs forever (until stop is closed), pinging every connection
// and closing any that didn't answer since the last tick.
func (m *Manager) Heartbeat(interval time.Duration, ping []byte, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.connMu.RLock()
			conns := make([]*Connection, 0, len(m.connections))
			for _, c := range m.connections {
				conns = append(conns, c)
			}
			m.connMu.RUnlock()

			for _, c := range conns {
				if !c.IsAlive() {
					logx.Debug("heartbeat: dropping unresponsive connection user_id=%s", c.UserID)
					c.CloseOutbound()
					continue
				}
				c.SetAlive(false)
				c.Send(ping)
			}
		}
	}
}
