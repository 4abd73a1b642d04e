package wsserver

import (
	"encoding/json"

	"tichu/internal/engine"
	"tichu/internal/logx"
	"tichu/internal/protocol"
	"tichu/internal/view"
)

// handleFrame decodes one client frame and routes it to the matching engine
// transition. The connection's server-assigned user_id is authoritative;
// any user_id embedded in the CTS payload itself is never trusted for
// authorization.
func (s *Server) handleFrame(userID string, raw []byte) {
	msg, err := protocol.DecodeCTS(raw)
	if err != nil {
		s.sendTo(userID, protocol.UnexpectedMessageReceived{Debug: err.Error()})
		return
	}

	switch m := msg.(type) {
	case protocol.CreateGame:
		s.handleCreateGame(userID, m)
	case protocol.JoinGameWithGameCode:
		s.handleJoinWithCode(userID, m)
	case protocol.JoinRandomGame:
		s.handleJoinRandom(userID, m)
	case protocol.LeaveGame:
		s.handleLeaveGame(userID)
	case protocol.MoveToTeam:
		s.mutateAndBroadcast(userID, func(g *engine.Game) (*engine.Game, error) {
			return engine.MoveToTeam(g, userID, m.Team)
		}, teamEvent(m.Team, userID))
	case protocol.RenameTeam:
		s.mutateAndBroadcast(userID, func(g *engine.Game) (*engine.Game, error) {
			return engine.RenameTeam(g, userID, m.Team, m.Name)
		}, renameEvent(m.Team, m.Name))
	case protocol.StartGrandTichu:
		s.handleStartGrandTichu(userID)
	case protocol.CallGrandTichu:
		rng := s.nextRand()
		s.mutateAndBroadcast(userID, func(g *engine.Game) (*engine.Game, error) {
			return engine.CallGrandTichu(g, userID, m.Called, rng)
		}, protocol.GrandTichuCalled{UserID: userID, Called: m.Called})
	case protocol.CallSmallTichu:
		s.mutateAndBroadcast(userID, func(g *engine.Game) (*engine.Game, error) {
			return engine.CallSmallTichu(g, userID)
		}, protocol.SmallTichuCalled{UserID: userID})
	case protocol.SubmitTrade:
		s.handleSubmitTrade(userID, m)
	case protocol.PlayCards:
		s.handlePlayCards(userID, m)
	case protocol.GiveDragon:
		s.mutateAndBroadcast(userID, func(g *engine.Game) (*engine.Game, error) {
			return engine.GiveDragon(g, userID, m.UserID)
		}, nil)
	case protocol.Pass:
		s.handlePass(userID)
	case protocol.CTSPing:
		s.sendTo(userID, protocol.STCPong{})
	case protocol.CTSPong:
		if c, ok := s.manager.Connection(userID); ok {
			c.SetAlive(true)
		}
	case protocol.CTSTest:
		s.sendTo(userID, protocol.STCTest{Text: m.Text})
	case protocol.AdminSkipToPlay:
		s.handleAdminSkipToPlay(userID)
	default:
		s.sendTo(userID, protocol.UnexpectedMessageReceived{Debug: "unhandled message"})
	}
}

func (s *Server) handleCreateGame(userID string, m protocol.CreateGame) {
	g, err := s.manager.CreateGame(userID, m.DisplayName)
	if err != nil {
		s.sendError(userID, err)
		return
	}
	s.manager.SetConnectionGame(userID, g.GameID)
	s.sendTo(userID, protocol.GameCreated{GameID: g.GameID, GameCode: g.GameCode})
	s.pushGameState(g.GameID)
}

func (s *Server) handleJoinWithCode(userID string, m protocol.JoinGameWithGameCode) {
	g, err := s.manager.JoinWithCode(userID, m.DisplayName, m.GameCode)
	if err != nil {
		s.sendError(userID, err)
		return
	}
	s.finishJoin(userID, g.GameID)
}

func (s *Server) handleJoinRandom(userID string, m protocol.JoinRandomGame) {
	g, err := s.manager.JoinRandom(userID, m.DisplayName)
	if err != nil {
		s.sendError(userID, err)
		return
	}
	s.finishJoin(userID, g.GameID)
}

func (s *Server) finishJoin(userID, gameID string) {
	s.manager.SetConnectionGame(userID, gameID)
	s.broadcastExcept(gameID, userID, protocol.UserJoined{UserID: userID})

	g, ok := s.manager.Game(gameID)
	if ok && g.Stage == engine.StageLobby && len(g.Participants) == 4 {
		next, err := s.manager.Mutate(gameID, func(cur *engine.Game) (*engine.Game, error) {
			return engine.EnterTeamsStage(cur), nil
		})
		if err != nil {
			logx.Error("wsserver: auto-advance to Teams failed game_id=%s err=%v", gameID, err)
		} else {
			s.broadcast(gameID, protocol.GameStageChanged{Stage: byte(next.Stage)})
		}
	}
	s.pushGameState(gameID)
}

func (s *Server) handleLeaveGame(userID string) {
	gameID := s.manager.GameIDFor(userID)
	if gameID == "" {
		s.sendError(userID, engine.ErrNotFound)
		return
	}
	before, _ := s.manager.Game(gameID)
	next, destroyed, err := s.manager.LeaveGame(gameID, userID)
	if err != nil {
		s.sendError(userID, err)
		return
	}
	s.manager.SetConnectionGame(userID, "")
	if destroyed {
		return
	}
	s.broadcast(gameID, protocol.UserLeft{UserID: userID})
	if before != nil && before.OwnerID == userID {
		s.broadcast(gameID, protocol.OwnerReassigned{UserID: next.OwnerID})
	}
	s.pushGameState(gameID)
}

func (s *Server) handleStartGrandTichu(userID string) {
	gameID := s.manager.GameIDFor(userID)
	if gameID == "" {
		s.sendError(userID, engine.ErrNotFound)
		return
	}
	g, ok := s.manager.Game(gameID)
	if !ok {
		s.sendError(userID, engine.ErrNotFound)
		return
	}
	rng := s.nextRand()

	if g.Stage == engine.StageScoreboard {
		next, err := s.manager.Mutate(gameID, func(cur *engine.Game) (*engine.Game, error) {
			return engine.NewHand(cur, userID, rng)
		})
		if err != nil {
			s.sendError(userID, err)
			return
		}
		s.broadcast(gameID, protocol.GameStageChanged{Stage: byte(next.Stage)})
		s.broadcast(gameID, protocol.FirstCardsDealt{})
		s.pushGameState(gameID)
		return
	}

	next, err := s.manager.Mutate(gameID, func(cur *engine.Game) (*engine.Game, error) {
		return engine.StartGrandTichu(cur, userID, rng)
	})
	if err != nil {
		s.sendError(userID, err)
		return
	}
	s.broadcast(gameID, protocol.GameStageChanged{Stage: byte(next.Stage)})
	s.broadcast(gameID, protocol.FirstCardsDealt{})
	s.pushGameState(gameID)
}

func (s *Server) handleSubmitTrade(userID string, m protocol.SubmitTrade) {
	gameID := s.manager.GameIDFor(userID)
	if gameID == "" {
		s.sendError(userID, engine.ErrNotFound)
		return
	}
	var cards [3]engine.CardTrade
	for i, c := range m.Cards {
		cards[i] = engine.CardTrade{Card: c.Card, ToUserID: c.ToUserID}
	}
	var stageAdvanced bool
	next, err := s.manager.Mutate(gameID, func(cur *engine.Game) (*engine.Game, error) {
		n, err := engine.SubmitTrade(cur, userID, engine.SubmitTradeArgs{Cards: cards})
		if err == nil && n.Stage == engine.StagePlay {
			stageAdvanced = true
		}
		return n, err
	})
	if err != nil {
		s.sendError(userID, err)
		return
	}
	s.broadcast(gameID, protocol.TradeSubmitted{UserID: userID})
	if stageAdvanced {
		s.broadcast(gameID, protocol.GameStageChanged{Stage: byte(next.Stage)})
		s.broadcast(gameID, protocol.DealFinalCards{})
	}
	s.pushGameState(gameID)
}

func (s *Server) handlePlayCards(userID string, m protocol.PlayCards) {
	gameID := s.manager.GameIDFor(userID)
	if gameID == "" {
		s.sendError(userID, engine.ErrNotFound)
		return
	}
	var dragonRecipient string
	var handOver, containsDragon bool
	next, err := s.manager.Mutate(gameID, func(cur *engine.Game) (*engine.Game, error) {
		before := cur.Stage
		n, err := engine.PlayCards(cur, userID, engine.PlayCardsArgs{
			Cards:        m.Cards,
			WishedFor:    m.WishedFor,
			GiveDragonTo: m.GiveDragonTo,
		})
		if err == nil {
			if m.GiveDragonTo != nil {
				containsDragon = true
				dragonRecipient = *m.GiveDragonTo
			}
			if before == engine.StagePlay && n.Stage == engine.StageScoreboard {
				handOver = true
			}
		}
		return n, err
	})
	if err != nil {
		s.sendError(userID, err)
		return
	}
	s.broadcast(gameID, protocol.CardsPlayed{})
	if containsDragon {
		s.broadcast(gameID, protocol.DragonWasWon{})
		s.broadcast(gameID, protocol.PlayerReceivedDragon{UserID: dragonRecipient})
	}
	if handOver {
		s.broadcastHandOver(gameID, next)
	}
	s.pushGameState(gameID)
}

func (s *Server) handlePass(userID string) {
	gameID := s.manager.GameIDFor(userID)
	if gameID == "" {
		s.sendError(userID, engine.ErrNotFound)
		return
	}
	var handOver, dragonAwarded bool
	var dragonRecipient string
	next, err := s.manager.Mutate(gameID, func(cur *engine.Game) (*engine.Game, error) {
		before, ok := cur.StagePayload.(*engine.PlayPayload)
		var beforeDragonTarget *string
		if ok {
			beforeDragonTarget = before.UserIDToGiveDragonTo
		}
		n, err := engine.Pass(cur, userID)
		if err == nil {
			after, stillPlay := n.StagePayload.(*engine.PlayPayload)
			trickClosed := !stillPlay || len(after.Table) == 0
			if beforeDragonTarget != nil && trickClosed {
				dragonAwarded = true
				dragonRecipient = *beforeDragonTarget
			}
			if cur.Stage == engine.StagePlay && n.Stage == engine.StageScoreboard {
				handOver = true
			}
		}
		return n, err
	})
	if err != nil {
		s.sendError(userID, err)
		return
	}
	s.broadcast(gameID, protocol.UserPassed{UserID: userID})
	if dragonAwarded {
		s.broadcast(gameID, protocol.DragonWasWon{})
		s.broadcast(gameID, protocol.PlayerReceivedDragon{UserID: dragonRecipient})
	}
	if handOver {
		s.broadcastHandOver(gameID, next)
	}
	s.pushGameState(gameID)
}

func (s *Server) broadcastHandOver(gameID string, g *engine.Game) {
	s.broadcast(gameID, protocol.GameStageChanged{Stage: byte(g.Stage)})
	if sb, ok := g.StagePayload.(*engine.ScoreboardPayload); ok && sb.GameOver {
		s.broadcast(gameID, protocol.GameEndedFinal{})
		return
	}
	s.broadcast(gameID, protocol.GameEnded{})
}

func (s *Server) handleAdminSkipToPlay(userID string) {
	gameID := s.manager.GameIDFor(userID)
	if gameID == "" {
		s.sendError(userID, engine.ErrNotFound)
		return
	}
	rng := s.nextRand()
	next, err := s.manager.Mutate(gameID, func(cur *engine.Game) (*engine.Game, error) {
		return engine.AdminSkipToPlay(cur, userID, rng)
	})
	if err != nil {
		s.sendError(userID, err)
		return
	}
	s.broadcast(gameID, protocol.GameStageChanged{Stage: byte(next.Stage)})
	s.pushGameState(gameID)
}

// mutateAndBroadcast is the common path for operations whose only
// observable side effect besides the state push is a single STC event keyed
// to the acting user_id. event may be nil to skip the broadcast (still
// pushes state).
func (s *Server) mutateAndBroadcast(userID string, fn func(*engine.Game) (*engine.Game, error), event protocol.ServerMessage) {
	gameID := s.manager.GameIDFor(userID)
	if gameID == "" {
		s.sendError(userID, engine.ErrNotFound)
		return
	}
	_, err := s.manager.Mutate(gameID, fn)
	if err != nil {
		s.sendError(userID, err)
		return
	}
	if event != nil {
		s.broadcast(gameID, event)
	}
	s.pushGameState(gameID)
}

func teamEvent(team, userID string) protocol.ServerMessage {
	if team == engine.TeamB {
		return protocol.UserMovedToTeamB{UserID: userID}
	}
	return protocol.UserMovedToTeamA{UserID: userID}
}

func renameEvent(team, name string) protocol.ServerMessage {
	if team == engine.TeamB {
		return protocol.TeamBRenamed{Name: name}
	}
	return protocol.TeamARenamed{Name: name}
}

func (s *Server) sendTo(userID string, m protocol.ServerMessage) {
	c, ok := s.manager.Connection(userID)
	if !ok {
		return
	}
	c.Send(protocol.EncodeSTC(m))
}

func (s *Server) broadcast(gameID string, m protocol.ServerMessage) {
	frame := protocol.EncodeSTC(m)
	for _, c := range s.manager.Connections(gameID) {
		c.Send(frame)
	}
}

func (s *Server) broadcastExcept(gameID, exceptUserID string, m protocol.ServerMessage) {
	frame := protocol.EncodeSTC(m)
	for _, c := range s.manager.Connections(gameID) {
		if c.UserID == exceptUserID {
			continue
		}
		c.Send(frame)
	}
}

// pushGameState sends every connection in gameID a fresh, per-viewer
// projection of the current game, JSON-encoded inside the STC GameState
// envelope.
func (s *Server) pushGameState(gameID string) {
	g, ok := s.manager.Game(gameID)
	for _, c := range s.manager.Connections(gameID) {
		if !ok {
			c.Send(protocol.EncodeSTC(protocol.GameState{Present: false}))
			continue
		}
		pub := view.ToPublicGameState(g, c.UserID)
		payload, err := json.Marshal(pub)
		if err != nil {
			logx.Error("wsserver: marshal game state failed game_id=%s err=%v", gameID, err)
			continue
		}
		c.Send(protocol.EncodeSTC(protocol.GameState{Present: true, Payload: payload}))
	}
}

// sendError handles a rejected request: it logs err and drops the request;
// nothing is sent back to the client.
func (s *Server) sendError(userID string, err error) {
	logx.Debug("wsserver: request dropped user_id=%s err=%v", userID, err)
}
