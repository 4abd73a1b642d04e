// Package view projects a private engine.Game into the subset of state a
// given viewer is allowed to see: every hand but their own is hidden, decks
// are never sent, and pending trades are reduced to who has submitted.
package view

import (
	"tichu/internal/deck"
	"tichu/internal/engine"
)

type PublicUser struct {
	UserID             string
	DisplayName        string
	Role               engine.UserRole
	Hand               []deck.Card // nil unless this is the viewer
	HandSize           int
	TricksWon          int
	HasPlayedFirstCard bool
}

type PublicTeam struct {
	ID      string
	Name    string
	UserIDs []string
	Score   int
}

type PublicGameState struct {
	GameID       string
	GameCode     string
	OwnerID      string
	Participants []PublicUser
	Stage        engine.StageKind
	Lobby        *struct{}
	Teams        *PublicTeamsStage
	GrandTichu   *PublicGrandTichuStage
	Trade        *PublicTradeStage
	Play         *PublicPlayStage
	Scoreboard   *PublicScoreboardStage
}

type PublicTeamsStage struct {
	TeamA, TeamB PublicTeam
}

type PublicGrandTichuStage struct {
	SmallTichus map[string]engine.TichuCallStatus
	GrandTichus map[string]engine.TichuCallStatus
	TeamA, TeamB PublicTeam
}

type PublicTradeStage struct {
	SmallTichus map[string]engine.TichuCallStatus
	GrandTichus map[string]engine.TichuCallStatus
	TeamA, TeamB PublicTeam
	Submitted   []string // sender user_ids who have submitted a trade; cards never revealed
}

type PublicTablePlay struct {
	UserID string
	Cards  []deck.Card
}

type PublicPlayStage struct {
	SmallTichus          map[string]engine.TichuCallStatus
	GrandTichus          map[string]engine.TichuCallStatus
	TeamA, TeamB         PublicTeam
	Table                []PublicTablePlay
	TurnUserID           string
	WishedForCardValue   *deck.Value
	UserIDToGiveDragonTo *string
}

type PublicScoreboardStage struct {
	TeamA, TeamB         PublicTeam
	HandPointsA, HandPointsB int
	GameOver             bool
}

// ToPublicGameState projects g as viewerID would see it.
func ToPublicGameState(g *engine.Game, viewerID string) *PublicGameState {
	out := &PublicGameState{
		GameID:   g.GameID,
		GameCode: g.GameCode,
		OwnerID:  g.OwnerID,
		Stage:    g.Stage,
	}
	for _, u := range g.Participants {
		out.Participants = append(out.Participants, publicUser(u, viewerID))
	}

	switch p := g.StagePayload.(type) {
	case engine.LobbyPayload:
		out.Lobby = &struct{}{}
	case *engine.TeamsPayload:
		out.Teams = &PublicTeamsStage{TeamA: publicTeam(p.TeamA), TeamB: publicTeam(p.TeamB)}
	case *engine.GrandTichuPayload:
		out.GrandTichu = &PublicGrandTichuStage{
			SmallTichus: p.SmallTichus,
			GrandTichus: p.GrandTichus,
			TeamA:       publicTeam(p.TeamA),
			TeamB:       publicTeam(p.TeamB),
		}
	case *engine.TradePayload:
		var submitted []string
		for senderID := range p.Trades {
			submitted = append(submitted, senderID)
		}
		out.Trade = &PublicTradeStage{
			SmallTichus: p.SmallTichus,
			GrandTichus: p.GrandTichus,
			TeamA:       publicTeam(p.TeamA),
			TeamB:       publicTeam(p.TeamB),
			Submitted:   submitted,
		}
	case *engine.PlayPayload:
		var table []PublicTablePlay
		for _, tp := range p.Table {
			table = append(table, PublicTablePlay{UserID: tp.UserID, Cards: tp.Combo.Cards})
		}
		var wished *deck.Value
		if p.WishedForCardValue != nil {
			v := *p.WishedForCardValue
			wished = &v
		}
		out.Play = &PublicPlayStage{
			SmallTichus:          p.SmallTichus,
			GrandTichus:          p.GrandTichus,
			TeamA:                publicTeam(p.TeamA),
			TeamB:                publicTeam(p.TeamB),
			Table:                table,
			TurnUserID:           p.TurnUserID,
			WishedForCardValue:   wished,
			UserIDToGiveDragonTo: p.UserIDToGiveDragonTo,
		}
	case *engine.ScoreboardPayload:
		out.Scoreboard = &PublicScoreboardStage{
			TeamA:       publicTeam(p.TeamA),
			TeamB:       publicTeam(p.TeamB),
			HandPointsA: p.HandPointsA,
			HandPointsB: p.HandPointsB,
			GameOver:    p.GameOver,
		}
	}
	return out
}

func publicTeam(t *engine.Team) PublicTeam {
	return PublicTeam{ID: t.ID, Name: t.Name, UserIDs: append([]string{}, t.UserIDs...), Score: t.Score}
}

func publicUser(u *engine.User, viewerID string) PublicUser {
	pu := PublicUser{
		UserID:             u.UserID,
		DisplayName:        u.DisplayName,
		Role:               u.Role,
		HandSize:           len(u.Hand),
		TricksWon:          len(u.Tricks),
		HasPlayedFirstCard: u.HasPlayedFirstCard,
	}
	if u.UserID == viewerID {
		pu.Hand = append([]deck.Card{}, u.Hand...)
	}
	return pu
}
