package engine

import (
	"math/rand"
	"testing"
)

func balancedTeamsGame(t *testing.T) *Game {
	t.Helper()
	g := fourPlayerLobby(t)
	g = EnterTeamsStage(g)
	var err error
	g, err = MoveToTeam(g, "u1", TeamA)
	if err != nil {
		t.Fatalf("MoveToTeam u1: %v", err)
	}
	g, err = MoveToTeam(g, "u3", TeamA)
	if err != nil {
		t.Fatalf("MoveToTeam u3: %v", err)
	}
	g, err = MoveToTeam(g, "u2", TeamB)
	if err != nil {
		t.Fatalf("MoveToTeam u2: %v", err)
	}
	g, err = MoveToTeam(g, "u4", TeamB)
	if err != nil {
		t.Fatalf("MoveToTeam u4: %v", err)
	}
	return g
}

func TestStartGrandTichuRequiresBalancedTeamsAndOwner(t *testing.T) {
	g := fourPlayerLobby(t)
	g = EnterTeamsStage(g)
	rng := rand.New(rand.NewSource(1))
	if _, err := StartGrandTichu(g, "u1", rng); err != ErrUnbalanced {
		t.Fatalf("expected ErrUnbalanced, got %v", err)
	}

	g = balancedTeamsGame(t)
	if _, err := StartGrandTichu(g, "u2", rng); err != ErrNotOwner {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	next, err := StartGrandTichu(g, "u1", rng)
	if err != nil {
		t.Fatalf("StartGrandTichu: %v", err)
	}
	if next.Stage != StageGrandTichu {
		t.Fatalf("expected StageGrandTichu, got %v", next.Stage)
	}
	for _, u := range next.Participants {
		if len(u.Hand) != 9 {
			t.Fatalf("expected 9 cards for %s, got %d", u.UserID, len(u.Hand))
		}
	}
	payload := next.StagePayload.(*GrandTichuPayload)
	if len(payload.Deck) != 20 {
		t.Fatalf("expected 20 undealt cards, got %d", len(payload.Deck))
	}
}

func TestStartGrandTichuSeatsPartnersOpposite(t *testing.T) {
	g := balancedTeamsGame(t)
	rng := rand.New(rand.NewSource(2))
	next, err := StartGrandTichu(g, "u1", rng)
	if err != nil {
		t.Fatalf("StartGrandTichu: %v", err)
	}
	seats := next.Participants
	payload := next.StagePayload.(*GrandTichuPayload)
	if !payload.TeamA.has(seats[0].UserID) || !payload.TeamA.has(seats[2].UserID) {
		t.Fatalf("expected seats 0 and 2 to both be on team A: %+v", seats)
	}
	if !payload.TeamB.has(seats[1].UserID) || !payload.TeamB.has(seats[3].UserID) {
		t.Fatalf("expected seats 1 and 3 to both be on team B: %+v", seats)
	}
}

func TestCallGrandTichuDealsFinalFiveOnceAllDecided(t *testing.T) {
	g := balancedTeamsGame(t)
	rng := rand.New(rand.NewSource(3))
	g, err := StartGrandTichu(g, "u1", rng)
	if err != nil {
		t.Fatalf("StartGrandTichu: %v", err)
	}

	for i, u := range g.Participants {
		g, err = CallGrandTichu(g, u.UserID, i == 0, rng)
		if err != nil {
			t.Fatalf("CallGrandTichu: %v", err)
		}
	}
	if g.Stage != StageTrade {
		t.Fatalf("expected StageTrade once all decided, got %v", g.Stage)
	}
	for _, u := range g.Participants {
		if len(u.Hand) != 14 {
			t.Fatalf("expected 14 cards for %s, got %d", u.UserID, len(u.Hand))
		}
	}
}

func TestCallGrandTichuRejectsDoubleDecision(t *testing.T) {
	g := balancedTeamsGame(t)
	rng := rand.New(rand.NewSource(4))
	g, _ = StartGrandTichu(g, "u1", rng)
	g, err := CallGrandTichu(g, "u1", true, rng)
	if err != nil {
		t.Fatalf("CallGrandTichu: %v", err)
	}
	if _, err := CallGrandTichu(g, "u1", false, rng); err != ErrAlreadyDecided {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
}

func TestCallSmallTichuRejectsAfterFirstPlay(t *testing.T) {
	g := balancedTeamsGame(t)
	rng := rand.New(rand.NewSource(5))
	g, _ = StartGrandTichu(g, "u1", rng)
	for _, u := range g.Participants {
		var err error
		g, err = CallGrandTichu(g, u.UserID, false, rng)
		if err != nil {
			t.Fatalf("CallGrandTichu: %v", err)
		}
	}
	player := g.findUser(g.StagePayload.(*TradePayload).TeamA.UserIDs[0])
	player.HasPlayedFirstCard = true
	if _, err := CallSmallTichu(g, player.UserID); err != ErrPastFirstPlay {
		t.Fatalf("expected ErrPastFirstPlay, got %v", err)
	}
}
