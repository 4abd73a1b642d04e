package engine

import (
	"testing"

	"tichu/internal/deck"
)

func newTradeGame(t *testing.T, hands map[string][]deck.Card) *Game {
	t.Helper()
	teamA := &Team{ID: TeamA, Name: "Team A", UserIDs: []string{"u1", "u3"}}
	teamB := &Team{ID: TeamB, Name: "Team B", UserIDs: []string{"u2", "u4"}}

	var participants []*User
	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		u := newUser(id, id, RoleParticipant)
		u.Hand = hands[id]
		participants = append(participants, u)
	}
	participants[0].Role = RoleOwner

	return &Game{
		GameID:       "game-1",
		GameCode:     "ABCD",
		OwnerID:      "u1",
		Participants: participants,
		Stage:        StageTrade,
		StagePayload: &TradePayload{
			SmallTichus: map[string]TichuCallStatus{"u1": Undecided, "u2": Undecided, "u3": Undecided, "u4": Undecided},
			GrandTichus: map[string]TichuCallStatus{"u1": Undecided, "u2": Undecided, "u3": Undecided, "u4": Undecided},
			TeamA:       teamA,
			TeamB:       teamB,
			Trades:      map[string]*TradeSubmission{},
		},
	}
}

// fourteenCards returns a full suit (2..Ace, 13 ranks) plus one special card,
// giving a realistic 14-card Tichu hand without colliding with another
// player's special when each caller picks a distinct special.
func fourteenCards(seed deck.Suit, special deck.Card) []deck.Card {
	cards := make([]deck.Card, 0, 14)
	for v := deck.Value(2); v <= deck.Value(14); v++ {
		cards = append(cards, deck.Regular(seed, v))
	}
	return append(cards, special)
}

func tradeArgsTo(toU2, toU3, toU4 deck.Card) SubmitTradeArgs {
	return SubmitTradeArgs{Cards: [3]CardTrade{
		{Card: toU2, ToUserID: "u2"},
		{Card: toU3, ToUserID: "u3"},
		{Card: toU4, ToUserID: "u4"},
	}}
}

func TestSubmitTradeRejectsDoubleSubmission(t *testing.T) {
	g := newTradeGame(t, map[string][]deck.Card{
		"u1": fourteenCards(deck.Sword, deck.PhoenixCard),
		"u2": fourteenCards(deck.Jade, deck.MahJongCard),
		"u3": fourteenCards(deck.Pagoda, deck.DragonCard),
		"u4": fourteenCards(deck.Star, deck.DogCard),
	})
	args := tradeArgsTo(deck.Regular(deck.Sword, 2), deck.Regular(deck.Sword, 3), deck.Regular(deck.Sword, 4))
	g, err := SubmitTrade(g, "u1", args)
	if err != nil {
		t.Fatalf("SubmitTrade: %v", err)
	}
	if _, err := SubmitTrade(g, "u1", args); err != ErrAlreadySubmitted {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestSubmitTradeRejectsSelfOrDuplicateOrMissingTarget(t *testing.T) {
	g := newTradeGame(t, map[string][]deck.Card{
		"u1": fourteenCards(deck.Sword, deck.PhoenixCard),
		"u2": fourteenCards(deck.Jade, deck.MahJongCard),
		"u3": fourteenCards(deck.Pagoda, deck.DragonCard),
		"u4": fourteenCards(deck.Star, deck.DogCard),
	})
	c := deck.Regular(deck.Sword, 2)

	selfTarget := SubmitTradeArgs{Cards: [3]CardTrade{
		{Card: c, ToUserID: "u1"},
		{Card: deck.Regular(deck.Sword, 3), ToUserID: "u3"},
		{Card: deck.Regular(deck.Sword, 4), ToUserID: "u4"},
	}}
	if _, err := SubmitTrade(g, "u1", selfTarget); err != ErrInvalidTargets {
		t.Fatalf("expected ErrInvalidTargets for self-target, got %v", err)
	}

	duplicateTarget := SubmitTradeArgs{Cards: [3]CardTrade{
		{Card: c, ToUserID: "u2"},
		{Card: deck.Regular(deck.Sword, 3), ToUserID: "u2"},
		{Card: deck.Regular(deck.Sword, 4), ToUserID: "u4"},
	}}
	if _, err := SubmitTrade(g, "u1", duplicateTarget); err != ErrInvalidTargets {
		t.Fatalf("expected ErrInvalidTargets for duplicate target, got %v", err)
	}

	unknownTarget := SubmitTradeArgs{Cards: [3]CardTrade{
		{Card: c, ToUserID: "ghost"},
		{Card: deck.Regular(deck.Sword, 3), ToUserID: "u3"},
		{Card: deck.Regular(deck.Sword, 4), ToUserID: "u4"},
	}}
	if _, err := SubmitTrade(g, "u1", unknownTarget); err != ErrInvalidTargets {
		t.Fatalf("expected ErrInvalidTargets for unknown target, got %v", err)
	}
}

func TestSubmitTradeRejectsCardsNotHeld(t *testing.T) {
	g := newTradeGame(t, map[string][]deck.Card{
		"u1": {deck.Regular(deck.Sword, 2)},
		"u2": fourteenCards(deck.Jade, deck.MahJongCard),
		"u3": fourteenCards(deck.Pagoda, deck.DragonCard),
		"u4": fourteenCards(deck.Star, deck.DogCard),
	})
	args := tradeArgsTo(deck.Regular(deck.Jade, 5), deck.Regular(deck.Sword, 2), deck.Regular(deck.Star, 5))
	if _, err := SubmitTrade(g, "u1", args); err != ErrCardsNotHeld {
		t.Fatalf("expected ErrCardsNotHeld, got %v", err)
	}
}

func TestSubmitTradeResolvesOnceAllFourSubmitWithMahJongLeader(t *testing.T) {
	g := newTradeGame(t, map[string][]deck.Card{
		"u1": fourteenCards(deck.Sword, deck.PhoenixCard),
		"u2": fourteenCards(deck.Jade, deck.MahJongCard),
		"u3": fourteenCards(deck.Pagoda, deck.DragonCard),
		"u4": fourteenCards(deck.Star, deck.DogCard),
	})

	senders := []string{"u1", "u2", "u3", "u4"}
	for _, from := range senders {
		others := otherThree(senders, from)
		cards := g.findUser(from).Hand
		args := SubmitTradeArgs{Cards: [3]CardTrade{
			{Card: cards[0], ToUserID: others[0]},
			{Card: cards[1], ToUserID: others[1]},
			{Card: cards[2], ToUserID: others[2]},
		}}
		var err error
		g, err = SubmitTrade(g, from, args)
		if err != nil {
			t.Fatalf("SubmitTrade(%s): %v", from, err)
		}
	}

	if g.Stage != StagePlay {
		t.Fatalf("expected StagePlay once all four traded, got %v", g.Stage)
	}
	payload := g.StagePayload.(*PlayPayload)
	if !holdsMahJong(g.findUser(payload.TurnUserID)) {
		t.Fatalf("expected the MahJong holder to lead, turn is %s", payload.TurnUserID)
	}
	for _, u := range g.Participants {
		if len(u.Hand) != 14 {
			t.Fatalf("expected %s to still hold 14 cards after the exchange, got %d", u.UserID, len(u.Hand))
		}
	}
}

func otherThree(all []string, self string) []string {
	var out []string
	for _, id := range all {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

