package engine

import (
	"math/rand"

	"tichu/internal/deck"
)

// StartGrandTichu deals the first 9 cards to each participant and opens the
// Grand Tichu decision window. Only the owner may call it, and only once
// both teams have exactly two members.
func StartGrandTichu(g *Game, userID string, rng *rand.Rand) (*Game, error) {
	if userID != g.OwnerID {
		return nil, ErrNotOwner
	}
	if g.Stage != StageTeams {
		return nil, ErrWrongStage
	}
	payload, ok := g.StagePayload.(*TeamsPayload)
	if !ok {
		return nil, ErrWrongStage
	}
	if len(payload.TeamA.UserIDs) != 2 || len(payload.TeamB.UserIDs) != 2 {
		return nil, ErrUnbalanced
	}

	seats := seatOrder(payload.TeamA, payload.TeamB)
	next := g.clone()
	next.Participants = reorderBySeat(next.Participants, seats)

	shuffled := deck.New().Shuffle(rng)
	firstNine, remainder := shuffled.Deal()
	for seat, u := range next.Participants {
		u.Hand = firstNine[seat]
	}

	smallTichus := map[string]TichuCallStatus{}
	grandTichus := map[string]TichuCallStatus{}
	for _, u := range next.Participants {
		smallTichus[u.UserID] = Undecided
		grandTichus[u.UserID] = Undecided
	}

	next.Stage = StageGrandTichu
	next.StagePayload = &GrandTichuPayload{
		SmallTichus: smallTichus,
		GrandTichus: grandTichus,
		TeamA:       payload.TeamA,
		TeamB:       payload.TeamB,
		Deck:        remainder,
	}
	return next, nil
}

// seatOrder interleaves the two teams (A0, B0, A1, B1) so partners sit
// opposite one another, matching the turn-order rule in Play.
func seatOrder(a, b *Team) []string {
	return []string{a.UserIDs[0], b.UserIDs[0], a.UserIDs[1], b.UserIDs[1]}
}

func reorderBySeat(participants []*User, seats []string) []*User {
	byID := map[string]*User{}
	for _, u := range participants {
		byID[u.UserID] = u
	}
	ordered := make([]*User, 0, len(seats))
	for _, id := range seats {
		ordered = append(ordered, byID[id])
	}
	return ordered
}

// CallGrandTichu records a player's grand tichu decision. Once all four have
// decided, the final five cards are dealt and the game moves to Trade.
func CallGrandTichu(g *Game, userID string, called bool, rng *rand.Rand) (*Game, error) {
	if g.Stage != StageGrandTichu {
		return nil, ErrWrongStage
	}
	payload, ok := g.StagePayload.(*GrandTichuPayload)
	if !ok {
		return nil, ErrWrongStage
	}
	if payload.GrandTichus[userID] != Undecided {
		return nil, ErrAlreadyDecided
	}

	next := g.clone()
	nextPayload := &GrandTichuPayload{
		SmallTichus: cloneStatuses(payload.SmallTichus),
		GrandTichus: cloneStatuses(payload.GrandTichus),
		TeamA:       payload.TeamA,
		TeamB:       payload.TeamB,
		Deck:        payload.Deck,
	}
	status := Declined
	if called {
		status = Called
	}
	nextPayload.GrandTichus[userID] = status
	next.StagePayload = nextPayload

	allDecided := true
	for _, s := range nextPayload.GrandTichus {
		if s == Undecided {
			allDecided = false
			break
		}
	}
	if !allDecided {
		return next, nil
	}

	lastFive := deck.FinalFive(nextPayload.Deck)
	for seat, u := range next.Participants {
		u.Hand = append(u.Hand, lastFive[seat]...)
	}
	next.Stage = StageTrade
	next.StagePayload = &TradePayload{
		SmallTichus: nextPayload.SmallTichus,
		GrandTichus: nextPayload.GrandTichus,
		TeamA:       nextPayload.TeamA,
		TeamB:       nextPayload.TeamB,
		Trades:      map[string]*TradeSubmission{},
	}
	return next, nil
}

func cloneStatuses(m map[string]TichuCallStatus) map[string]TichuCallStatus {
	out := make(map[string]TichuCallStatus, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CallSmallTichu records a small tichu call, legal any time before the
// caller has played their first card.
func CallSmallTichu(g *Game, userID string) (*Game, error) {
	var small map[string]TichuCallStatus
	switch g.Stage {
	case StageGrandTichu:
		small = g.StagePayload.(*GrandTichuPayload).SmallTichus
	case StageTrade:
		small = g.StagePayload.(*TradePayload).SmallTichus
	case StagePlay:
		small = g.StagePayload.(*PlayPayload).SmallTichus
	default:
		return nil, ErrWrongStage
	}
	if small[userID] != Undecided {
		return nil, ErrAlreadyDecided
	}
	if u := g.findUser(userID); u != nil && u.HasPlayedFirstCard {
		return nil, ErrPastFirstPlay
	}

	next := g.clone()
	switch g.Stage {
	case StageGrandTichu:
		p := g.StagePayload.(*GrandTichuPayload)
		np := *p
		np.SmallTichus = cloneStatuses(p.SmallTichus)
		np.SmallTichus[userID] = Called
		next.StagePayload = &np
	case StageTrade:
		p := g.StagePayload.(*TradePayload)
		np := *p
		np.SmallTichus = cloneStatuses(p.SmallTichus)
		np.SmallTichus[userID] = Called
		next.StagePayload = &np
	case StagePlay:
		p := g.StagePayload.(*PlayPayload)
		np := *p
		np.SmallTichus = cloneStatuses(p.SmallTichus)
		np.SmallTichus[userID] = Called
		next.StagePayload = &np
	}
	return next, nil
}
