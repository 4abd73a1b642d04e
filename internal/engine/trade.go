package engine

import "tichu/internal/deck"

// SubmitTradeArgs is the per-call argument for SubmitTrade: three cards,
// one destined for each of the other three participants.
type SubmitTradeArgs struct {
	Cards [3]CardTrade
}

// SubmitTrade records one player's trade. Once all four participants have
// submitted, the cards are exchanged simultaneously, hands are recomputed,
// and the game moves to Play with the MahJong holder leading.
func SubmitTrade(g *Game, userID string, args SubmitTradeArgs) (*Game, error) {
	if g.Stage != StageTrade {
		return nil, ErrWrongStage
	}
	payload, ok := g.StagePayload.(*TradePayload)
	if !ok {
		return nil, ErrWrongStage
	}
	if _, already := payload.Trades[userID]; already {
		return nil, ErrAlreadySubmitted
	}

	sender := g.findUser(userID)
	if sender == nil {
		return nil, ErrNotFound
	}
	if err := validateTradeTargets(g, userID, args.Cards); err != nil {
		return nil, err
	}
	for _, t := range args.Cards {
		if !sender.holds(t.Card) {
			return nil, ErrCardsNotHeld
		}
	}

	next := g.clone()
	nextTrades := make(map[string]*TradeSubmission, len(payload.Trades)+1)
	for k, v := range payload.Trades {
		nextTrades[k] = v
	}
	nextTrades[userID] = &TradeSubmission{FromUserID: userID, Cards: args.Cards}
	nextPayload := &TradePayload{
		SmallTichus: payload.SmallTichus,
		GrandTichus: payload.GrandTichus,
		TeamA:       payload.TeamA,
		TeamB:       payload.TeamB,
		Trades:      nextTrades,
	}
	next.StagePayload = nextPayload

	if len(nextTrades) < 4 {
		return next, nil
	}
	return resolveTrade(next, nextPayload)
}

func validateTradeTargets(g *Game, fromUserID string, cards [3]CardTrade) error {
	seen := map[string]bool{}
	for _, c := range cards {
		if c.ToUserID == fromUserID {
			return ErrInvalidTargets
		}
		if g.findUser(c.ToUserID) == nil {
			return ErrInvalidTargets
		}
		if seen[c.ToUserID] {
			return ErrInvalidTargets
		}
		seen[c.ToUserID] = true
	}
	if len(seen) != 3 {
		return ErrInvalidTargets
	}
	return nil
}

// resolveTrade performs the simultaneous four-way exchange once all trades
// are in, then transitions to Play with the MahJong holder leading.
func resolveTrade(next *Game, payload *TradePayload) (*Game, error) {
	for _, trade := range payload.Trades {
		sender := next.findUser(trade.FromUserID)
		sender.removeCards(tradeCards(trade))
	}
	for _, trade := range payload.Trades {
		for _, t := range trade.Cards {
			recipient := next.findUser(t.ToUserID)
			recipient.Hand = append(recipient.Hand, t.Card)
		}
	}

	var turnUserID string
	for _, u := range next.Participants {
		if holdsMahJong(u) {
			turnUserID = u.UserID
			break
		}
	}

	next.Stage = StagePlay
	next.StagePayload = &PlayPayload{
		SmallTichus: payload.SmallTichus,
		GrandTichus: payload.GrandTichus,
		TeamA:       payload.TeamA,
		TeamB:       payload.TeamB,
		TurnUserID:  turnUserID,
	}
	return next, nil
}

func tradeCards(trade *TradeSubmission) []deck.Card {
	out := make([]deck.Card, 0, len(trade.Cards))
	for _, c := range trade.Cards {
		out = append(out, c.Card)
	}
	return out
}

func holdsMahJong(u *User) bool {
	for _, c := range u.Hand {
		if c.Special == deck.MahJong {
			return true
		}
	}
	return false
}
