package engine

import (
	"math/rand"

	"tichu/internal/combo"
	"tichu/internal/deck"
)

// PlayCardsArgs is the per-call argument for PlayCards.
type PlayCardsArgs struct {
	Cards         []deck.Card
	WishedFor     *deck.Value
	GiveDragonTo  *string
}

// PlayCards validates and applies one play. A Bomb may be played out of
// turn at any moment the table is non-empty and the Bomb beats the current
// top; this is the only case NotYourTurn is bypassed.
func PlayCards(g *Game, userID string, args PlayCardsArgs) (*Game, error) {
	if g.Stage != StagePlay {
		return nil, ErrWrongStage
	}
	payload, ok := g.StagePayload.(*PlayPayload)
	if !ok {
		return nil, ErrWrongStage
	}
	player := g.findUser(userID)
	if player == nil {
		return nil, ErrNotFound
	}
	for _, c := range args.Cards {
		if !player.holds(c) {
			return nil, ErrCardsNotHeld
		}
	}

	played, err := combo.Recognize(args.Cards)
	if err != nil {
		return nil, ErrBadCombo
	}

	var top *combo.Combo
	if len(payload.Table) > 0 {
		top = payload.Table[len(payload.Table)-1].Combo
	}
	beats, err := combo.Beats(played, top)
	if err != nil || !beats {
		return nil, ErrDoesNotBeat
	}

	isBombOverride := played.Kind.IsBomb() && top != nil && userID != payload.TurnUserID
	if userID != payload.TurnUserID && !isBombOverride {
		return nil, ErrNotYourTurn
	}

	if payload.WishedForCardValue != nil && !isBombOverride {
		if handHasValue(player, *payload.WishedForCardValue) && !comboHasValue(played, *payload.WishedForCardValue) {
			return nil, ErrMustFulfillWish
		}
	}

	containsDragon := false
	for _, c := range args.Cards {
		if c.Special == deck.Dragon {
			containsDragon = true
		}
	}
	if containsDragon {
		if args.GiveDragonTo == nil {
			return nil, ErrMissingDragonRecipient
		}
		if teamOf(payload, *args.GiveDragonTo) == teamOf(payload, userID) {
			return nil, ErrMissingDragonRecipient
		}
	}

	next := g.clone()
	nextPayload := *payload
	nextPayload.Table = append(append([]TablePlay{}, payload.Table...), TablePlay{Combo: played, UserID: userID})
	nextPayload.PassesSinceLastPlay = 0
	nextPayload.SmallTichus = payload.SmallTichus
	nextPayload.GrandTichus = payload.GrandTichus

	actor := next.findUser(userID)
	actor.removeCards(args.Cards)
	actor.HasPlayedFirstCard = true

	if containsMahJong(args.Cards) {
		nextPayload.WishedForCardValue = args.WishedFor
	} else if payload.WishedForCardValue != nil && comboHasValue(played, *payload.WishedForCardValue) {
		nextPayload.WishedForCardValue = nil
	}

	if containsDragon {
		nextPayload.UserIDToGiveDragonTo = args.GiveDragonTo
	}

	if len(actor.Hand) == 0 {
		nextPayload.FinishOrder = append(append([]string{}, payload.FinishOrder...), userID)
	}

	if containsDog(args.Cards) {
		nextPayload.Table = nil
		nextPayload.PassesSinceLastPlay = 0
		nextPayload.TurnUserID = partnerOf(&nextPayload, userID)
	} else {
		nextPayload.TurnUserID = nextActiveSeat(next, userID)
	}

	next.StagePayload = &nextPayload

	if len(nextPayload.FinishOrder) >= 3 {
		return finishHand(next, &nextPayload)
	}
	return next, nil
}

// GiveDragon changes the Dragon recipient while the played Dragon single is
// still on top of the table, before three passes have closed the trick out.
// play_cards already requires a recipient up front; this lets the player
// change their mind before anyone has acted on it.
func GiveDragon(g *Game, userID, toUserID string) (*Game, error) {
	if g.Stage != StagePlay {
		return nil, ErrWrongStage
	}
	payload, ok := g.StagePayload.(*PlayPayload)
	if !ok {
		return nil, ErrWrongStage
	}
	if len(payload.Table) == 0 {
		return nil, ErrMissingDragonRecipient
	}
	top := payload.Table[len(payload.Table)-1]
	if top.UserID != userID || top.Combo.Kind != combo.Single || !containsDragonCard(top.Combo.Cards) {
		return nil, ErrMissingDragonRecipient
	}
	if teamOf(payload, toUserID) == teamOf(payload, userID) {
		return nil, ErrMissingDragonRecipient
	}

	next := g.clone()
	nextPayload := *payload
	nextPayload.UserIDToGiveDragonTo = &toUserID
	next.StagePayload = &nextPayload
	return next, nil
}

// Pass advances the turn without playing; three consecutive passes close
// out the trick for whoever played last.
func Pass(g *Game, userID string) (*Game, error) {
	if g.Stage != StagePlay {
		return nil, ErrWrongStage
	}
	payload, ok := g.StagePayload.(*PlayPayload)
	if !ok {
		return nil, ErrWrongStage
	}
	if userID != payload.TurnUserID {
		return nil, ErrNotYourTurn
	}
	if len(payload.Table) == 0 {
		return nil, ErrCannotPassOnLead
	}
	if payload.Table[0].UserID == userID {
		return nil, ErrCannotPassOnLead
	}

	next := g.clone()
	nextPayload := *payload
	nextPayload.PassesSinceLastPlay++

	if nextPayload.PassesSinceLastPlay < 3 {
		nextPayload.TurnUserID = nextActiveSeat(next, userID)
		next.StagePayload = &nextPayload
		return next, nil
	}

	winner := payload.Table[len(payload.Table)-1]
	trickCards := tablePlayCards(payload.Table)
	recipientID := winner.UserID
	if payload.UserIDToGiveDragonTo != nil {
		lastCombo := winner.Combo
		if lastCombo.Kind == combo.Single && containsDragonCard(lastCombo.Cards) {
			recipientID = *payload.UserIDToGiveDragonTo
		}
	}
	recipient := next.findUser(recipientID)
	recipient.Tricks = append(recipient.Tricks, trickCards)

	nextPayload.Table = nil
	nextPayload.PassesSinceLastPlay = 0
	nextPayload.UserIDToGiveDragonTo = nil
	nextPayload.TurnUserID = winner.UserID
	next.StagePayload = &nextPayload

	if len(nextPayload.FinishOrder) >= 3 {
		return finishHand(next, &nextPayload)
	}
	return next, nil
}

// AdminSkipToPlay force-deals and jumps straight to Play: every Grand Tichu
// is declined, no cards are traded, and the MahJong holder leads.
// Debug-only; only the owner may call it, and the dispatcher reaches it
// through the AdminSkipToPlay CTS message.
func AdminSkipToPlay(g *Game, userID string, rng *rand.Rand) (*Game, error) {
	if userID != g.OwnerID {
		return nil, ErrNotOwner
	}
	switch g.Stage {
	case StageLobby:
		if len(g.Participants) != 4 {
			return nil, ErrUnbalanced
		}
		g = EnterTeamsStage(g)
		a := g.StagePayload.(*TeamsPayload)
		a.TeamA.UserIDs = []string{g.Participants[0].UserID, g.Participants[1].UserID}
		a.TeamB.UserIDs = []string{g.Participants[2].UserID, g.Participants[3].UserID}
	}
	if g.Stage == StageTeams {
		started, err := StartGrandTichu(g, g.OwnerID, rng)
		if err != nil {
			return nil, err
		}
		g = started
	}
	if g.Stage != StageGrandTichu {
		return nil, ErrWrongStage
	}
	var last *Game
	var err error
	for _, u := range g.Participants {
		last, err = CallGrandTichu(g, u.UserID, false, rng)
		if err != nil {
			return nil, err
		}
		g = last
		if g.Stage != StageGrandTichu {
			break
		}
	}
	if g.Stage == StageTrade {
		return resolveTrade(g, g.StagePayload.(*TradePayload))
	}
	return g, nil
}

func handHasValue(u *User, v deck.Value) bool {
	for _, c := range u.Hand {
		if c.Value == v && !c.IsSpecial() {
			return true
		}
	}
	return false
}

func comboHasValue(c *combo.Combo, v deck.Value) bool {
	for _, card := range c.Cards {
		if card.Value == v && !card.IsSpecial() {
			return true
		}
	}
	return false
}

func containsMahJong(cards []deck.Card) bool {
	for _, c := range cards {
		if c.Special == deck.MahJong {
			return true
		}
	}
	return false
}

func containsDog(cards []deck.Card) bool {
	for _, c := range cards {
		if c.Special == deck.Dog {
			return true
		}
	}
	return false
}

func containsDragonCard(cards []deck.Card) bool {
	for _, c := range cards {
		if c.Special == deck.Dragon {
			return true
		}
	}
	return false
}

func tablePlayCards(table []TablePlay) []deck.Card {
	var out []deck.Card
	for _, tp := range table {
		out = append(out, tp.Combo.Cards...)
	}
	return out
}

func teamOf(payload *PlayPayload, userID string) string {
	if payload.TeamA.has(userID) {
		return TeamA
	}
	return TeamB
}

func partnerOf(payload *PlayPayload, userID string) string {
	team := payload.TeamA
	if !team.has(userID) {
		team = payload.TeamB
	}
	for _, id := range team.UserIDs {
		if id != userID {
			return id
		}
	}
	return userID
}

// nextActiveSeat returns the next participant (in Participants order,
// wrapping) after userID whose hand is non-empty.
func nextActiveSeat(g *Game, userID string) string {
	idx := -1
	for i, u := range g.Participants {
		if u.UserID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return userID
	}
	n := len(g.Participants)
	for step := 1; step <= n; step++ {
		candidate := g.Participants[(idx+step)%n]
		if len(candidate.Hand) > 0 {
			return candidate.UserID
		}
	}
	return userID
}
