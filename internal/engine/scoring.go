package engine

import (
	"math/rand"

	"tichu/internal/deck"
)

// cardPoints returns a single card's contribution to the 100-point-per-hand
// pool: 5s are worth 5, 10s and Kings 10, the Dragon 25, the Phoenix -25.
func cardPoints(c deck.Card) int {
	switch c.Special {
	case deck.Dragon:
		return 25
	case deck.Phoenix:
		return -25
	}
	switch c.Value {
	case deck.Five:
		return 5
	case deck.Ten, deck.King:
		return 10
	default:
		return 0
	}
}

func sumPoints(cards []deck.Card) int {
	total := 0
	for _, c := range cards {
		total += cardPoints(c)
	}
	return total
}

// finishHand is reached once three of the four participants have emptied
// their hands. It tallies card points, tichu bonuses, and the
// going-out-order rules, then moves the game to Scoreboard.
func finishHand(g *Game, payload *PlayPayload) (*Game, error) {
	finishers := payload.FinishOrder
	var lastPlayer *User
	for _, u := range g.Participants {
		if !containsString(finishers, u.UserID) {
			lastPlayer = u
			break
		}
	}

	pointsByUser := map[string]int{}
	for _, u := range g.Participants {
		for _, trick := range u.Tricks {
			pointsByUser[u.UserID] += sumPoints(trick)
		}
	}

	doubleVictory := len(finishers) >= 2 && teamOf(payload, finishers[0]) == teamOf(payload, finishers[1])

	var pointsA, pointsB int
	if doubleVictory {
		if teamOf(payload, finishers[0]) == TeamA {
			pointsA, pointsB = 200, 0
		} else {
			pointsA, pointsB = 0, 200
		}
	} else {
		// The last player's captured tricks pass to whoever went out first;
		// their still-held hand cards pass to the opposing team.
		if lastPlayer != nil {
			pointsByUser[finishers[0]] += pointsByUser[lastPlayer.UserID]
			delete(pointsByUser, lastPlayer.UserID)
			handPoints := sumPoints(lastPlayer.Hand)
			if teamOf(payload, lastPlayer.UserID) == TeamA {
				pointsB += handPoints
			} else {
				pointsA += handPoints
			}
		}
		for userID, pts := range pointsByUser {
			if teamOf(payload, userID) == TeamA {
				pointsA += pts
			} else {
				pointsB += pts
			}
		}
	}

	tichuA, tichuB := tichuBonuses(payload, finishers)
	pointsA += tichuA
	pointsB += tichuB

	next := g.clone()
	nextTeamA := &Team{ID: payload.TeamA.ID, Name: payload.TeamA.Name, UserIDs: payload.TeamA.UserIDs, Score: payload.TeamA.Score + pointsA}
	nextTeamB := &Team{ID: payload.TeamB.ID, Name: payload.TeamB.Name, UserIDs: payload.TeamB.UserIDs, Score: payload.TeamB.Score + pointsB}

	next.Stage = StageScoreboard
	next.StagePayload = &ScoreboardPayload{
		TeamA:       nextTeamA,
		TeamB:       nextTeamB,
		HandPointsA: pointsA,
		HandPointsB: pointsB,
		GameOver:    nextTeamA.Score >= next.ScoreThreshold || nextTeamB.Score >= next.ScoreThreshold,
	}
	return next, nil
}

// tichuBonuses scores every Called Grand/Small Tichu: +/-200 for Grand,
// +/-100 for Small, based on whether the caller went out first.
func tichuBonuses(payload *PlayPayload, finishers []string) (bonusA, bonusB int) {
	wentOutFirst := ""
	if len(finishers) > 0 {
		wentOutFirst = finishers[0]
	}
	apply := func(statuses map[string]TichuCallStatus, amount int) {
		for userID, status := range statuses {
			if status != Called {
				continue
			}
			delta := -amount
			if userID == wentOutFirst {
				delta = amount
			}
			if teamOf(payload, userID) == TeamA {
				bonusA += delta
			} else {
				bonusB += delta
			}
		}
	}
	apply(payload.GrandTichus, 200)
	apply(payload.SmallTichus, 100)
	return bonusA, bonusB
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// NewHand is the owner-triggered advance from a non-terminal Scoreboard
// back into GrandTichu, preserving team identity and cumulative score.
func NewHand(g *Game, userID string, rng *rand.Rand) (*Game, error) {
	if userID != g.OwnerID {
		return nil, ErrNotOwner
	}
	if g.Stage != StageScoreboard {
		return nil, ErrWrongStage
	}
	payload, ok := g.StagePayload.(*ScoreboardPayload)
	if !ok {
		return nil, ErrWrongStage
	}
	if payload.GameOver {
		return nil, ErrWrongStage
	}

	next := g.clone()
	for _, u := range next.Participants {
		u.Hand = nil
		u.Tricks = nil
		u.HasPlayedFirstCard = false
	}
	next.Stage = StageTeams
	next.StagePayload = &TeamsPayload{TeamA: payload.TeamA, TeamB: payload.TeamB}
	return StartGrandTichu(next, next.OwnerID, rng)
}
