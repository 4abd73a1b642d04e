package engine

import (
	"math/rand"
	"testing"

	"tichu/internal/deck"
)

func newScoringGame(t *testing.T) (*Game, *PlayPayload) {
	t.Helper()
	teamA := &Team{ID: TeamA, Name: "Team A", UserIDs: []string{"u1", "u3"}, Score: 40}
	teamB := &Team{ID: TeamB, Name: "Team B", UserIDs: []string{"u2", "u4"}, Score: 60}

	var participants []*User
	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		participants = append(participants, newUser(id, id, RoleParticipant))
	}
	participants[0].Role = RoleOwner

	payload := &PlayPayload{
		SmallTichus: map[string]TichuCallStatus{"u1": Undecided, "u2": Undecided, "u3": Undecided, "u4": Undecided},
		GrandTichus: map[string]TichuCallStatus{"u1": Undecided, "u2": Undecided, "u3": Undecided, "u4": Undecided},
		TeamA:       teamA,
		TeamB:       teamB,
	}
	g := &Game{
		GameID:         "game-1",
		GameCode:       "ABCD",
		OwnerID:        "u1",
		Participants:   participants,
		Stage:          StagePlay,
		ScoreThreshold: 1000,
		StagePayload:   payload,
	}
	return g, payload
}

func TestFinishHandDoubleVictoryAwardsTwoHundredToZero(t *testing.T) {
	g, payload := newScoringGame(t)
	payload.FinishOrder = []string{"u1", "u3", "u2"}

	next, err := finishHand(g, payload)
	if err != nil {
		t.Fatalf("finishHand: %v", err)
	}
	if next.Stage != StageScoreboard {
		t.Fatalf("expected StageScoreboard, got %v", next.Stage)
	}
	score := next.StagePayload.(*ScoreboardPayload)
	if score.HandPointsA != 200 || score.HandPointsB != 0 {
		t.Fatalf("expected 200/0 double victory, got %d/%d", score.HandPointsA, score.HandPointsB)
	}
	if score.TeamA.Score != 240 || score.TeamB.Score != 60 {
		t.Fatalf("expected cumulative scores 240/60, got %d/%d", score.TeamA.Score, score.TeamB.Score)
	}
}

func TestFinishHandNormalHandTransfersLastPlayerPointsAndHand(t *testing.T) {
	g, payload := newScoringGame(t)
	payload.FinishOrder = []string{"u1", "u2", "u3"}

	u1 := g.findUser("u1")
	u1.Tricks = [][]deck.Card{{deck.Regular(deck.Sword, deck.Ten)}} // 10 points, already u1's
	u4 := g.findUser("u4")
	u4.Tricks = [][]deck.Card{{deck.Regular(deck.Jade, deck.Five)}} // 5 points, last player, passes to u1
	u4.Hand = []deck.Card{deck.Regular(deck.Star, deck.King)}       // 10 points still held, passes to the opposing team

	next, err := finishHand(g, payload)
	if err != nil {
		t.Fatalf("finishHand: %v", err)
	}
	score := next.StagePayload.(*ScoreboardPayload)
	// u4 (team B, last player) hands their 5 trick points to u1 (first out,
	// team A) and their held King (10 points) to the opposing team, team A.
	// Team A nets u1's own 10 + the transferred 5 + the transferred hand 10.
	if score.HandPointsA != 25 {
		t.Fatalf("expected team A to net 25 points, got %d", score.HandPointsA)
	}
	if score.HandPointsB != 0 {
		t.Fatalf("expected team B to net 0 points, got %d", score.HandPointsB)
	}
}

func TestFinishHandAppliesGrandTichuBonusToWinnerAndLoser(t *testing.T) {
	g, payload := newScoringGame(t)
	payload.FinishOrder = []string{"u1", "u2", "u3"}
	payload.GrandTichus["u1"] = Called // went out first, team A: +200
	payload.GrandTichus["u4"] = Called // did not go out first, team B: -200

	next, err := finishHand(g, payload)
	if err != nil {
		t.Fatalf("finishHand: %v", err)
	}
	score := next.StagePayload.(*ScoreboardPayload)
	if score.HandPointsA != 200 {
		t.Fatalf("expected team A's hand points to be exactly the +200 grand tichu bonus, got %d", score.HandPointsA)
	}
	if score.HandPointsB != -200 {
		t.Fatalf("expected team B's hand points to be exactly the -200 grand tichu penalty, got %d", score.HandPointsB)
	}
}

func TestFinishHandSetsGameOverAtThreshold(t *testing.T) {
	g, payload := newScoringGame(t)
	payload.TeamA.Score = 950
	payload.FinishOrder = []string{"u1", "u3", "u2"}

	next, err := finishHand(g, payload)
	if err != nil {
		t.Fatalf("finishHand: %v", err)
	}
	score := next.StagePayload.(*ScoreboardPayload)
	if !score.GameOver {
		t.Fatalf("expected game over once a team crosses the score threshold")
	}
}

func TestNewHandRequiresOwnerScoreboardAndNotGameOver(t *testing.T) {
	g, payload := newScoringGame(t)
	payload.FinishOrder = []string{"u1", "u3", "u2"}
	scoreboard, err := finishHand(g, payload)
	if err != nil {
		t.Fatalf("finishHand: %v", err)
	}
	rng := rand.New(rand.NewSource(1))

	if _, err := NewHand(scoreboard, "u2", rng); err != ErrNotOwner {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := NewHand(g, "u1", rng); err != ErrWrongStage {
		t.Fatalf("expected ErrWrongStage for a non-scoreboard game, got %v", err)
	}

	gameOver := scoreboard.clone()
	sb := scoreboard.StagePayload.(*ScoreboardPayload)
	gameOver.StagePayload = &ScoreboardPayload{TeamA: sb.TeamA, TeamB: sb.TeamB, GameOver: true}
	if _, err := NewHand(gameOver, "u1", rng); err != ErrWrongStage {
		t.Fatalf("expected ErrWrongStage once the game is over, got %v", err)
	}
}

func TestNewHandPreservesTeamsAndScoreAndClearsHands(t *testing.T) {
	g, payload := newScoringGame(t)
	payload.FinishOrder = []string{"u1", "u3", "u2"}
	g.findUser("u1").Hand = []deck.Card{deck.Regular(deck.Sword, deck.Ace)}
	g.findUser("u1").HasPlayedFirstCard = true

	scoreboard, err := finishHand(g, payload)
	if err != nil {
		t.Fatalf("finishHand: %v", err)
	}
	beforeScore := scoreboard.StagePayload.(*ScoreboardPayload)

	rng := rand.New(rand.NewSource(7))
	next, err := NewHand(scoreboard, "u1", rng)
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}
	if next.Stage != StageGrandTichu {
		t.Fatalf("expected NewHand to redeal into GrandTichu, got %v", next.Stage)
	}
	gtPayload := next.StagePayload.(*GrandTichuPayload)
	if gtPayload.TeamA.Score != beforeScore.TeamA.Score || gtPayload.TeamB.Score != beforeScore.TeamB.Score {
		t.Fatalf("expected cumulative score to carry over into the new hand")
	}
	for _, u := range next.Participants {
		if len(u.Hand) != 9 {
			t.Fatalf("expected a fresh 9-card deal for %s, got %d", u.UserID, len(u.Hand))
		}
		if u.HasPlayedFirstCard {
			t.Fatalf("expected HasPlayedFirstCard to reset for %s", u.UserID)
		}
	}
}
