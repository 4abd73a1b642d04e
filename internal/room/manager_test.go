package room

import (
	"testing"
	"time"

	"tichu/internal/engine"
)

func TestCreateAndJoinWithCode(t *testing.T) {
	m := NewManager(60 * time.Second)
	g, err := m.CreateGame("alice", "Alice")
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if g.Stage != engine.StageLobby || len(g.GameCode) != 4 {
		t.Fatalf("unexpected game: %+v", g)
	}

	joined, err := m.JoinWithCode("bob", "Bob", g.GameCode)
	if err != nil {
		t.Fatalf("JoinWithCode: %v", err)
	}
	if len(joined.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(joined.Participants))
	}

	if _, err := m.JoinWithCode("carl", "Carl", "ZZZZ"); err != engine.ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown code, got %v", err)
	}
}

func TestJoinRandomFillsOldestGame(t *testing.T) {
	m := NewManager(60 * time.Second)
	first, _ := m.CreateGame("alice", "Alice")
	time.Sleep(time.Millisecond)
	m.CreateGame("zed", "Zed")

	joined, err := m.JoinRandom("bob", "Bob")
	if err != nil {
		t.Fatalf("JoinRandom: %v", err)
	}
	if joined.GameID != first.GameID {
		t.Fatalf("expected to join the oldest game %s, got %s", first.GameID, joined.GameID)
	}
}

func TestAttachAssignsFreshIDForSentinel(t *testing.T) {
	m := NewManager(60 * time.Second)
	out := make(chan []byte, 1)
	userID, reconnected, gameID := m.Attach("no_id", out)
	if userID == "" || reconnected || gameID != "" {
		t.Fatalf("unexpected attach result: %q %v %q", userID, reconnected, gameID)
	}
	if _, ok := m.Connection(userID); !ok {
		t.Fatalf("expected connection to be registered")
	}
}

func TestAttachReconnectsLiveGameMember(t *testing.T) {
	m := NewManager(60 * time.Second)
	out1 := make(chan []byte, 1)
	userID, _, _ := m.Attach("no_id", out1)
	m.SetConnectionGame(userID, "game-1")

	out2 := make(chan []byte, 1)
	_, reconnected, gameID := m.Attach(userID, out2)
	if !reconnected || gameID != "game-1" {
		t.Fatalf("expected reconnect to game-1, got reconnected=%v gameID=%q", reconnected, gameID)
	}
}

func TestDestroyGameReleasesCode(t *testing.T) {
	m := NewManager(60 * time.Second)
	g, _ := m.CreateGame("alice", "Alice")
	m.DestroyGame(g.GameID)
	if _, err := m.JoinWithCode("bob", "Bob", g.GameCode); err != engine.ErrNotFound {
		t.Fatalf("expected code to be released, got err=%v", err)
	}
}
