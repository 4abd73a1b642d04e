package protocol

import (
	"reflect"
	"testing"

	"tichu/internal/deck"
)

func TestCTSRoundTrip(t *testing.T) {
	wished := deck.Nine
	giveTo := "opponent-2"
	cases := []ClientMessage{
		JoinGameWithGameCode{UserID: "a", DisplayName: "Alice", GameCode: "AB12"},
		JoinRandomGame{UserID: "b", DisplayName: "Bob"},
		CreateGame{UserID: "a", DisplayName: "Alice"},
		LeaveGame{},
		MoveToTeam{Team: "A"},
		RenameTeam{Team: "B", Name: "The Sharks"},
		StartGrandTichu{},
		CallGrandTichu{Called: true},
		CallSmallTichu{},
		SubmitTrade{Cards: [3]CardTradeWire{
			{Card: deck.Regular(deck.Sword, deck.King), ToUserID: "b"},
			{Card: deck.MahJongCard, ToUserID: "c"},
			{Card: deck.DragonCard, ToUserID: "d"},
		}},
		PlayCards{Cards: []deck.Card{deck.Regular(deck.Star, deck.Nine)}, WishedFor: &wished, GiveDragonTo: &giveTo},
		PlayCards{Cards: []deck.Card{deck.DogCard}},
		GiveDragon{UserID: "c"},
		Pass{},
		CTSPing{},
		CTSPong{},
		CTSTest{Text: "hello"},
		AdminSkipToPlay{},
	}
	for _, m := range cases {
		raw := EncodeCTS(m)
		decoded, err := DecodeCTS(raw)
		if err != nil {
			t.Fatalf("decode(%T) returned error: %v", m, err)
		}
		if !reflect.DeepEqual(m, decoded) {
			t.Fatalf("round trip mismatch for %T: got %+v, want %+v", m, decoded, m)
		}
	}
}

func TestSTCRoundTrip(t *testing.T) {
	cases := []ServerMessage{
		UserIdAssigned{UserID: "a"},
		GameCreated{GameID: "g1", GameCode: "XYZ1"},
		GameState{Present: true, Payload: []byte(`{"stage":"Lobby"}`)},
		GameState{Present: false},
		OwnerReassigned{UserID: "b"},
		GameStageChanged{Stage: 2},
		TeamARenamed{Name: "North"},
		TeamBRenamed{Name: "South"},
		UserJoined{UserID: "c"},
		UserLeft{UserID: "c"},
		UserMovedToTeamA{UserID: "a"},
		UserMovedToTeamB{UserID: "b"},
		SmallTichuCalled{UserID: "a"},
		GrandTichuCalled{UserID: "a", Called: false},
		FirstCardsDealt{},
		DealFinalCards{},
		TradeSubmitted{UserID: "a"},
		CardsPlayed{},
		UserPassed{UserID: "b"},
		DragonWasWon{},
		PlayerReceivedDragon{UserID: "c"},
		GameEnded{},
		GameEndedFinal{},
		STCPing{},
		STCPong{},
		STCTest{Text: "ping"},
		UnexpectedMessageReceived{Debug: "bad opcode 99"},
		UserDisconnected{UserID: "d"},
		UserReconnected{UserID: "d"},
	}
	for _, m := range cases {
		raw := EncodeSTC(m)
		decoded, err := DecodeSTC(raw)
		if err != nil {
			t.Fatalf("decode(%T) returned error: %v", m, err)
		}
		if !reflect.DeepEqual(m, decoded) {
			t.Fatalf("round trip mismatch for %T: got %+v, want %+v", m, decoded, m)
		}
	}
}

func TestDecodeCTSUnknownOpcodeErrors(t *testing.T) {
	if _, err := DecodeCTS([]byte{0xFF}); err == nil {
		t.Fatalf("expected error for unknown opcode")
	}
}

func TestDecodeCTSShortBufferErrors(t *testing.T) {
	if _, err := DecodeCTS([]byte{byte(OpCreateGame)}); err == nil {
		t.Fatalf("expected error for truncated CreateGame payload")
	}
}
