package wsserver

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tichu/internal/protocol"
	"tichu/internal/room"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func recvUntil(t *testing.T, conn *websocket.Conn, opcode protocol.STCOpcode) protocol.ServerMessage {
	t.Helper()
	for i := 0; i < 10; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		msg, err := protocol.DecodeSTC(raw)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Opcode() == opcode {
			return msg
		}
	}
	t.Fatalf("did not see opcode %d in 10 messages", opcode)
	return nil
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	manager := room.NewManager(60 * time.Second)
	s := New(manager, time.Hour, 42)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestCreateGameAssignsIdAndCode(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts.URL+"/ws")
	defer conn.Close()

	assigned := recvUntil(t, conn, protocol.OpUserIdAssigned).(protocol.UserIdAssigned)
	if assigned.UserID == "" {
		t.Fatalf("expected a non-empty user id")
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, protocol.EncodeCTS(protocol.CreateGame{DisplayName: "Alice"})); err != nil {
		t.Fatalf("write: %v", err)
	}

	created := recvUntil(t, conn, protocol.OpGameCreated).(protocol.GameCreated)
	if created.GameID == "" || len(created.GameCode) != 4 {
		t.Fatalf("unexpected GameCreated: %+v", created)
	}

	state := recvUntil(t, conn, protocol.OpGameState).(protocol.GameState)
	if !state.Present || len(state.Payload) == 0 {
		t.Fatalf("expected a present, non-empty game state")
	}
}

func TestJoinWithCodeBroadcastsToExistingMembers(t *testing.T) {
	_, ts := newTestServer(t)

	owner := dial(t, ts.URL+"/ws")
	defer owner.Close()
	recvUntil(t, owner, protocol.OpUserIdAssigned)
	_ = owner.WriteMessage(websocket.BinaryMessage, protocol.EncodeCTS(protocol.CreateGame{DisplayName: "Owner"}))
	created := recvUntil(t, owner, protocol.OpGameCreated).(protocol.GameCreated)
	recvUntil(t, owner, protocol.OpGameState)

	joiner := dial(t, ts.URL+"/ws")
	defer joiner.Close()
	recvUntil(t, joiner, protocol.OpUserIdAssigned)
	_ = joiner.WriteMessage(websocket.BinaryMessage, protocol.EncodeCTS(protocol.JoinGameWithGameCode{
		DisplayName: "Joiner",
		GameCode:    created.GameCode,
	}))
	recvUntil(t, joiner, protocol.OpGameState)

	joined := recvUntil(t, owner, protocol.OpUserJoined).(protocol.UserJoined)
	if joined.UserID == "" {
		t.Fatalf("expected UserJoined broadcast with a user id")
	}
}

func TestUnknownOpcodeGetsUnexpectedMessage(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts.URL+"/ws")
	defer conn.Close()
	recvUntil(t, conn, protocol.OpUserIdAssigned)

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0xFE}); err != nil {
		t.Fatalf("write: %v", err)
	}
	recvUntil(t, conn, protocol.OpUnexpectedMessageReceived)
}

func TestPingGetsPong(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts.URL+"/ws")
	defer conn.Close()
	recvUntil(t, conn, protocol.OpUserIdAssigned)

	_ = conn.WriteMessage(websocket.BinaryMessage, protocol.EncodeCTS(protocol.CTSPing{}))
	recvUntil(t, conn, protocol.OpSTCPong)
}
