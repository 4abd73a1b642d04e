package protocol

import "fmt"

// STCOpcode discriminates the server-to-client messages.
type STCOpcode byte

const (
	OpUserIdAssigned STCOpcode = iota
	OpGameCreated
	OpGameState
	OpOwnerReassigned
	OpGameStageChanged
	OpTeamARenamed
	OpTeamBRenamed
	OpUserJoined
	OpUserLeft
	OpUserMovedToTeamA
	OpUserMovedToTeamB
	OpSmallTichuCalled
	OpGrandTichuCalled
	OpFirstCardsDealt
	OpDealFinalCards
	OpTradeSubmitted
	OpCardsPlayed
	OpUserPassed
	OpDragonWasWon
	OpPlayerReceivedDragon
	OpGameEnded
	OpGameEndedFinal
	OpSTCPing
	OpSTCPong
	OpSTCTest
	OpUnexpectedMessageReceived
	OpUserDisconnected
	OpUserReconnected
)

// ServerMessage is any STC variant this server can emit.
type ServerMessage interface {
	Opcode() STCOpcode
	encode(w *Writer)
}

type UserIdAssigned struct{ UserID string }

func (UserIdAssigned) Opcode() STCOpcode   { return OpUserIdAssigned }
func (m UserIdAssigned) encode(w *Writer)  { w.WriteString(m.UserID) }

type GameCreated struct {
	GameID   string
	GameCode string
}

func (GameCreated) Opcode() STCOpcode { return OpGameCreated }
func (m GameCreated) encode(w *Writer) {
	w.WriteString(m.GameID)
	w.WriteString(m.GameCode)
}

// GameState carries the encoded PublicGameState payload produced by
// internal/view; the codec treats it as an opaque byte blob it already
// framed, keeping this package free of a dependency on internal/engine.
type GameState struct {
	Present bool
	Payload []byte
}

func (GameState) Opcode() STCOpcode { return OpGameState }
func (m GameState) encode(w *Writer) {
	w.WriteBool(m.Present)
	if m.Present {
		w.WriteUint32(uint32(len(m.Payload)))
		w.buf = append(w.buf, m.Payload...)
	}
}

type OwnerReassigned struct{ UserID string }

func (OwnerReassigned) Opcode() STCOpcode  { return OpOwnerReassigned }
func (m OwnerReassigned) encode(w *Writer) { w.WriteString(m.UserID) }

type GameStageChanged struct{ Stage byte }

func (GameStageChanged) Opcode() STCOpcode  { return OpGameStageChanged }
func (m GameStageChanged) encode(w *Writer) { w.WriteByte(m.Stage) }

type TeamARenamed struct{ Name string }

func (TeamARenamed) Opcode() STCOpcode  { return OpTeamARenamed }
func (m TeamARenamed) encode(w *Writer) { w.WriteString(m.Name) }

type TeamBRenamed struct{ Name string }

func (TeamBRenamed) Opcode() STCOpcode  { return OpTeamBRenamed }
func (m TeamBRenamed) encode(w *Writer) { w.WriteString(m.Name) }

type UserJoined struct{ UserID string }

func (UserJoined) Opcode() STCOpcode  { return OpUserJoined }
func (m UserJoined) encode(w *Writer) { w.WriteString(m.UserID) }

type UserLeft struct{ UserID string }

func (UserLeft) Opcode() STCOpcode  { return OpUserLeft }
func (m UserLeft) encode(w *Writer) { w.WriteString(m.UserID) }

type UserMovedToTeamA struct{ UserID string }

func (UserMovedToTeamA) Opcode() STCOpcode  { return OpUserMovedToTeamA }
func (m UserMovedToTeamA) encode(w *Writer) { w.WriteString(m.UserID) }

type UserMovedToTeamB struct{ UserID string }

func (UserMovedToTeamB) Opcode() STCOpcode  { return OpUserMovedToTeamB }
func (m UserMovedToTeamB) encode(w *Writer) { w.WriteString(m.UserID) }

type SmallTichuCalled struct{ UserID string }

func (SmallTichuCalled) Opcode() STCOpcode  { return OpSmallTichuCalled }
func (m SmallTichuCalled) encode(w *Writer) { w.WriteString(m.UserID) }

type GrandTichuCalled struct {
	UserID string
	Called bool
}

func (GrandTichuCalled) Opcode() STCOpcode { return OpGrandTichuCalled }
func (m GrandTichuCalled) encode(w *Writer) {
	w.WriteString(m.UserID)
	w.WriteBool(m.Called)
}

type FirstCardsDealt struct{}

func (FirstCardsDealt) Opcode() STCOpcode { return OpFirstCardsDealt }
func (FirstCardsDealt) encode(w *Writer)  {}

type DealFinalCards struct{}

func (DealFinalCards) Opcode() STCOpcode { return OpDealFinalCards }
func (DealFinalCards) encode(w *Writer)  {}

type TradeSubmitted struct{ UserID string }

func (TradeSubmitted) Opcode() STCOpcode  { return OpTradeSubmitted }
func (m TradeSubmitted) encode(w *Writer) { w.WriteString(m.UserID) }

type CardsPlayed struct{}

func (CardsPlayed) Opcode() STCOpcode { return OpCardsPlayed }
func (CardsPlayed) encode(w *Writer)  {}

type UserPassed struct{ UserID string }

func (UserPassed) Opcode() STCOpcode  { return OpUserPassed }
func (m UserPassed) encode(w *Writer) { w.WriteString(m.UserID) }

type DragonWasWon struct{}

func (DragonWasWon) Opcode() STCOpcode { return OpDragonWasWon }
func (DragonWasWon) encode(w *Writer)  {}

type PlayerReceivedDragon struct{ UserID string }

func (PlayerReceivedDragon) Opcode() STCOpcode  { return OpPlayerReceivedDragon }
func (m PlayerReceivedDragon) encode(w *Writer) { w.WriteString(m.UserID) }

type GameEnded struct{}

func (GameEnded) Opcode() STCOpcode { return OpGameEnded }
func (GameEnded) encode(w *Writer)  {}

type GameEndedFinal struct{}

func (GameEndedFinal) Opcode() STCOpcode { return OpGameEndedFinal }
func (GameEndedFinal) encode(w *Writer)  {}

type STCPing struct{}

func (STCPing) Opcode() STCOpcode { return OpSTCPing }
func (STCPing) encode(w *Writer)  {}

type STCPong struct{}

func (STCPong) Opcode() STCOpcode { return OpSTCPong }
func (STCPong) encode(w *Writer)  {}

type STCTest struct{ Text string }

func (STCTest) Opcode() STCOpcode  { return OpSTCTest }
func (m STCTest) encode(w *Writer) { w.WriteString(m.Text) }

type UnexpectedMessageReceived struct{ Debug string }

func (UnexpectedMessageReceived) Opcode() STCOpcode  { return OpUnexpectedMessageReceived }
func (m UnexpectedMessageReceived) encode(w *Writer) { w.WriteString(m.Debug) }

type UserDisconnected struct{ UserID string }

func (UserDisconnected) Opcode() STCOpcode  { return OpUserDisconnected }
func (m UserDisconnected) encode(w *Writer) { w.WriteString(m.UserID) }

type UserReconnected struct{ UserID string }

func (UserReconnected) Opcode() STCOpcode  { return OpUserReconnected }
func (m UserReconnected) encode(w *Writer) { w.WriteString(m.UserID) }

// EncodeSTC serializes any ServerMessage to its wire form.
func EncodeSTC(m ServerMessage) []byte {
	w := NewWriter()
	w.WriteByte(byte(m.Opcode()))
	m.encode(w)
	return w.Bytes()
}

// DecodeSTC parses a frame into its ServerMessage. Used by tests to check
// the round-trip invariant and by any future non-browser client.
func DecodeSTC(raw []byte) (ServerMessage, error) {
	r := NewReader(raw)
	op, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch STCOpcode(op) {
	case OpUserIdAssigned:
		s, err := r.ReadString()
		return UserIdAssigned{UserID: s}, err
	case OpGameCreated:
		id, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		code, err := r.ReadString()
		return GameCreated{GameID: id, GameCode: code}, err
	case OpGameState:
		present, err := r.ReadBool()
		if err != nil || !present {
			return GameState{Present: present}, err
		}
		n, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		if r.Remaining() < int(n) {
			return nil, ErrShortBuffer
		}
		payload := append([]byte{}, r.buf[r.pos:r.pos+int(n)]...)
		r.pos += int(n)
		return GameState{Present: true, Payload: payload}, nil
	case OpOwnerReassigned:
		s, err := r.ReadString()
		return OwnerReassigned{UserID: s}, err
	case OpGameStageChanged:
		b, err := r.ReadByte()
		return GameStageChanged{Stage: b}, err
	case OpTeamARenamed:
		s, err := r.ReadString()
		return TeamARenamed{Name: s}, err
	case OpTeamBRenamed:
		s, err := r.ReadString()
		return TeamBRenamed{Name: s}, err
	case OpUserJoined:
		s, err := r.ReadString()
		return UserJoined{UserID: s}, err
	case OpUserLeft:
		s, err := r.ReadString()
		return UserLeft{UserID: s}, err
	case OpUserMovedToTeamA:
		s, err := r.ReadString()
		return UserMovedToTeamA{UserID: s}, err
	case OpUserMovedToTeamB:
		s, err := r.ReadString()
		return UserMovedToTeamB{UserID: s}, err
	case OpSmallTichuCalled:
		s, err := r.ReadString()
		return SmallTichuCalled{UserID: s}, err
	case OpGrandTichuCalled:
		uid, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		called, err := r.ReadBool()
		return GrandTichuCalled{UserID: uid, Called: called}, err
	case OpFirstCardsDealt:
		return FirstCardsDealt{}, nil
	case OpDealFinalCards:
		return DealFinalCards{}, nil
	case OpTradeSubmitted:
		s, err := r.ReadString()
		return TradeSubmitted{UserID: s}, err
	case OpCardsPlayed:
		return CardsPlayed{}, nil
	case OpUserPassed:
		s, err := r.ReadString()
		return UserPassed{UserID: s}, err
	case OpDragonWasWon:
		return DragonWasWon{}, nil
	case OpPlayerReceivedDragon:
		s, err := r.ReadString()
		return PlayerReceivedDragon{UserID: s}, err
	case OpGameEnded:
		return GameEnded{}, nil
	case OpGameEndedFinal:
		return GameEndedFinal{}, nil
	case OpSTCPing:
		return STCPing{}, nil
	case OpSTCPong:
		return STCPong{}, nil
	case OpSTCTest:
		s, err := r.ReadString()
		return STCTest{Text: s}, err
	case OpUnexpectedMessageReceived:
		s, err := r.ReadString()
		return UnexpectedMessageReceived{Debug: s}, err
	case OpUserDisconnected:
		s, err := r.ReadString()
		return UserDisconnected{UserID: s}, err
	case OpUserReconnected:
		s, err := r.ReadString()
		return UserReconnected{UserID: s}, err
	default:
		return nil, fmt.Errorf("protocol: unknown STC opcode %d", op)
	}
}
