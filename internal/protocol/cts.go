package protocol

import (
	"fmt"

	"tichu/internal/deck"
)

// CTSOpcode discriminates the client-to-server messages.
type CTSOpcode byte

const (
	OpJoinGameWithGameCode CTSOpcode = iota
	OpJoinRandomGame
	OpCreateGame
	OpLeaveGame
	OpMoveToTeam
	OpRenameTeam
	OpStartGrandTichu
	OpCallGrandTichu
	OpCallSmallTichu
	OpSubmitTrade
	OpPlayCards
	OpGiveDragon
	OpPass
	OpCTSPing
	OpCTSPong
	OpCTSTest
	OpAdminSkipToPlay
)

// ClientMessage is any decoded CTS variant.
type ClientMessage interface {
	Opcode() CTSOpcode
	encode(w *Writer)
}

type JoinGameWithGameCode struct {
	UserID      string
	DisplayName string
	GameCode    string
}

func (JoinGameWithGameCode) Opcode() CTSOpcode { return OpJoinGameWithGameCode }
func (m JoinGameWithGameCode) encode(w *Writer) {
	w.WriteString(m.UserID)
	w.WriteString(m.DisplayName)
	w.WriteString(m.GameCode)
}

type JoinRandomGame struct {
	UserID      string
	DisplayName string
}

func (JoinRandomGame) Opcode() CTSOpcode { return OpJoinRandomGame }
func (m JoinRandomGame) encode(w *Writer) {
	w.WriteString(m.UserID)
	w.WriteString(m.DisplayName)
}

type CreateGame struct {
	UserID      string
	DisplayName string
}

func (CreateGame) Opcode() CTSOpcode { return OpCreateGame }
func (m CreateGame) encode(w *Writer) {
	w.WriteString(m.UserID)
	w.WriteString(m.DisplayName)
}

type LeaveGame struct{}

func (LeaveGame) Opcode() CTSOpcode  { return OpLeaveGame }
func (LeaveGame) encode(w *Writer)   {}

type MoveToTeam struct {
	Team string // engine.TeamA or engine.TeamB
}

func (MoveToTeam) Opcode() CTSOpcode { return OpMoveToTeam }
func (m MoveToTeam) encode(w *Writer) {
	w.WriteString(m.Team)
}

type RenameTeam struct {
	Team string
	Name string
}

func (RenameTeam) Opcode() CTSOpcode { return OpRenameTeam }
func (m RenameTeam) encode(w *Writer) {
	w.WriteString(m.Team)
	w.WriteString(m.Name)
}

type StartGrandTichu struct{}

func (StartGrandTichu) Opcode() CTSOpcode { return OpStartGrandTichu }
func (StartGrandTichu) encode(w *Writer)  {}

type CallGrandTichu struct {
	Called bool
}

func (CallGrandTichu) Opcode() CTSOpcode { return OpCallGrandTichu }
func (m CallGrandTichu) encode(w *Writer) {
	w.WriteBool(m.Called)
}

type CallSmallTichu struct{}

func (CallSmallTichu) Opcode() CTSOpcode { return OpCallSmallTichu }
func (CallSmallTichu) encode(w *Writer)  {}

// CardTradeWire is one card-to-recipient pairing inside SubmitTrade.
type CardTradeWire struct {
	Card     deck.Card
	ToUserID string
}

type SubmitTrade struct {
	Cards [3]CardTradeWire
}

func (SubmitTrade) Opcode() CTSOpcode { return OpSubmitTrade }
func (m SubmitTrade) encode(w *Writer) {
	for _, c := range m.Cards {
		w.WriteCard(c.Card)
		w.WriteString(c.ToUserID)
	}
}

type PlayCards struct {
	Cards        []deck.Card
	WishedFor    *deck.Value
	GiveDragonTo *string
}

func (PlayCards) Opcode() CTSOpcode { return OpPlayCards }
func (m PlayCards) encode(w *Writer) {
	w.WriteCards(m.Cards)
	w.WriteOptionalValue(m.WishedFor)
	w.WriteOptionalString(m.GiveDragonTo)
}

type GiveDragon struct {
	UserID string
}

func (GiveDragon) Opcode() CTSOpcode { return OpGiveDragon }
func (m GiveDragon) encode(w *Writer) {
	w.WriteString(m.UserID)
}

type Pass struct{}

func (Pass) Opcode() CTSOpcode { return OpPass }
func (Pass) encode(w *Writer)  {}

type CTSPing struct{}

func (CTSPing) Opcode() CTSOpcode { return OpCTSPing }
func (CTSPing) encode(w *Writer)  {}

type CTSPong struct{}

func (CTSPong) Opcode() CTSOpcode { return OpCTSPong }
func (CTSPong) encode(w *Writer)  {}

type CTSTest struct {
	Text string
}

func (CTSTest) Opcode() CTSOpcode { return OpCTSTest }
func (m CTSTest) encode(w *Writer) {
	w.WriteString(m.Text)
}

type AdminSkipToPlay struct{}

func (AdminSkipToPlay) Opcode() CTSOpcode { return OpAdminSkipToPlay }
func (AdminSkipToPlay) encode(w *Writer)  {}

// EncodeCTS serializes any ClientMessage to its wire form: one discriminant
// byte followed by the variant's payload.
func EncodeCTS(m ClientMessage) []byte {
	w := NewWriter()
	w.WriteByte(byte(m.Opcode()))
	m.encode(w)
	return w.Bytes()
}

// DecodeCTS parses a frame into its ClientMessage. An unrecognized
// discriminant is a hard decode error; the caller (the dispatcher) turns
// that into an UnexpectedMessageReceived reply.
func DecodeCTS(raw []byte) (ClientMessage, error) {
	r := NewReader(raw)
	op, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch CTSOpcode(op) {
	case OpJoinGameWithGameCode:
		uid, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		code, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return JoinGameWithGameCode{UserID: uid, DisplayName: name, GameCode: code}, nil
	case OpJoinRandomGame:
		uid, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return JoinRandomGame{UserID: uid, DisplayName: name}, nil
	case OpCreateGame:
		uid, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return CreateGame{UserID: uid, DisplayName: name}, nil
	case OpLeaveGame:
		return LeaveGame{}, nil
	case OpMoveToTeam:
		team, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return MoveToTeam{Team: team}, nil
	case OpRenameTeam:
		team, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return RenameTeam{Team: team, Name: name}, nil
	case OpStartGrandTichu:
		return StartGrandTichu{}, nil
	case OpCallGrandTichu:
		called, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		return CallGrandTichu{Called: called}, nil
	case OpCallSmallTichu:
		return CallSmallTichu{}, nil
	case OpSubmitTrade:
		var m SubmitTrade
		for i := range m.Cards {
			c, err := r.ReadCard()
			if err != nil {
				return nil, err
			}
			to, err := r.ReadString()
			if err != nil {
				return nil, err
			}
			m.Cards[i] = CardTradeWire{Card: c, ToUserID: to}
		}
		return m, nil
	case OpPlayCards:
		cards, err := r.ReadCards()
		if err != nil {
			return nil, err
		}
		wished, err := r.ReadOptionalValue()
		if err != nil {
			return nil, err
		}
		giveTo, err := r.ReadOptionalString()
		if err != nil {
			return nil, err
		}
		return PlayCards{Cards: cards, WishedFor: wished, GiveDragonTo: giveTo}, nil
	case OpGiveDragon:
		uid, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return GiveDragon{UserID: uid}, nil
	case OpPass:
		return Pass{}, nil
	case OpCTSPing:
		return CTSPing{}, nil
	case OpCTSPong:
		return CTSPong{}, nil
	case OpCTSTest:
		text, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return CTSTest{Text: text}, nil
	case OpAdminSkipToPlay:
		return AdminSkipToPlay{}, nil
	default:
		return nil, fmt.Errorf("protocol: unknown CTS opcode %d", op)
	}
}
