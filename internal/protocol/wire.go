// Package protocol implements the binary, length-framed wire codec: a
// single discriminant byte per message followed by the variant's payload,
// fixed-width little-endian integers, and length-prefixed UTF-8 strings.
package protocol

import (
	"encoding/binary"
	"fmt"

	"tichu/internal/deck"
)

// ErrShortBuffer is returned by every Reader method when the buffer ends
// before the value it was asked to decode.
var ErrShortBuffer = fmt.Errorf("protocol: buffer too short")

type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteByte(b byte) { w.buf = append(w.buf, b) }

func (w *Writer) WriteBool(b bool) {
	if b {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

func (w *Writer) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) WriteInt32(v int32) { w.WriteUint32(uint32(v)) }

func (w *Writer) WriteString(s string) {
	w.WriteUint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *Writer) WriteOptionalString(s *string) {
	w.WriteBool(s != nil)
	if s != nil {
		w.WriteString(*s)
	}
}

func (w *Writer) WriteCard(c deck.Card) {
	w.WriteByte(byte(c.Suit))
	w.WriteByte(byte(c.Value))
	w.WriteByte(byte(c.Special))
}

func (w *Writer) WriteCards(cards []deck.Card) {
	w.WriteUint32(uint32(len(cards)))
	for _, c := range cards {
		w.WriteCard(c)
	}
}

func (w *Writer) WriteOptionalValue(v *deck.Value) {
	w.WriteBool(v != nil)
	if v != nil {
		w.WriteByte(byte(*v))
	}
}

type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) ReadByte() (byte, error) {
	if r.Remaining() < 1 {
		return 0, ErrShortBuffer
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, ErrShortBuffer
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	if r.Remaining() < int(n) {
		return "", ErrShortBuffer
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *Reader) ReadOptionalString() (*string, error) {
	present, err := r.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	s, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Reader) ReadCard() (deck.Card, error) {
	suit, err := r.ReadByte()
	if err != nil {
		return deck.Card{}, err
	}
	value, err := r.ReadByte()
	if err != nil {
		return deck.Card{}, err
	}
	special, err := r.ReadByte()
	if err != nil {
		return deck.Card{}, err
	}
	return deck.Card{Suit: deck.Suit(suit), Value: deck.Value(value), Special: deck.Special(special)}, nil
}

func (r *Reader) ReadCards() ([]deck.Card, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	cards := make([]deck.Card, 0, n)
	for i := uint32(0); i < n; i++ {
		c, err := r.ReadCard()
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func (r *Reader) ReadOptionalValue() (*deck.Value, error) {
	present, err := r.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	b, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	v := deck.Value(b)
	return &v, nil
}

func (r *Reader) Done() bool { return r.Remaining() == 0 }
