// Package combo recognizes and compares Tichu card combinations: Single,
// Pair, Triple, FullHouse, Sequence, PairSequence, and the two Bomb shapes.
package combo

import (
	"fmt"
	"sort"

	"tichu/internal/deck"
)

type Kind int8

const (
	Single Kind = iota
	Pair
	Triple
	FullHouse
	Sequence
	PairSequence
	BombQuad
	BombStraightFlush
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "Single"
	case Pair:
		return "Pair"
	case Triple:
		return "Triple"
	case FullHouse:
		return "FullHouse"
	case Sequence:
		return "Sequence"
	case PairSequence:
		return "PairSequence"
	case BombQuad:
		return "BombQuad"
	case BombStraightFlush:
		return "BombStraightFlush"
	default:
		return "Unknown"
	}
}

func (k Kind) IsBomb() bool { return k == BombQuad || k == BombStraightFlush }

// Combo is a recognized, legally-playable group of cards.
type Combo struct {
	Kind  Kind
	Cards []deck.Card
	// LeadRank is the rank used to compare two Combos of the same Kind and
	// length: the pair/triple/sequence-low rank, or DragonRank/dogRank for
	// the two special Singles.
	LeadRank int
	// ContainsPhoenix marks a Single that is the Phoenix played on its own,
	// whose rank is contextual (half above the card it follows) rather than
	// fixed, so Beats special-cases it instead of comparing LeadRank.
	ContainsPhoenix bool
}

// dogRank is a sentinel below every real rank: the Dog can only ever lead.
const dogRank = -1

// ErrNotACombo is returned by Recognize when the cards don't form any legal
// combination.
type ErrNotACombo struct {
	Reason string
}

func (e *ErrNotACombo) Error() string { return fmt.Sprintf("not a valid combo: %s", e.Reason) }

func notCombo(reason string) error { return &ErrNotACombo{Reason: reason} }

// Recognize classifies a set of cards, or reports why it isn't playable.
// cards must be non-empty and contain no duplicates; callers (the stage
// engine) are responsible for checking the cards are actually held.
func Recognize(cards []deck.Card) (*Combo, error) {
	if len(cards) == 0 {
		return nil, notCombo("empty")
	}
	switch len(cards) {
	case 1:
		return recognizeSingle(cards[0])
	case 2:
		return recognizeGroup(cards, Pair, 2, 1)
	case 3:
		return recognizeGroup(cards, Triple, 3, 1)
	case 4:
		if c, err := recognizeQuadBomb(cards); err == nil {
			return c, nil
		}
		return recognizePairSequence(cards)
	case 5:
		if c, err := recognizeFullHouse(cards); err == nil {
			return c, nil
		}
		if c, err := recognizeStraightFlush(cards); err == nil {
			return c, nil
		}
		return recognizeSequence(cards)
	default:
		if len(cards)%2 == 0 {
			if c, err := recognizePairSequence(cards); err == nil {
				return c, nil
			}
		}
		if c, err := recognizeStraightFlush(cards); err == nil {
			return c, nil
		}
		return recognizeSequence(cards)
	}
}

func recognizeSingle(c deck.Card) (*Combo, error) {
	switch c.Special {
	case deck.Dragon:
		return &Combo{Kind: Single, Cards: []deck.Card{c}, LeadRank: deck.DragonRank}, nil
	case deck.Dog:
		return &Combo{Kind: Single, Cards: []deck.Card{c}, LeadRank: dogRank}, nil
	case deck.Phoenix:
		return &Combo{Kind: Single, Cards: []deck.Card{c}, ContainsPhoenix: true}, nil
	case deck.MahJong:
		return &Combo{Kind: Single, Cards: []deck.Card{c}, LeadRank: int(deck.MahJongVal)}, nil
	default:
		return &Combo{Kind: Single, Cards: []deck.Card{c}, LeadRank: int(c.Value)}, nil
	}
}

// recognizeGroup handles Pair and Triple: n real cards of the same value, or
// n-1 real cards plus the Phoenix filling the last slot. Dragon, Dog, and
// MahJong can never join a group.
func recognizeGroup(cards []deck.Card, kind Kind, n int, minReal int) (*Combo, error) {
	reals, phoenixCount, err := splitGroupable(cards)
	if err != nil {
		return nil, err
	}
	if phoenixCount > 1 {
		return nil, notCombo("only one Phoenix in play")
	}
	if len(reals)+phoenixCount != n {
		return nil, notCombo(fmt.Sprintf("expected %d cards", n))
	}
	if len(reals) < minReal {
		return nil, notCombo("Phoenix cannot stand alone")
	}
	value := reals[0].Value
	for _, r := range reals[1:] {
		if r.Value != value {
			return nil, notCombo("values don't match")
		}
	}
	return &Combo{Kind: kind, Cards: append([]deck.Card{}, cards...), LeadRank: int(value)}, nil
}

// splitGroupable separates the Phoenix (if present) from the real, groupable
// cards, rejecting any Dragon/Dog/MahJong.
func splitGroupable(cards []deck.Card) (reals []deck.Card, phoenixCount int, err error) {
	for _, c := range cards {
		switch c.Special {
		case deck.Phoenix:
			phoenixCount++
		case deck.Dragon, deck.Dog, deck.MahJong:
			return nil, 0, notCombo("Dragon, Dog, and MahJong cannot join a group")
		default:
			reals = append(reals, c)
		}
	}
	return reals, phoenixCount, nil
}

func recognizeQuadBomb(cards []deck.Card) (*Combo, error) {
	if len(cards) != 4 {
		return nil, notCombo("bomb quad needs exactly 4 cards")
	}
	for _, c := range cards {
		if c.IsSpecial() {
			return nil, notCombo("bomb quad cannot contain specials")
		}
	}
	value := cards[0].Value
	for _, c := range cards[1:] {
		if c.Value != value {
			return nil, notCombo("bomb quad values don't match")
		}
	}
	return &Combo{Kind: BombQuad, Cards: append([]deck.Card{}, cards...), LeadRank: int(value)}, nil
}

func recognizeStraightFlush(cards []deck.Card) (*Combo, error) {
	if len(cards) < 5 {
		return nil, notCombo("straight flush needs at least 5 cards")
	}
	for _, c := range cards {
		if c.IsSpecial() {
			return nil, notCombo("straight flush cannot contain specials")
		}
	}
	suit := cards[0].Suit
	sorted := append([]deck.Card{}, cards...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })
	for i, c := range sorted {
		if c.Suit != suit {
			return nil, notCombo("straight flush must share a suit")
		}
		if i > 0 && int(sorted[i].Value) != int(sorted[i-1].Value)+1 {
			return nil, notCombo("straight flush must be consecutive")
		}
	}
	return &Combo{Kind: BombStraightFlush, Cards: sorted, LeadRank: int(sorted[0].Value)}, nil
}

// recognizeSequence handles plain runs of >=5 consecutive ranks, with the
// MahJong usable as the bottom card (rank 1) and the Phoenix able to fill any
// single gap or extend the top.
func recognizeSequence(cards []deck.Card) (*Combo, error) {
	if len(cards) < 5 {
		return nil, notCombo("sequence needs at least 5 cards")
	}
	var phoenixCount int
	var reals []deck.Card
	for _, c := range cards {
		switch c.Special {
		case deck.Phoenix:
			phoenixCount++
		case deck.Dragon, deck.Dog:
			return nil, notCombo("Dragon and Dog cannot join a sequence")
		case deck.MahJong:
			reals = append(reals, deck.Card{Value: deck.MahJongVal})
		default:
			reals = append(reals, c)
		}
	}
	if phoenixCount > 1 {
		return nil, notCombo("only one Phoenix in play")
	}
	sort.Slice(reals, func(i, j int) bool { return reals[i].Value < reals[j].Value })
	for i := 1; i < len(reals); i++ {
		if reals[i].Value == reals[i-1].Value {
			return nil, notCombo("sequence cannot repeat a rank")
		}
	}
	low := int(reals[0].Value)
	high := low + len(reals) + phoenixCount - 1
	gaps := 0
	for v := low; v <= high; v++ {
		found := false
		for _, r := range reals {
			if int(r.Value) == v {
				found = true
				break
			}
		}
		if !found {
			gaps++
		}
	}
	if gaps != phoenixCount {
		return nil, notCombo("sequence has a gap the Phoenix can't fill")
	}
	return &Combo{Kind: Sequence, Cards: append([]deck.Card{}, cards...), LeadRank: low}, nil
}

// recognizePairSequence handles consecutive-pairs shapes (Treppe): an even
// number >= 4 of cards forming N consecutive pair-ranks, with the Phoenix
// able to fill one missing half of one pair.
func recognizePairSequence(cards []deck.Card) (*Combo, error) {
	if len(cards) < 4 || len(cards)%2 != 0 {
		return nil, notCombo("pair sequence needs an even count >= 4")
	}
	reals, phoenixCount, err := splitGroupable(cards)
	if err != nil {
		return nil, err
	}
	if phoenixCount > 1 {
		return nil, notCombo("only one Phoenix in play")
	}
	counts := map[deck.Value]int{}
	for _, r := range reals {
		counts[r.Value]++
	}
	var ranks []int
	for v, n := range counts {
		if n > 2 {
			return nil, notCombo("pair sequence cannot have three of a rank")
		}
		ranks = append(ranks, int(v))
	}
	sort.Ints(ranks)
	shortRank := -1
	for _, r := range ranks {
		if counts[deck.Value(r)] == 1 {
			if shortRank != -1 {
				return nil, notCombo("only one pair can be short without the Phoenix")
			}
			shortRank = r
		}
	}
	if phoenixCount == 1 && shortRank == -1 {
		return nil, notCombo("Phoenix has no short pair to complete")
	}
	if phoenixCount == 0 && shortRank != -1 {
		return nil, notCombo("pair sequence has an incomplete pair")
	}
	for i := 1; i < len(ranks); i++ {
		if ranks[i] != ranks[i-1]+1 {
			return nil, notCombo("pair sequence ranks must be consecutive")
		}
	}
	return &Combo{Kind: PairSequence, Cards: append([]deck.Card{}, cards...), LeadRank: ranks[0]}, nil
}

// recognizeFullHouse handles a triple plus a pair, with the Phoenix able to
// stand in for either the pair's second card or the triple's third.
func recognizeFullHouse(cards []deck.Card) (*Combo, error) {
	if len(cards) != 5 {
		return nil, notCombo("full house needs exactly 5 cards")
	}
	reals, phoenixCount, err := splitGroupable(cards)
	if err != nil {
		return nil, err
	}
	if phoenixCount > 1 {
		return nil, notCombo("only one Phoenix in play")
	}
	counts := map[deck.Value]int{}
	for _, r := range reals {
		counts[r.Value]++
	}
	var tripleVal, pairVal deck.Value
	var haveTriple, havePair bool
	for v, n := range counts {
		switch n {
		case 3:
			tripleVal, haveTriple = v, true
		case 2:
			pairVal, havePair = v, true
		case 1:
			// only acceptable as the Phoenix-completed half of the pair
		default:
			return nil, notCombo("unexpected grouping for full house")
		}
	}
	if phoenixCount == 1 {
		switch {
		case haveTriple && !havePair:
			// Phoenix completes a lone card into the pair.
			for v, n := range counts {
				if n == 1 {
					pairVal, havePair = v, true
				}
			}
		case havePair && !haveTriple:
			for v, n := range counts {
				if n == 2 && v != pairVal {
					tripleVal, haveTriple = v, true
				}
			}
			// pair already full (2), Phoenix extends the other group of 2 into 3
			if !haveTriple {
				return nil, notCombo("Phoenix has nothing to complete")
			}
		default:
			return nil, notCombo("Phoenix has nothing to complete")
		}
	}
	if !haveTriple || !havePair || tripleVal == pairVal {
		return nil, notCombo("not a triple plus a pair")
	}
	return &Combo{Kind: FullHouse, Cards: append([]deck.Card{}, cards...), LeadRank: int(tripleVal)}, nil
}

// Beats reports whether next legally beats prev on the trick in progress.
// prev == nil means the trick is empty (next is leading), which is always
// legal. Bombs beat anything non-Bomb regardless of size; among Bombs, a
// BombQuad always loses to a BombStraightFlush, two straight flushes compare
// by length then LeadRank, and two quads compare by LeadRank.
func Beats(next, prev *Combo) (bool, error) {
	if next == nil {
		return false, fmt.Errorf("no combo to play")
	}
	if prev == nil {
		return true, nil
	}
	if next.Kind.IsBomb() && !prev.Kind.IsBomb() {
		return true, nil
	}
	if prev.Kind.IsBomb() && !next.Kind.IsBomb() {
		return false, nil
	}
	if next.Kind.IsBomb() && prev.Kind.IsBomb() {
		return bombBeats(next, prev), nil
	}
	if next.Kind != prev.Kind {
		return false, fmt.Errorf("combo kinds don't match: %s vs %s", next.Kind, prev.Kind)
	}
	if len(next.Cards) != len(prev.Cards) {
		return false, fmt.Errorf("combo lengths don't match")
	}
	if next.Kind == Single && next.ContainsPhoenix {
		// The Phoenix played on a non-empty trick always edges out whatever
		// it follows, per the half-rank-above rule.
		return true, nil
	}
	if prev.Kind == Single && prev.ContainsPhoenix {
		// Led low; any ordinary single beats it.
		return true, nil
	}
	return next.LeadRank > prev.LeadRank, nil
}

func bombBeats(next, prev *Combo) bool {
	if next.Kind == BombStraightFlush && prev.Kind == BombQuad {
		return true
	}
	if next.Kind == BombQuad && prev.Kind == BombStraightFlush {
		return false
	}
	if next.Kind == BombStraightFlush && prev.Kind == BombStraightFlush {
		if len(next.Cards) != len(prev.Cards) {
			return len(next.Cards) > len(prev.Cards)
		}
	}
	return next.LeadRank > prev.LeadRank
}
