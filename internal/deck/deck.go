package deck

import "math/rand"

// Deck is an ordered sequence of Cards.
type Deck []Card

var suits = [4]Suit{Sword, Jade, Pagoda, Star}
var values = [13]Value{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// New returns the 56 cards in canonical order: the four specials, then each
// suit's 2..Ace run.
func New() Deck {
	d := make(Deck, 0, 56)
	d = append(d, MahJongCard, DogCard, PhoenixCard, DragonCard)
	for _, s := range suits {
		for _, v := range values {
			d = append(d, Regular(s, v))
		}
	}
	return d
}

// Shuffle returns a new Deck containing the same cards in a permutation
// drawn from rng, via Fisher-Yates. The caller supplies the RNG so that
// tests (and only tests) can pin the deal order; the server passes a
// rand.Rand drawn from a math/rand source seeded with the process start
// time.
func (d Deck) Shuffle(rng *rand.Rand) Deck {
	shuffled := make(Deck, len(d))
	copy(shuffled, d)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// WishedForCardValues returns the 13 numeric values a MahJong wish may name.
func WishedForCardValues() []Value {
	out := make([]Value, len(values))
	copy(out, values[:])
	return out
}

// Deal splits a 56-card deck into four 14-card hands, the first 9 cards of
// each hand dealt immediately (Grand Tichu decision) and the final 5 dealt
// after those decisions are in. Deal returns the first-9 hands; FinalFive
// returns the remaining 5 per seat from the same deck and seat ordering.
func (d Deck) Deal() (firstNine [4][]Card, remainder Deck) {
	var hands [4][]Card
	for seat := 0; seat < 4; seat++ {
		hands[seat] = append([]Card{}, d[seat*9:(seat+1)*9]...)
	}
	return hands, d[36:]
}

// FinalFive splits the remainder (20 cards) from Deal into four 5-card
// groups, in seat order.
func FinalFive(remainder Deck) (lastFive [4][]Card) {
	for seat := 0; seat < 4; seat++ {
		lastFive[seat] = append([]Card{}, remainder[seat*5:(seat+1)*5]...)
	}
	return lastFive
}
