package engine

import "math/rand"

// Shoe is the pool of cards dealt from. It holds a single 52-card deck and
// replaces itself with a fresh shuffled one when it runs out — a full reset,
// not a reshuffle of the remaining cards, so any card-counting state is gone.
type Shoe struct {
	cards []Card
	rng   *rand.Rand
}

func NewShoe(rng *rand.Rand) *Shoe {
	s := &Shoe{rng: rng}
	s.Reset()
	return s
}

// Reset rebuilds the shoe as a freshly shuffled standard 52-card deck.
func (s *Shoe) Reset() {
	cards := make([]Card, 0, len(Suits)*len(Ranks))
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, Card{Suit: suit, Rank: rank})
		}
	}
	s.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	s.cards = cards
}

// Deal removes and returns one card. An empty shoe resets itself first, so
// dealing always succeeds.
func (s *Shoe) Deal() Card {
	if len(s.cards) == 0 {
		s.Reset()
	}
	card := s.cards[len(s.cards)-1]
	s.cards = s.cards[:len(s.cards)-1]
	return card
}

func (s *Shoe) Remaining() int {
	return len(s.cards)
}
