// Package engine implements the blackjack rules: cards, the shoe, hand
// valuation and the round state machine. It has no transport or display
// dependency so it can be driven by any front end or a test harness.
package engine

import "fmt"

type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

type Rank string

const (
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

var (
	Suits = []Suit{Hearts, Diamonds, Clubs, Spades}
	Ranks = []Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}
)

var rankValues = map[Rank]int{
	Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7, Eight: 8, Nine: 9, Ten: 10,
	Jack: 10, Queen: 10, King: 10,
	Ace: 11, // reducible to 1, see Hand.Value
}

// Card is an immutable suit/rank pair with value semantics.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Value returns the blackjack value of the card. Aces always count as 11 here;
// reducing them to 1 is the hand's responsibility.
func (c Card) Value() int {
	return rankValues[c.Rank]
}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

func tenValued(r Rank) bool {
	return r == Ten || r == Jack || r == Queen || r == King
}
