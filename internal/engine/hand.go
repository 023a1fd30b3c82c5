package engine

// Hand holds the cards dealt to one seat plus its betting state. Card order is
// deal order; it matters for display only, never for the value.
type Hand struct {
	Cards   []Card
	Active  bool
	Doubled bool
	Bet     int64
}

func NewHand(bet int64) *Hand {
	return &Hand{Active: true, Bet: bet}
}

func (h *Hand) AddCard(c Card) {
	h.Cards = append(h.Cards, c)
}

// Value sums the card values, then converts aces from 11 to 1 one at a time
// while the total is over 21. The greedy loop handles any number of aces:
// A,A is 12 and A,A,A,8 is 11.
func (h *Hand) Value() int {
	total := 0
	aces := 0
	for _, c := range h.Cards {
		total += c.Value()
		if c.Rank == Ace {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsBlackjack reports a natural: exactly two cards worth 21.
func (h *Hand) IsBlackjack() bool {
	return len(h.Cards) == 2 && h.Value() == 21
}

func (h *Hand) IsBust() bool {
	return h.Value() > 21
}

// CanSplit allows equal ranks, and also any pair of ten-valued cards even when
// the ranks differ (10 and K is splittable).
func (h *Hand) CanSplit() bool {
	if len(h.Cards) != 2 {
		return false
	}
	if h.Cards[0].Rank == h.Cards[1].Rank {
		return true
	}
	return tenValued(h.Cards[0].Rank) && tenValued(h.Cards[1].Rank)
}

// CanDouble allows doubling on a two-card 9, 10 or 11.
func (h *Hand) CanDouble() bool {
	if len(h.Cards) != 2 {
		return false
	}
	v := h.Value()
	return v >= 9 && v <= 11
}
