package engine

import (
	"fmt"
	"math/rand"

	appErr "blackjack-service/pkg/errors"
)

type Phase string

const (
	PhaseBetting    Phase = "betting"
	PhaseDealt      Phase = "dealt"
	PhasePlayerTurn Phase = "player_turn"
	PhaseDealerTurn Phase = "dealer_turn"
	PhaseSettled    Phase = "settled"
)

type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeBlackjack Outcome = "blackjack"
	OutcomeLose      Outcome = "lose"
	OutcomePush      Outcome = "push"
)

// HandResult is the settlement of one player hand against the dealer. Payout
// is the gross amount credited back: 2x the bet on a win, the bet itself on a
// push, 0 on a loss.
type HandResult struct {
	HandIndex int     `json:"handIndex"`
	Outcome   Outcome `json:"outcome"`
	Bet       int64   `json:"bet"`
	Payout    int64   `json:"payout"`
}

// DealerStep records one dealer draw so front ends can animate the sequence
// with their own pacing. The engine runs the whole loop synchronously.
type DealerStep struct {
	Card  Card `json:"card"`
	Value int  `json:"value"`
}

// Round is the controller for one game instance: one shoe, one dealer hand, an
// ordered list of player hands (growing via split) and a cursor marking the
// active hand. It is not safe for concurrent use; callers serialize access.
type Round struct {
	shoe     *Shoe
	bankroll *Bankroll
	dealer   *Hand
	hands    []*Hand
	active   int
	phase    Phase

	holeHidden  bool
	dealerSteps []DealerStep
	results     []HandResult
}

func NewRound(bankroll *Bankroll, rng *rand.Rand) *Round {
	return &Round{
		shoe:     NewShoe(rng),
		bankroll: bankroll,
		dealer:   NewHand(0),
		phase:    PhaseBetting,
	}
}

func (r *Round) Phase() Phase         { return r.phase }
func (r *Round) Balance() int64       { return r.bankroll.Balance() }
func (r *Round) PendingBet() int64    { return r.bankroll.PendingBet() }
func (r *Round) ActiveHandIndex() int { return r.active }
func (r *Round) HoleHidden() bool     { return r.holeHidden }
func (r *Round) ShoeRemaining() int   { return r.shoe.Remaining() }

// Dealer returns the full dealer hand, hole card included. Masking the hole
// card while HoleHidden is a presentation concern.
func (r *Round) Dealer() *Hand { return r.dealer }

// Hands returns the player hands in deal order. Callers must not mutate.
func (r *Round) Hands() []*Hand { return r.hands }

func (r *Round) DealerSteps() []DealerStep { return r.dealerSteps }
func (r *Round) Results() []HandResult     { return r.results }

// PlaceBet adds amount to the pending bet. Placing a bet after settlement
// implicitly starts the next round from BETTING.
func (r *Round) PlaceBet(amount int64) error {
	if r.phase == PhaseSettled {
		r.resetForBetting()
	}
	if r.phase != PhaseBetting {
		return fmt.Errorf("%w: betting is closed while a round is in progress", appErr.ErrInvalidAction)
	}
	return r.bankroll.PlaceBet(amount)
}

// ClearBet refunds the pending bet before the deal.
func (r *Round) ClearBet() error {
	if r.phase == PhaseSettled {
		r.resetForBetting()
	}
	if r.phase != PhaseBetting {
		return fmt.Errorf("%w: cannot clear the bet during a round", appErr.ErrInvalidAction)
	}
	r.bankroll.ClearBet()
	return nil
}

// Deal starts the round: hand 0 takes the pending bet, then two cards go to
// the player and two to the dealer (second one is the hole card). A natural
// blackjack on hand 0 auto-stands.
func (r *Round) Deal() error {
	if r.phase == PhaseSettled {
		r.resetForBetting()
	}
	if r.phase != PhaseBetting {
		return fmt.Errorf("%w: round already dealt", appErr.ErrInvalidAction)
	}
	if r.bankroll.PendingBet() == 0 {
		return appErr.ErrEmptyBetDeal
	}

	hand := NewHand(r.bankroll.TakeBet())
	r.hands = []*Hand{hand}
	r.dealer = NewHand(0)
	r.dealerSteps = nil
	r.results = nil
	r.phase = PhaseDealt

	hand.AddCard(r.shoe.Deal())
	r.dealer.AddCard(r.shoe.Deal())
	hand.AddCard(r.shoe.Deal())
	r.dealer.AddCard(r.shoe.Deal())
	r.holeHidden = true

	r.active = 0
	r.phase = PhasePlayerTurn

	if hand.IsBlackjack() {
		return r.Stand(0)
	}
	return nil
}

// Hit deals one card to hand i. A doubled hand stands after its one card; a
// bust deactivates the hand and advances the turn.
func (r *Round) Hit(handIndex int) error {
	hand, err := r.checkTurn(handIndex)
	if err != nil {
		return err
	}
	hand.AddCard(r.shoe.Deal())
	if hand.Doubled {
		return r.Stand(handIndex)
	}
	if hand.IsBust() {
		hand.Active = false
		r.advance()
	}
	return nil
}

func (r *Round) Stand(handIndex int) error {
	hand, err := r.checkTurn(handIndex)
	if err != nil {
		return err
	}
	hand.Active = false
	r.advance()
	return nil
}

// Double doubles the bet on a two-card 9–11, then deals exactly one card and
// forces the stand, even when that card busts the hand.
func (r *Round) Double(handIndex int) error {
	hand, err := r.checkTurn(handIndex)
	if err != nil {
		return err
	}
	if !hand.CanDouble() {
		return fmt.Errorf("%w: hand %d cannot double down", appErr.ErrInvalidAction, handIndex)
	}
	if err := r.bankroll.Debit(hand.Bet); err != nil {
		return err
	}
	hand.Bet *= 2
	hand.Doubled = true
	return r.Hit(handIndex)
}

// Split moves the second card of a splittable pair into a new hand appended to
// the list, mirrors the bet onto it, and deals one fresh card to each. Split
// aces get exactly one card each and the turn advances past both hands.
func (r *Round) Split(handIndex int) error {
	hand, err := r.checkTurn(handIndex)
	if err != nil {
		return err
	}
	if !hand.CanSplit() {
		return fmt.Errorf("%w: hand %d cannot be split", appErr.ErrInvalidAction, handIndex)
	}
	if err := r.bankroll.Debit(hand.Bet); err != nil {
		return err
	}

	second := hand.Cards[1]
	hand.Cards = hand.Cards[:1]

	split := NewHand(hand.Bet)
	split.AddCard(second)
	r.hands = append(r.hands, split)

	hand.AddCard(r.shoe.Deal())
	split.AddCard(r.shoe.Deal())

	if hand.Cards[0].Rank == Ace {
		hand.Active = false
		split.Active = false
		r.advance()
	}
	return nil
}

// NewGame is the full reset: fresh shoe, hands and bet cleared, phase back to
// BETTING. The balance is left exactly as it stands, so a bet composed but not
// yet refunded via ClearBet is forfeited. Always available.
func (r *Round) NewGame() {
	r.shoe.Reset()
	r.bankroll.ForfeitBet()
	r.resetForBetting()
}

func (r *Round) checkTurn(handIndex int) (*Hand, error) {
	if r.phase != PhasePlayerTurn {
		return nil, fmt.Errorf("%w: no player turn in progress", appErr.ErrInvalidAction)
	}
	if handIndex != r.active || handIndex < 0 || handIndex >= len(r.hands) {
		return nil, fmt.Errorf("%w: hand %d is not the active hand", appErr.ErrInvalidAction, handIndex)
	}
	hand := r.hands[handIndex]
	if !hand.Active {
		return nil, fmt.Errorf("%w: hand %d has already finished", appErr.ErrInvalidAction, handIndex)
	}
	return hand, nil
}

// advance moves the cursor to the next hand still able to act; past the last
// hand the dealer's turn begins. Cursor == len(hands) means all hands resolved.
func (r *Round) advance() {
	next := r.active + 1
	for next < len(r.hands) && !r.hands[next].Active {
		next++
	}
	r.active = next
	if next >= len(r.hands) {
		r.playDealer()
	}
}

// playDealer reveals the hole card and draws to 17 or better, recording each
// draw as a step. When every player hand busted the dealer draws nothing.
// Once entered, the round runs to SETTLED without interruption.
func (r *Round) playDealer() {
	r.phase = PhaseDealerTurn
	r.holeHidden = false

	allBusted := true
	for _, hand := range r.hands {
		if !hand.IsBust() {
			allBusted = false
			break
		}
	}

	if !allBusted {
		for r.dealer.Value() < 17 {
			card := r.shoe.Deal()
			r.dealer.AddCard(card)
			r.dealerSteps = append(r.dealerSteps, DealerStep{Card: card, Value: r.dealer.Value()})
		}
	}

	r.settle()
}

// settle resolves every player hand independently against the one dealer
// outcome and credits the summed payouts in a single atomic credit. The case
// order matches the reference payout table: a dealer bust pays any standing
// hand 2x before the blackjack rows are considered.
func (r *Round) settle() {
	dealerValue := r.dealer.Value()
	dealerBlackjack := r.dealer.IsBlackjack()
	dealerBusted := dealerValue > 21

	var totalPayout int64
	results := make([]HandResult, 0, len(r.hands))
	for i, hand := range r.hands {
		res := HandResult{HandIndex: i, Bet: hand.Bet, Outcome: OutcomeLose}
		value := hand.Value()
		switch {
		case value > 21:
			// busted hands lose no matter what the dealer did
		case dealerBusted:
			res.Outcome = OutcomeWin
			res.Payout = hand.Bet * 2
		case hand.IsBlackjack() && !dealerBlackjack:
			res.Outcome = OutcomeBlackjack
			res.Payout = hand.Bet * 5 / 2 // 3:2, truncated toward zero for odd bets
		case dealerBlackjack && !hand.IsBlackjack():
			// lose
		case hand.IsBlackjack() && dealerBlackjack:
			res.Outcome = OutcomePush
			res.Payout = hand.Bet
		case value > dealerValue:
			res.Outcome = OutcomeWin
			res.Payout = hand.Bet * 2
		case value < dealerValue:
			// lose
		default:
			res.Outcome = OutcomePush
			res.Payout = hand.Bet
		}
		totalPayout += res.Payout
		results = append(results, res)
	}

	r.results = results
	r.bankroll.Credit(totalPayout)
	r.phase = PhaseSettled
}

func (r *Round) resetForBetting() {
	r.hands = nil
	r.dealer = NewHand(0)
	r.active = 0
	r.holeHidden = false
	r.dealerSteps = nil
	r.results = nil
	r.phase = PhaseBetting
}
