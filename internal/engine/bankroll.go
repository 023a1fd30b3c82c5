package engine

import (
	"fmt"

	appErr "blackjack-service/pkg/errors"
)

// Bankroll tracks the player's balance and the bet being composed before a
// round starts. The balance never goes negative: any debit that would is
// rejected before state changes.
type Bankroll struct {
	balance    int64
	pendingBet int64
}

func NewBankroll(balance int64) *Bankroll {
	return &Bankroll{balance: balance}
}

func (b *Bankroll) Balance() int64 {
	return b.balance
}

func (b *Bankroll) PendingBet() int64 {
	return b.pendingBet
}

// PlaceBet moves amount from the balance into the pending bet. Bets accumulate
// chip-style, so repeated calls raise the pending bet.
func (b *Bankroll) PlaceBet(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: bet must be positive", appErr.ErrInvalidAction)
	}
	if amount > b.balance {
		return fmt.Errorf("%w: bet %d exceeds balance %d", appErr.ErrInsufficientFunds, amount, b.balance)
	}
	b.balance -= amount
	b.pendingBet += amount
	return nil
}

// ClearBet refunds the whole pending bet to the balance.
func (b *Bankroll) ClearBet() {
	b.balance += b.pendingBet
	b.pendingBet = 0
}

// TakeBet consumes the pending bet, returning its amount. Called once when the
// round is dealt; the amount becomes hand 0's bet.
func (b *Bankroll) TakeBet() int64 {
	bet := b.pendingBet
	b.pendingBet = 0
	return bet
}

// ForfeitBet drops the pending bet without a refund. Used by the full game
// reset, which leaves the balance exactly as it stands.
func (b *Bankroll) ForfeitBet() {
	b.pendingBet = 0
}

// Debit withdraws directly from the balance (double and split funding).
func (b *Bankroll) Debit(amount int64) error {
	if amount > b.balance {
		return fmt.Errorf("%w: need %d, balance is %d", appErr.ErrInsufficientFunds, amount, b.balance)
	}
	b.balance -= amount
	return nil
}

func (b *Bankroll) Credit(amount int64) {
	b.balance += amount
}
