package credits

import (
	"context"
	"errors"
	"fmt"
)

const DefaultBalance = 50

var ErrInvalidAmount = errors.New("amount must not be negative")

// Ledger tracks per-user credits. Balances never go below zero and the
// ledger never adds credits.
type Ledger struct {
	store Store
	def   int
}

func NewLedger(store Store, defaultBalance int) *Ledger {
	if defaultBalance < 0 {
		defaultBalance = DefaultBalance
	}
	return &Ledger{store: store, def: defaultBalance}
}

func (l *Ledger) Default() int { return l.def }

// Balance returns the stored balance, or the default when the user has none.
// It never writes.
func (l *Ledger) Balance(ctx context.Context, user string) (int, error) {
	v, ok, err := l.store.Get(ctx, user)
	if err != nil {
		return 0, err
	}
	if !ok {
		return l.def, nil
	}
	return v, nil
}

// Deduct subtracts amount, flooring at zero, and returns the new balance.
func (l *Ledger) Deduct(ctx context.Context, user string, amount int) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	return l.store.Update(ctx, user, l.def, func(cur int) int {
		return max(0, cur-amount)
	})
}

// Initialize creates the balance at the default if absent. Calling it again
// leaves the balance untouched.
func (l *Ledger) Initialize(ctx context.Context, user string) (int, error) {
	return l.store.SetNX(ctx, user, l.def)
}
