package model

import "math"

// Wallet is the net-billing deposit: export revenue accrues here and is
// spent against the active-energy part of later imports.
type Wallet struct {
	Balance float64
}

// Credit adds export revenue. Negative amounts are ignored.
func (w *Wallet) Credit(amount float64) {
	if amount > 0 {
		w.Balance += amount
	}
}

// Offset spends the balance against cost and returns the compensated part.
// The balance never drops below zero.
func (w *Wallet) Offset(cost float64) (compensation float64) {
	compensation = math.Max(0, math.Min(w.Balance, cost))
	w.Balance = math.Max(0, w.Balance-compensation)
	return compensation
}
