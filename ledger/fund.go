package ledger

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/inter"
)

// Fund is a bounded pool of native coins held outside any account, such as
// the staking, governance and AI reward pools. Coins leave a fund only
// through Draw or Take and are credited to an account by the caller in the
// same ledger update.
type Fund struct {
	name string

	mu      sync.Mutex
	balance decimal.Decimal
	paid    decimal.Decimal
}

// NewFund creates a fund holding initial coins.
func NewFund(name string, initial decimal.Decimal) *Fund {
	return &Fund{name: name, balance: initial, paid: decimal.Zero}
}

// Name identifies the fund in logs and metrics.
func (f *Fund) Name() string {
	return f.name
}

// Balance returns the coins left in the fund.
func (f *Fund) Balance() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance
}

// Paid returns the total drawn from the fund since creation.
func (f *Fund) Paid() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paid
}

// Draw removes up to want coins and returns how much was removed. It fails
// with KindCapacity only when the fund is empty and want is positive.
func (f *Fund) Draw(want decimal.Decimal) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !want.IsPositive() {
		return decimal.Zero, nil
	}
	if !f.balance.IsPositive() {
		return decimal.Zero, inter.Errorf(inter.KindCapacity, "fund.draw", "%s reward pool exhausted", f.name)
	}
	got := inter.MinDecimal(want, f.balance)
	f.balance = f.balance.Sub(got)
	f.paid = f.paid.Add(got)
	return got, nil
}

// Take removes exactly amount or fails with KindCapacity.
func (f *Fund) Take(amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if amount.IsNegative() {
		return inter.Errorf(inter.KindValidation, "fund.take", "negative amount %s", amount)
	}
	if f.balance.LessThan(amount) {
		return inter.Errorf(inter.KindCapacity, "fund.take", "%s reward pool holds %s, needs %s", f.name, f.balance, amount)
	}
	f.balance = f.balance.Sub(amount)
	f.paid = f.paid.Add(amount)
	return nil
}

// Refund returns coins previously drawn.
func (f *Fund) Refund(amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance = f.balance.Add(amount)
	f.paid = f.paid.Sub(amount)
}
