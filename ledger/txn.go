package ledger

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/inter"
)

// Txn stages mutations of the accounts locked by one Update call. Every
// method checks its precondition before changing anything, so a failed call
// leaves the staged copy untouched.
type Txn struct {
	now     inter.Timestamp
	staged  map[inter.Address]*inter.Account
	touched map[inter.Address]bool
}

// Now is the timestamp the update runs at.
func (tx *Txn) Now() inter.Timestamp {
	return tx.now
}

func (tx *Txn) account(op string, addr inter.Address) (*inter.Account, error) {
	acc, ok := tx.staged[addr]
	if !ok {
		return nil, inter.Errorf(inter.KindInternal, op, "account %s not locked by this update", addr)
	}
	return acc, nil
}

func checkAmount(op string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return inter.Errorf(inter.KindValidation, op, "negative amount %s", amount)
	}
	return nil
}

// Get returns the staged state of addr.
func (tx *Txn) Get(addr inter.Address) (inter.Account, error) {
	acc, err := tx.account("ledger.get", addr)
	if err != nil {
		return inter.Account{}, err
	}
	return *acc, nil
}

// Credit adds amount to the balance.
func (tx *Txn) Credit(addr inter.Address, amount decimal.Decimal) error {
	const op = "ledger.credit"
	acc, err := tx.account(op, addr)
	if err != nil {
		return err
	}
	if err := checkAmount(op, amount); err != nil {
		return err
	}
	acc.Balance = acc.Balance.Add(amount)
	tx.touched[addr] = true
	return nil
}

// Debit removes amount from the available balance.
func (tx *Txn) Debit(addr inter.Address, amount decimal.Decimal) error {
	const op = "ledger.debit"
	acc, err := tx.account(op, addr)
	if err != nil {
		return err
	}
	if err := checkAmount(op, amount); err != nil {
		return err
	}
	if acc.Available().LessThan(amount) {
		return inter.Errorf(inter.KindInsufficientFunds, op, "%s has %s available, needs %s", addr, acc.Available(), amount)
	}
	acc.Balance = acc.Balance.Sub(amount)
	tx.touched[addr] = true
	return nil
}

// Stake moves amount of the available balance into staked_amount.
func (tx *Txn) Stake(addr inter.Address, amount decimal.Decimal) error {
	const op = "ledger.stake"
	acc, err := tx.account(op, addr)
	if err != nil {
		return err
	}
	if err := checkAmount(op, amount); err != nil {
		return err
	}
	if acc.Available().LessThan(amount) {
		return inter.Errorf(inter.KindInsufficientFunds, op, "%s has %s available, needs %s", addr, acc.Available(), amount)
	}
	acc.StakedAmount = acc.StakedAmount.Add(amount)
	tx.touched[addr] = true
	return nil
}

// Unstake releases amount of staked_amount back to the available balance.
func (tx *Txn) Unstake(addr inter.Address, amount decimal.Decimal) error {
	const op = "ledger.unstake"
	acc, err := tx.account(op, addr)
	if err != nil {
		return err
	}
	if err := checkAmount(op, amount); err != nil {
		return err
	}
	if acc.StakedAmount.LessThan(amount) {
		return inter.Errorf(inter.KindInvalidState, op, "%s has %s staked, cannot release %s", addr, acc.StakedAmount, amount)
	}
	acc.StakedAmount = acc.StakedAmount.Sub(amount)
	tx.touched[addr] = true
	return nil
}

// Lock reserves amount of the available balance in locked_amount.
func (tx *Txn) Lock(addr inter.Address, amount decimal.Decimal) error {
	const op = "ledger.lock"
	acc, err := tx.account(op, addr)
	if err != nil {
		return err
	}
	if err := checkAmount(op, amount); err != nil {
		return err
	}
	if acc.Available().LessThan(amount) {
		return inter.Errorf(inter.KindInsufficientFunds, op, "%s has %s available, needs %s", addr, acc.Available(), amount)
	}
	acc.LockedAmount = acc.LockedAmount.Add(amount)
	tx.touched[addr] = true
	return nil
}

// Unlock releases amount of locked_amount.
func (tx *Txn) Unlock(addr inter.Address, amount decimal.Decimal) error {
	const op = "ledger.unlock"
	acc, err := tx.account(op, addr)
	if err != nil {
		return err
	}
	if err := checkAmount(op, amount); err != nil {
		return err
	}
	if acc.LockedAmount.LessThan(amount) {
		return inter.Errorf(inter.KindInvalidState, op, "%s has %s locked, cannot release %s", addr, acc.LockedAmount, amount)
	}
	acc.LockedAmount = acc.LockedAmount.Sub(amount)
	tx.touched[addr] = true
	return nil
}

// NextNonce increments and returns the account nonce.
func (tx *Txn) NextNonce(addr inter.Address) (uint64, error) {
	acc, err := tx.account("ledger.nonce", addr)
	if err != nil {
		return 0, err
	}
	acc.Nonce++
	tx.touched[addr] = true
	return acc.Nonce, nil
}

// SetAIScore stores the AI score, clamped to [0,100].
func (tx *Txn) SetAIScore(addr inter.Address, score float64) error {
	acc, err := tx.account("ledger.ai_score", addr)
	if err != nil {
		return err
	}
	acc.AIScore = ClampScore(score)
	return nil
}

// AdjustReputation adds delta to the reputation score, clamped to [0,100].
func (tx *Txn) AdjustReputation(addr inter.Address, delta float64) error {
	acc, err := tx.account("ledger.reputation", addr)
	if err != nil {
		return err
	}
	acc.ReputationScore = ClampScore(acc.ReputationScore + delta)
	return nil
}

// ClampScore bounds a score to [0,100]. NaN maps to 0.
func ClampScore(s float64) float64 {
	if math.IsNaN(s) {
		return 0
	}
	return math.Max(0, math.Min(100, s))
}
