// Package staking implements stake positions: locking coins for a chosen
// period, reward accrual from a bounded reward pool, and the unbonding
// period that delays withdrawal after UNSTAKE.
//
// Position lifecycle:
//
//	active --UNSTAKE after lock end--> unbonding --period elapsed--> closed
//
// Staked coins stay in the owner's balance as staked_amount for the whole
// active and unbonding phases; closing a position releases them.
package staking

import (
	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/inter"
)

// Status is the phase of a position.
type Status uint8

const (
	Active Status = iota
	Unbonding
	Closed
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Unbonding:
		return "unbonding"
	case Closed:
		return "closed"
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Multiplier is the reward multiplier of a lock period.
func Multiplier(p inter.LockPeriod) decimal.Decimal {
	switch p {
	case inter.LockOneMonth:
		return decimal.RequireFromString("1.1")
	case inter.LockSixMonths:
		return decimal.RequireFromString("1.25")
	case inter.LockOneYear:
		return decimal.RequireFromString("1.5")
	}
	return decimal.NewFromInt(1)
}

// Position is a snapshot of a stake position. AccruedReward is computed at
// snapshot time and already bounded by the reward pool.
type Position struct {
	ID            string           `json:"id"`
	Owner         inter.Address    `json:"owner"`
	Amount        decimal.Decimal  `json:"amount"`
	LockPeriod    inter.LockPeriod `json:"lock_period"`
	Multiplier    decimal.Decimal  `json:"multiplier"`
	StartTime     inter.Timestamp  `json:"start_time"`
	LockEnd       inter.Timestamp  `json:"lock_end"`
	AccruedReward decimal.Decimal  `json:"accrued_reward"`
	ClaimedReward decimal.Decimal  `json:"claimed_reward"`
	Status        Status           `json:"status"`
	UnbondingAt   inter.Timestamp  `json:"unbonding_at,omitempty"`
	ReleaseAt     inter.Timestamp  `json:"release_at,omitempty"`
}

// position is the engine's mutable record.
type position struct {
	Position
	// settled is the reward accrued up to lastAccrual and not yet claimed.
	settled     decimal.Decimal
	lastAccrual inter.Timestamp
}
