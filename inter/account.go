package inter

import (
	"github.com/shopspring/decimal"
)

// Default scores of a freshly created account.
const (
	DefaultAIScore         = 50.0
	DefaultReputationScore = 50.0
)

// Account is a snapshot of one ledger entry.
//
// Staked and locked amounts are reservations inside Balance: staking or
// locking never moves coins out of Balance, it only reduces what is
// available to spend. Balance is therefore also the account's total holding.
type Account struct {
	Address         Address         `json:"address"`
	Balance         decimal.Decimal `json:"balance"`
	StakedAmount    decimal.Decimal `json:"staked_amount"`
	LockedAmount    decimal.Decimal `json:"locked_amount"`
	AIScore         float64         `json:"ai_score"`
	ReputationScore float64         `json:"reputation_score"`
	Nonce           uint64          `json:"nonce"`
	CreatedAt       Timestamp       `json:"created_at"`
	LastActivity    Timestamp       `json:"last_activity"`
}

// NewAccount returns an empty account with default scores.
func NewAccount(addr Address, now Timestamp) Account {
	return Account{
		Address:         addr,
		Balance:         decimal.Zero,
		StakedAmount:    decimal.Zero,
		LockedAmount:    decimal.Zero,
		AIScore:         DefaultAIScore,
		ReputationScore: DefaultReputationScore,
		CreatedAt:       now,
		LastActivity:    now,
	}
}

// Available is the immediately spendable part of the balance.
func (a Account) Available() decimal.Decimal {
	return a.Balance.Sub(a.StakedAmount).Sub(a.LockedAmount)
}

// Total is the account's whole holding, staked and locked parts included.
func (a Account) Total() decimal.Decimal {
	return a.Balance
}
