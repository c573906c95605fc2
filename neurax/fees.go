package neurax

import (
	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/inter"
)

// FeeCategory groups transaction types that share a fee multiplier.
type FeeCategory string

const (
	FeeDefault    FeeCategory = "transfer"
	FeeStake      FeeCategory = "stake"
	FeeGovernance FeeCategory = "governance"
)

// CategoryOf maps a transaction type onto its fee category.
func CategoryOf(t inter.TxType) FeeCategory {
	switch t {
	case inter.TxStake:
		return FeeStake
	case inter.TxProposal, inter.TxVote:
		return FeeGovernance
	}
	return FeeDefault
}

// ParseFeeCategory accepts a category name or a transaction type name.
func ParseFeeCategory(s string) FeeCategory {
	switch FeeCategory(s) {
	case FeeStake, FeeGovernance, FeeDefault:
		return FeeCategory(s)
	}
	if t, err := inter.ParseTxType(s); err == nil {
		return CategoryOf(t)
	}
	return FeeDefault
}

// EstimateFee is a pure function of the fee schedule, the category and the
// amount moved.
func (e EconomyRules) EstimateFee(c FeeCategory, amount decimal.Decimal) decimal.Decimal {
	fee := e.BaseFee
	switch c {
	case FeeStake:
		fee = fee.Mul(e.StakeMultiplier)
	case FeeGovernance:
		fee = fee.Mul(e.GovernanceMultiplier)
	}
	if amount.GreaterThan(e.LargeAmountThreshold) {
		fee = fee.Add(amount.Mul(e.LargeAmountRate))
	}
	return fee
}

// FeeFor returns the fee a transaction of type t moving amount pays. Types
// that settle rewards or release funds are exempt and pay zero.
func (e EconomyRules) FeeFor(t inter.TxType, amount decimal.Decimal) decimal.Decimal {
	if !Charged(t) {
		return decimal.Zero
	}
	return e.EstimateFee(CategoryOf(t), amount)
}

// Charged reports whether transactions of type t pay a fee.
func Charged(t inter.TxType) bool {
	switch t {
	case inter.TxTransfer, inter.TxStake, inter.TxProposal, inter.TxVote:
		return true
	}
	return false
}
