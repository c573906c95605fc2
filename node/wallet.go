package node

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/aireward"
	"github.com/rony4d/go-neurax/governance"
	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/staking"
)

// Wallet is a freshly generated key and its address. The node keeps no copy
// of the key.
type Wallet struct {
	Address    inter.Address `json:"address"`
	PrivateKey string        `json:"private_key"`
}

// GenerateWallet creates a random key and derives its address without
// touching any ledger.
func GenerateWallet() (Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return Wallet{}, inter.Errorf(inter.KindInternal, "wallet.create", "generate key: %v", err)
	}
	w := Wallet{PrivateKey: hex.EncodeToString(crypto.FromECDSA(key))}
	w.Address = inter.AddressFromKey(w.PrivateKey)
	return w, nil
}

// CreateWallet generates a wallet and opens an empty account for it.
func (n *Node) CreateWallet() (Wallet, error) {
	w, err := GenerateWallet()
	if err != nil {
		return Wallet{}, err
	}
	if _, err := n.Ledger.CreateAccount(w.Address); err != nil {
		return Wallet{}, err
	}
	n.Metrics.Accounts.Set(float64(n.Ledger.Len()))
	n.log.WithField("address", w.Address).Info("Wallet created")
	return w, nil
}

// ValidateAddress reports whether s is a well-formed address.
func (n *Node) ValidateAddress(s string) bool {
	return inter.IsValidAddress(s)
}

// Balance is the spendable view of an account.
type Balance struct {
	Address      inter.Address              `json:"address"`
	Balance      decimal.Decimal            `json:"balance"`
	Staked       decimal.Decimal            `json:"staked_amount"`
	Locked       decimal.Decimal            `json:"locked_amount"`
	Available    decimal.Decimal            `json:"available_balance"`
	Total        decimal.Decimal            `json:"total_balance"`
	AIScore      float64                    `json:"ai_score"`
	Reputation   float64                    `json:"reputation_score"`
	LastActivity inter.Timestamp            `json:"last_activity"`
	Assets       map[string]decimal.Decimal `json:"assets,omitempty"`
}

// Balance returns the balance view of addr.
func (n *Node) Balance(addr string) (Balance, error) {
	a, err := inter.ParseAddress(addr)
	if err != nil {
		return Balance{}, err
	}
	acc, err := n.Ledger.Get(a)
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		Address:      a,
		Balance:      acc.Balance,
		Staked:       acc.StakedAmount,
		Locked:       acc.LockedAmount,
		Available:    acc.Available(),
		Total:        acc.Total(),
		AIScore:      acc.AIScore,
		Reputation:   acc.ReputationScore,
		LastActivity: acc.LastActivity,
		Assets:       n.Liquidity.Assets().Balances(a),
	}, nil
}

// WalletInfo is everything the node knows about one address.
type WalletInfo struct {
	Balance
	Positions    []staking.Position `json:"staking_positions"`
	Votes        []governance.Vote  `json:"votes"`
	AI           aireward.Stats     `json:"ai_validation"`
	Transactions int                `json:"transaction_count"`
}

// WalletInfo returns the full view of addr.
func (n *Node) WalletInfo(addr string) (WalletInfo, error) {
	b, err := n.Balance(addr)
	if err != nil {
		return WalletInfo{}, err
	}
	return WalletInfo{
		Balance:      b,
		Positions:    n.Staking.PositionsOf(b.Address),
		Votes:        n.Governance.VotesBy(b.Address),
		AI:           n.AI.Stats(b.Address),
		Transactions: n.Processor.CountOf(b.Address),
	}, nil
}
