package liquidity

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/inter"
)

// AssetBook holds balances of non-native tokens.
type AssetBook struct {
	mu       sync.Mutex
	balances map[string]map[inter.Address]decimal.Decimal
}

// NewAssetBook returns an empty book.
func NewAssetBook() *AssetBook {
	return &AssetBook{balances: make(map[string]map[inter.Address]decimal.Decimal)}
}

// Balance returns the holding of asset by addr.
func (b *AssetBook) Balance(asset string, addr inter.Address) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balanceLocked(asset, addr)
}

// Balances returns every non-zero holding of addr keyed by asset.
func (b *AssetBook) Balances(addr inter.Address) map[string]decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]decimal.Decimal)
	for asset, holders := range b.balances {
		if bal, ok := holders[addr]; ok && !bal.IsZero() {
			out[asset] = bal
		}
	}
	return out
}

// Assets lists known asset symbols.
func (b *AssetBook) Assets() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.balances))
	for a := range b.balances {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Supply returns the sum of every holding of asset.
func (b *AssetBook) Supply(asset string) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	sum := decimal.Zero
	for _, bal := range b.balances[asset] {
		sum = sum.Add(bal)
	}
	return sum
}

// Credit adds amount of asset to addr.
func (b *AssetBook) Credit(asset string, addr inter.Address, amount decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.creditLocked(asset, addr, amount)
}

// Debit removes amount of asset from addr.
func (b *AssetBook) Debit(asset string, addr inter.Address, amount decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.debitLocked(asset, addr, amount)
}

func (b *AssetBook) balanceLocked(asset string, addr inter.Address) decimal.Decimal {
	if bal, ok := b.balances[asset][addr]; ok {
		return bal
	}
	return decimal.Zero
}

func (b *AssetBook) creditLocked(asset string, addr inter.Address, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return inter.Errorf(inter.KindValidation, "assets.credit", "negative amount %s", amount)
	}
	holders, ok := b.balances[asset]
	if !ok {
		holders = make(map[inter.Address]decimal.Decimal)
		b.balances[asset] = holders
	}
	holders[addr] = b.balanceLocked(asset, addr).Add(amount)
	return nil
}

func (b *AssetBook) debitLocked(asset string, addr inter.Address, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return inter.Errorf(inter.KindValidation, "assets.debit", "negative amount %s", amount)
	}
	bal := b.balanceLocked(asset, addr)
	if bal.LessThan(amount) {
		return inter.Errorf(inter.KindInsufficientFunds, "assets.debit", "%s holds %s %s, needs %s", addr, bal, asset, amount)
	}
	if amount.IsZero() {
		return nil
	}
	b.balances[asset][addr] = bal.Sub(amount)
	return nil
}
