// Package liquidity implements constant-product (x*y=k) market-maker pools.
// The native token leg of every pool settles through the ledger; other
// tokens live in an in-memory asset book owned by the engine.
package liquidity

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/inter"
)

// Precision is the number of decimal places pool arithmetic keeps. It equals
// the native token decimals.
const Precision = 18

var unit = decimal.New(1, -Precision)

// Pool is a snapshot of an AMM pool.
type Pool struct {
	ID             string                            `json:"pool_id"`
	TokenA         string                            `json:"token_a"`
	TokenB         string                            `json:"token_b"`
	ReserveA       decimal.Decimal                   `json:"reserve_a"`
	ReserveB       decimal.Decimal                   `json:"reserve_b"`
	TotalLiquidity decimal.Decimal                   `json:"total_liquidity"`
	FeeRate        decimal.Decimal                   `json:"fee_rate"`
	Providers      map[inter.Address]decimal.Decimal `json:"providers"`
	CreatedAt      inter.Timestamp                   `json:"created_at"`
}

// K is the constant product reserve_a * reserve_b.
func (p Pool) K() decimal.Decimal {
	return p.ReserveA.Mul(p.ReserveB)
}

// TVL is the total value locked, counted naively as reserve_a + reserve_b.
func (p Pool) TVL() decimal.Decimal {
	return p.ReserveA.Add(p.ReserveB)
}

// ProviderAddresses returns the liquidity providers in address order.
func (p Pool) ProviderAddresses() []inter.Address {
	out := make([]inter.Address, 0, len(p.Providers))
	for a := range p.Providers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// reserves returns (in, out) reserves for a swap paying tokenIn.
func (p Pool) reserves(tokenIn string) (decimal.Decimal, decimal.Decimal, error) {
	switch tokenIn {
	case p.TokenA:
		return p.ReserveA, p.ReserveB, nil
	case p.TokenB:
		return p.ReserveB, p.ReserveA, nil
	}
	return decimal.Zero, decimal.Zero, inter.Errorf(inter.KindValidation, "liquidity.swap", "token %s is not traded by pool %s", tokenIn, p.ID)
}

func (p Pool) other(token string) string {
	if token == p.TokenA {
		return p.TokenB
	}
	return p.TokenA
}

// SwapOutput computes the output of swapping amountIn into a pool with
// reserves (reserveIn, reserveOut):
//
//   out = reserveOut - k / (reserveIn + amountIn*(1-fee))
//
// The quotient is rounded up to Precision places so that rounding never
// lowers k.
func SwapOutput(reserveIn, reserveOut, amountIn, feeRate decimal.Decimal) decimal.Decimal {
	k := reserveIn.Mul(reserveOut)
	effective := amountIn.Mul(decimal.NewFromInt(1).Sub(feeRate))
	denom := reserveIn.Add(effective)
	q := k.DivRound(denom, Precision)
	if q.Mul(denom).LessThan(k) {
		q = q.Add(unit)
	}
	out := reserveOut.Sub(q)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

type pool struct {
	mu sync.Mutex
	Pool
}

func (p *pool) snapshot() Pool {
	cp := p.Pool
	cp.Providers = make(map[inter.Address]decimal.Decimal, len(p.Providers))
	for a, s := range p.Providers {
		cp.Providers[a] = s
	}
	return cp
}
