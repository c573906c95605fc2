// Package genesis defines the initial state of a NeuraX network: how the
// token supply is split between named allocations, how much of it funds the
// reward pools, which liquidity pools exist from the start and which
// validators are known before the first block.
//
// Key concepts:
//   - Distribution: percentage split of the total supply (public sale, team,
//     advisors, ecosystem, treasury, liquidity)
//   - RewardPools: the bounded pools staking, governance and AI rewards are
//     drawn from; funded out of the ecosystem share
//   - Pools: AMM pools seeded out of the liquidity share
//
// Usage:
//   g := genesis.MainGenesis(neurax.MainNetRules(), now)
//   if err := g.Validate(); err != nil { ... }
//
// A valid genesis accounts for every coin of the total supply: the sum of
// account allocations, reward pools and native pool reserves equals
// Rules.Token.TotalSupply exactly.
package genesis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/neurax"
)

// Distribution share names.
const (
	PublicSale = "public_sale"
	Team       = "team"
	Advisors   = "advisors"
	Ecosystem  = "ecosystem"
	Treasury   = "treasury"
	Liquidity  = "liquidity"
)

// StableAsset is the non-native token paired with NX in the default pool.
const StableAsset = "USDT"

// Share is one slice of the supply distribution.
type Share struct {
	Name    string          `json:"name"`
	Percent decimal.Decimal `json:"percentage"`
	Vesting string          `json:"vesting,omitempty"`
}

// Distribution is the ordered list of supply shares.
type Distribution []Share

// DefaultDistribution returns the NX supply split.
func DefaultDistribution() Distribution {
	return Distribution{
		{Name: PublicSale, Percent: decimal.NewFromInt(30)},
		{Name: Team, Percent: decimal.NewFromInt(20), Vesting: "4 year vesting with 1 year cliff"},
		{Name: Advisors, Percent: decimal.NewFromInt(5), Vesting: "2 year vesting with 6 month cliff"},
		{Name: Ecosystem, Percent: decimal.NewFromInt(25)},
		{Name: Treasury, Percent: decimal.NewFromInt(10)},
		{Name: Liquidity, Percent: decimal.NewFromInt(10)},
	}
}

// Amount returns the coins a share represents out of total.
func (s Share) Amount(total decimal.Decimal) decimal.Decimal {
	return total.Mul(s.Percent).Div(decimal.NewFromInt(100))
}

// Get returns the share with the given name.
func (d Distribution) Get(name string) (Share, bool) {
	for _, s := range d {
		if s.Name == name {
			return s, true
		}
	}
	return Share{}, false
}

// Allocation credits Amount native coins to Address at genesis.
type Allocation struct {
	Label   string          `json:"label"`
	Address inter.Address   `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
}

// AssetAllocation credits a non-native asset balance at genesis.
type AssetAllocation struct {
	Asset   string          `json:"asset"`
	Address inter.Address   `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
}

// RewardPools are the bounded funds reward payouts are drawn from.
type RewardPools struct {
	Staking    decimal.Decimal `json:"staking"`
	Governance decimal.Decimal `json:"governance"`
	AI         decimal.Decimal `json:"ai"`
}

// Total is the sum of the three pools.
func (p RewardPools) Total() decimal.Decimal {
	return p.Staking.Add(p.Governance).Add(p.AI)
}

// Pool seeds one AMM pool. TokenA is always the native token.
type Pool struct {
	ID       string          `json:"pool_id"`
	TokenA   string          `json:"token_a"`
	TokenB   string          `json:"token_b"`
	ReserveA decimal.Decimal `json:"reserve_a"`
	ReserveB decimal.Decimal `json:"reserve_b"`
	FeeRate  decimal.Decimal `json:"fee_rate"`
	Provider inter.Address   `json:"provider"`
}

// Genesis is the full initial state.
type Genesis struct {
	Rules        neurax.Rules      `json:"rules"`
	Time         inter.Timestamp   `json:"time"`
	Distribution Distribution      `json:"distribution"`
	Allocations  []Allocation      `json:"allocations"`
	Assets       []AssetAllocation `json:"assets"`
	RewardPools  RewardPools       `json:"reward_pools"`
	Pools        []Pool            `json:"pools"`
	Validators   []inter.Address   `json:"validators"`
}

// ShareAddress is the well-known account holding a distribution share.
func ShareAddress(name string) inter.Address {
	return inter.FakeAddress("neurax/genesis/" + name)
}

// ValidatorAddress is the address of the i-th genesis validator.
func ValidatorAddress(i int) inter.Address {
	return inter.FakeAddress(fmt.Sprintf("neurax/validator/%d", i))
}

// FakeAccount is the address of the i-th development account.
func FakeAccount(i int) inter.Address {
	return inter.FakeAddress(fmt.Sprintf("neurax/fake/%d", i))
}

// MainGenesis builds the default genesis for rules: each share goes to its
// well-known account, the ecosystem share funds the reward pools (40% staking,
// 40% AI, 20% governance) and 1% of the liquidity share seeds the NX/USDT
// pool at a price of 3 USDT per NX.
func MainGenesis(rules neurax.Rules, time inter.Timestamp) Genesis {
	total := rules.Token.TotalSupply
	dist := DefaultDistribution()
	g := Genesis{
		Rules:        rules,
		Time:         time,
		Distribution: dist,
	}

	for _, s := range dist {
		amount := s.Amount(total)
		switch s.Name {
		case Ecosystem:
			g.RewardPools = RewardPools{
				Staking:    amount.Mul(decimal.RequireFromString("0.4")),
				AI:         amount.Mul(decimal.RequireFromString("0.4")),
				Governance: amount.Mul(decimal.RequireFromString("0.2")),
			}
		case Liquidity:
			seed := amount.Div(decimal.NewFromInt(100))
			provider := ShareAddress(Liquidity)
			g.Pools = append(g.Pools, Pool{
				ID:       rules.Token.Symbol + "-" + StableAsset,
				TokenA:   rules.Token.Symbol,
				TokenB:   StableAsset,
				ReserveA: seed,
				ReserveB: seed.Mul(decimal.NewFromInt(3)),
				FeeRate:  rules.Liquidity.DefaultFeeRate,
				Provider: provider,
			})
			g.Allocations = append(g.Allocations, Allocation{Label: s.Name, Address: provider, Amount: amount.Sub(seed)})
			g.Assets = append(g.Assets, AssetAllocation{Asset: StableAsset, Address: provider, Amount: seed.Mul(decimal.NewFromInt(3))})
		default:
			g.Allocations = append(g.Allocations, Allocation{Label: s.Name, Address: ShareAddress(s.Name), Amount: amount})
		}
	}

	for i := 0; i < 3; i++ {
		g.Validators = append(g.Validators, ValidatorAddress(i))
	}
	return g
}

// FakeGenesis builds a development genesis: MainGenesis plus n funded
// accounts (FakeAccount(0..n-1)), each holding balance NX carved out of the
// public sale share and the same amount of the stable asset.
func FakeGenesis(rules neurax.Rules, time inter.Timestamp, n int, balance decimal.Decimal) Genesis {
	g := MainGenesis(rules, time)
	carved := balance.Mul(decimal.NewFromInt(int64(n)))
	for i := range g.Allocations {
		if g.Allocations[i].Label == PublicSale {
			g.Allocations[i].Amount = g.Allocations[i].Amount.Sub(carved)
		}
	}
	for i := 0; i < n; i++ {
		g.Allocations = append(g.Allocations, Allocation{Label: "fake", Address: FakeAccount(i), Amount: balance})
		g.Assets = append(g.Assets, AssetAllocation{Asset: StableAsset, Address: FakeAccount(i), Amount: balance})
	}
	return g
}

// NativeReserves is the sum of native-token reserves across genesis pools.
func (g Genesis) NativeReserves() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range g.Pools {
		sum = sum.Add(p.ReserveA)
	}
	return sum
}

// Allocated is the sum of native account allocations.
func (g Genesis) Allocated() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range g.Allocations {
		sum = sum.Add(a.Amount)
	}
	return sum
}

// Validate checks that genesis accounts for the total supply exactly and that
// every amount and address is well formed.
func (g Genesis) Validate() error {
	const op = "genesis.validate"
	pct := decimal.Zero
	for _, s := range g.Distribution {
		pct = pct.Add(s.Percent)
	}
	if len(g.Distribution) > 0 && !pct.Equal(decimal.NewFromInt(100)) {
		return inter.Errorf(inter.KindValidation, op, "distribution sums to %s%%", pct)
	}
	for _, a := range g.Allocations {
		if !inter.IsValidAddress(string(a.Address)) {
			return inter.Errorf(inter.KindValidation, op, "allocation %q: bad address %q", a.Label, a.Address)
		}
		if a.Amount.IsNegative() {
			return inter.Errorf(inter.KindValidation, op, "allocation %q is negative", a.Label)
		}
	}
	for _, p := range g.Pools {
		if !p.ReserveA.IsPositive() || !p.ReserveB.IsPositive() {
			return inter.Errorf(inter.KindValidation, op, "pool %s has empty reserves", p.ID)
		}
		if p.TokenA != g.Rules.Token.Symbol {
			return inter.Errorf(inter.KindValidation, op, "pool %s: token_a must be %s", p.ID, g.Rules.Token.Symbol)
		}
	}
	if len(g.Validators) == 0 {
		return inter.Errorf(inter.KindValidation, op, "no genesis validators")
	}
	sum := g.Allocated().Add(g.RewardPools.Total()).Add(g.NativeReserves())
	if !sum.Equal(g.Rules.Token.TotalSupply) {
		return inter.Errorf(inter.KindValidation, op, "genesis accounts for %s of %s", sum, g.Rules.Token.TotalSupply)
	}
	return nil
}
