package genesis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/neurax"
)

func TestMainGenesisAccountsForSupply(t *testing.T) {
	g := MainGenesis(neurax.MainNetRules(), 0)
	require.NoError(t, g.Validate())

	total := g.Allocated().Add(g.RewardPools.Total()).Add(g.NativeReserves())
	assert.True(t, total.Equal(decimal.NewFromInt(1_000_000_000)), total.String())

	eco, ok := g.Distribution.Get(Ecosystem)
	require.True(t, ok)
	assert.True(t, g.RewardPools.Total().Equal(eco.Amount(g.Rules.Token.TotalSupply)))

	require.Len(t, g.Pools, 1)
	pool := g.Pools[0]
	assert.Equal(t, "NX-USDT", pool.ID)
	assert.True(t, pool.ReserveB.Equal(pool.ReserveA.Mul(decimal.NewFromInt(3))))
	assert.Len(t, g.Validators, 3)
}

func TestFakeGenesis(t *testing.T) {
	balance := decimal.NewFromInt(10_000)
	g := FakeGenesis(neurax.FakeNetRules(), 0, 4, balance)
	require.NoError(t, g.Validate())

	funded := map[inter.Address]decimal.Decimal{}
	for _, a := range g.Allocations {
		funded[a.Address] = a.Amount
	}
	for i := 0; i < 4; i++ {
		assert.True(t, funded[FakeAccount(i)].Equal(balance))
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Genesis)
	}{
		{"supply mismatch", func(g *Genesis) { g.Allocations[0].Amount = g.Allocations[0].Amount.Add(decimal.NewFromInt(1)) }},
		{"bad address", func(g *Genesis) { g.Allocations[0].Address = "NXnothex" }},
		{"negative allocation", func(g *Genesis) { g.Allocations[0].Amount = decimal.NewFromInt(-1) }},
		{"empty pool", func(g *Genesis) { g.Pools[0].ReserveB = decimal.Zero }},
		{"no validators", func(g *Genesis) { g.Validators = nil }},
		{"distribution", func(g *Genesis) { g.Distribution[0].Percent = decimal.NewFromInt(31) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := MainGenesis(neurax.MainNetRules(), 0)
			tt.mutate(&g)
			err := g.Validate()
			require.Error(t, err)
			assert.Equal(t, inter.KindValidation, inter.KindOf(err))
		})
	}
}
