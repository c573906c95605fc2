package consensus

import (
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/pos"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-neurax/inter"
)

func TestWeight(t *testing.T) {
	tests := []struct {
		ai, rep float64
		want    pos.Weight
	}{
		{0, 0, 1},
		{50, 50, 2501},
		{100, 100, 10001},
		{-5, 80, 1},
		{90.5, 10, 906},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Weight(tt.ai, tt.rep), "%v x %v", tt.ai, tt.rep)
	}
}

func TestSelectionIsWeighted(t *testing.T) {
	strong := inter.FakeAddress("strong")
	weak := inter.FakeAddress("weak")
	set := NewValidatorSet([]Candidate{
		{Address: weak, AIScore: 10, Reputation: 10},
		{Address: strong, AIScore: 90, Reputation: 90},
		{Address: weak, AIScore: 100, Reputation: 100},
	})
	require.Equal(t, 2, set.Len(), "duplicates keep the first entry")
	total := uint64(set.TotalWeight())
	require.Equal(t, uint64(8101+101), total)

	counts := map[inter.Address]uint64{}
	for seed := uint64(0); seed < total; seed++ {
		c, ok := set.Select(seed)
		require.True(t, ok)
		counts[c.Address]++
	}
	assert.Equal(t, uint64(8101), counts[strong])
	assert.Equal(t, uint64(101), counts[weak])
}

func TestSelectionDeterministic(t *testing.T) {
	var cands []Candidate
	for _, name := range []string{"a", "b", "c", "d"} {
		cands = append(cands, Candidate{Address: inter.FakeAddress(name), AIScore: 50, Reputation: 50})
	}
	parent := common.HexToHash("0x01")
	seed := Seed(parent, 7)
	assert.Equal(t, seed, Seed(parent, 7))
	assert.NotEqual(t, seed, Seed(parent, 8))

	first, _ := NewValidatorSet(cands).Select(seed)
	reversed := []Candidate{cands[3], cands[2], cands[1], cands[0]}
	second, _ := NewValidatorSet(reversed).Select(seed)
	assert.Equal(t, first.Address, second.Address, "input order does not matter")

	_, ok := NewValidatorSet(nil).Select(seed)
	assert.False(t, ok)
}
