package inter

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(s string) common.Hash {
	return crypto.Keccak256Hash([]byte(s))
}

func pair(a, b common.Hash) common.Hash {
	return crypto.Keccak256Hash(a.Bytes(), b.Bytes())
}

func TestMerkleRoot(t *testing.T) {
	a, b, c := leaf("a"), leaf("b"), leaf("c")

	tests := []struct {
		name   string
		leaves []common.Hash
		want   common.Hash
	}{
		{"empty", nil, common.Hash{}},
		{"single", []common.Hash{a}, a},
		{"pair", []common.Hash{a, b}, pair(a, b)},
		{"odd duplicates last", []common.Hash{a, b, c}, pair(pair(a, b), pair(c, c))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MerkleRoot(tt.leaves))
		})
	}

	t.Run("input untouched", func(t *testing.T) {
		leaves := []common.Hash{a, b, c}
		MerkleRoot(leaves)
		assert.Equal(t, []common.Hash{a, b, c}, leaves)
	})

	t.Run("order sensitive", func(t *testing.T) {
		assert.NotEqual(t, MerkleRoot([]common.Hash{a, b}), MerkleRoot([]common.Hash{b, a}))
	})
}

func TestBlockSeal(t *testing.T) {
	tx := sampleTx()
	require.NoError(t, tx.Seal())

	genesis := &Block{Height: 0, PreviousHash: GenesisPreviousHash, Validator: FakeAddress("v"), AIValidationScore: 50}
	require.NoError(t, genesis.Seal())
	assert.Equal(t, common.Hash{}, genesis.MerkleRoot)

	next := &Block{
		Height:            1,
		PreviousHash:      genesis.Hash,
		Timestamp:         tx.Timestamp,
		Validator:         FakeAddress("v"),
		AIValidationScore: 61.25,
		Transactions:      Transactions{tx},
	}
	require.NoError(t, next.Seal())
	assert.Equal(t, tx.Hash, next.MerkleRoot)
	assert.NotEqual(t, genesis.Hash, next.Hash)

	h, err := next.ComputeHash()
	require.NoError(t, err)
	assert.Equal(t, next.Hash, h)

	next.AIValidationScore = 61.26
	h, err = next.ComputeHash()
	require.NoError(t, err)
	assert.NotEqual(t, next.Hash, h)

	assert.Greater(t, next.EstimateSize(), genesis.EstimateSize())
}
