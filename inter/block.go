// Package inter defines the NeuraX data structures shared by every engine of
// the node: accounts, typed transactions, blocks and the typed errors core
// operations return. This file contains the Block structure, the unit the
// block producer appends to the chain.
//
// Key concepts:
//   - Block: an ordered batch of applied transactions sealed by one validator
//   - PreviousHash: links a block to its parent, the zero hash at height 0
//   - MerkleRoot: binary Keccak tree over the contained transaction hashes
//   - AIValidationScore: the sealing validator's AI score at seal time
//
// Usage:
//   block := &inter.Block{
//       Height:       parent.Height + 1,
//       PreviousHash: parent.Hash,
//       Timestamp:    now,
//       Validator:    validator,
//       Transactions: txs,
//   }
//   block.MerkleRoot = inter.MerkleRoot(block.Transactions.Hashes())
//   err := block.Seal()
//
// Blocks are immutable once appended: nothing in the node writes to a block
// after Seal has been called and the block handed to the chain.

package inter

import (
	"strconv"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// GenesisPreviousHash is the parent hash recorded by the block at height 0.
var GenesisPreviousHash = common.Hash{}

// Block represents a sealed block of the NeuraX chain. Unlike proof-of-work
// chains, Nonce is not the solution of a search: it records the seed the
// Proof-of-Intelligence draw used to pick Validator, which makes the choice
// reproducible from the block alone. Difficulty is informational only.
type Block struct {
	Height       idx.Block   `json:"height"`
	Hash         common.Hash `json:"hash"`
	PreviousHash common.Hash `json:"previous_hash"`
	MerkleRoot   common.Hash `json:"merkle_root"`
	Timestamp    Timestamp   `json:"timestamp"`

	// Validator is the address selected to seal this block.
	Validator Address `json:"validator"`

	// AIValidationScore is the validator's AI score, in [0,100], at the
	// instant the block was sealed.
	AIValidationScore float64 `json:"ai_validation_score"`

	Nonce      uint64 `json:"nonce"`
	Difficulty uint64 `json:"difficulty"`

	Transactions Transactions `json:"transactions"`
}

// blockHeader is the RLP shape hashed to produce Block.Hash. Transactions
// enter the hash through MerkleRoot only.
type blockHeader struct {
	Height       uint64
	PreviousHash common.Hash
	MerkleRoot   common.Hash
	Time         uint64
	Validator    string
	AIScore      string
	Nonce        uint64
	Difficulty   uint64
}

// ComputeHash derives the header hash of the block from its current fields.
func (b *Block) ComputeHash() (common.Hash, error) {
	raw, err := rlp.EncodeToBytes(blockHeader{
		Height:       uint64(b.Height),
		PreviousHash: b.PreviousHash,
		MerkleRoot:   b.MerkleRoot,
		Time:         uint64(b.Timestamp),
		Validator:    string(b.Validator),
		AIScore:      strconv.FormatFloat(b.AIValidationScore, 'g', -1, 64),
		Nonce:        b.Nonce,
		Difficulty:   b.Difficulty,
	})
	if err != nil {
		return common.Hash{}, Errorf(KindInternal, "block.hash", "encode header: %v", err)
	}
	return crypto.Keccak256Hash(raw), nil
}

// Seal recomputes MerkleRoot from the transactions and stores the header hash.
func (b *Block) Seal() error {
	b.MerkleRoot = MerkleRoot(b.Transactions.Hashes())
	h, err := b.ComputeHash()
	if err != nil {
		return err
	}
	b.Hash = h
	return nil
}

// EstimateSize returns an approximate size of the block in bytes, used for
// reporting. Each transaction is counted as its hash plus fixed fields
// (amounts as 32 bytes each, addresses as 40 bytes each, nonce and time).
func (b *Block) EstimateSize() int {
	const (
		hashBytes   = 32
		headerBytes = 3*hashBytes + AddressLen + 8*5
		txBytes     = hashBytes + 2*AddressLen + 2*32 + 8 + 8 + 1
	)
	return headerBytes + len(b.Transactions)*txBytes
}

// MerkleRoot computes the root of a binary Keccak256 tree over the given
// leaves. At every level an odd trailing node is paired with itself. A single
// leaf is its own root and an empty list yields the zero hash.
func MerkleRoot(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return common.Hash{}
	}
	level := make([]common.Hash, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]common.Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, crypto.Keccak256Hash(level[i].Bytes(), level[i+1].Bytes()))
		}
		level = next
	}
	return level[0]
}
