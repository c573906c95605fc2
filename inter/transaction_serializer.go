package inter

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

/*
	This file implements the canonical serialization used to derive
	transaction hashes. Every field that identifies a transaction is flattened
	into an RLP list and hashed with Keccak256:

	[type, from, to, amount, fee, nonce, [payload fields...], timestamp]

	Decimal amounts are encoded as their canonical decimal strings so that
	"10", "10.0" and "10.00" hash identically. The status is not part of the
	hash: the same content always maps to the same identifier.
*/

// txEnvelope is the RLP shape of a transaction for hashing.
type txEnvelope struct {
	Type    uint8
	From    string
	To      string
	Amount  string
	Fee     string
	Nonce   uint64
	Payload []string
	Time    uint64
}

func envelopeOf(tx *Transaction) txEnvelope {
	env := txEnvelope{
		Type:   uint8(tx.Type),
		From:   string(tx.From),
		To:     string(tx.To),
		Amount: tx.Amount.String(),
		Fee:    tx.Fee.String(),
		Nonce:  tx.Nonce,
		Time:   uint64(tx.Timestamp),
	}
	if tx.Payload != nil {
		env.Payload = tx.Payload.fields()
	}
	if env.Payload == nil {
		env.Payload = []string{}
	}
	return env
}

// MarshalCanonical returns the RLP encoding the transaction hash is computed
// over.
func (tx *Transaction) MarshalCanonical() ([]byte, error) {
	return rlp.EncodeToBytes(envelopeOf(tx))
}

// ComputeHash derives the content hash of the transaction without storing it.
func (tx *Transaction) ComputeHash() (common.Hash, error) {
	raw, err := tx.MarshalCanonical()
	if err != nil {
		return common.Hash{}, Errorf(KindInternal, "tx.hash", "encode: %v", err)
	}
	return crypto.Keccak256Hash(raw), nil
}

// Seal computes and stores the transaction hash.
func (tx *Transaction) Seal() error {
	h, err := tx.ComputeHash()
	if err != nil {
		return err
	}
	tx.Hash = h
	return nil
}
