package txproc

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/inter"
)

// reserve claims a pending slot for tx and escrows its fee. It runs inside
// the ledger update of tx.
func (p *Processor) reserve(tx *inter.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.GlobalSlots > 0 && len(p.pending)+p.reserved >= p.cfg.GlobalSlots {
		return inter.Errorf(inter.KindCapacity, "tx.queue", "pending queue full (%d slots)", p.cfg.GlobalSlots)
	}
	p.reserved++
	p.escrow = p.escrow.Add(tx.Fee)
	return nil
}

// release undoes reserve for a transaction that failed to apply.
func (p *Processor) release(tx *inter.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reserved--
	p.escrow = p.escrow.Sub(tx.Fee)
}

// enqueue turns the reservation of an applied transaction into a pending
// entry and records it in the transaction log.
func (p *Processor) enqueue(tx *inter.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reserved--
	p.pending = append(p.pending, tx)
	p.txs[tx.Hash] = tx
	p.order = append(p.order, tx)
	p.byAddr[tx.From] = append(p.byAddr[tx.From], tx)
	if tx.To != "" && tx.To != tx.From {
		p.byAddr[tx.To] = append(p.byAddr[tx.To], tx)
	}
}

// Take removes up to max of the oldest pending transactions and hands their
// escrowed fees to the caller. A non-positive max takes everything.
func (p *Processor) Take(max int) (inter.Transactions, decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.pending)
	if max > 0 && n > max {
		n = max
	}
	taken := make(inter.Transactions, n)
	copy(taken, p.pending[:n])
	p.pending = append(p.pending[:0:0], p.pending[n:]...)

	fees := decimal.Zero
	for _, tx := range taken {
		fees = fees.Add(tx.Fee)
	}
	p.escrow = p.escrow.Sub(fees)
	return taken, fees
}

// Restore puts transactions returned by Take back at the head of the queue,
// together with their fees.
func (p *Processor) Restore(txs inter.Transactions) {
	if len(txs) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(append(inter.Transactions(nil), txs...), p.pending...)
	for _, tx := range txs {
		p.escrow = p.escrow.Add(tx.Fee)
	}
}

// Included records the block height the transactions were sealed into.
func (p *Processor) Included(txs inter.Transactions, height idx.Block) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tx := range txs {
		p.blockOf[tx.Hash] = height
	}
}

// Pending returns the queued transactions, oldest first.
func (p *Processor) Pending() inter.Transactions {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append(inter.Transactions(nil), p.pending...)
}

// PendingCount returns the queue length.
func (p *Processor) PendingCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pending)
}

// Escrow returns the fees held for pending transactions.
func (p *Processor) Escrow() decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.escrow
}

// Located is a transaction with its inclusion status.
type Located struct {
	*inter.Transaction
	Included bool      `json:"included"`
	Block    idx.Block `json:"block_height"`
}

// Transaction looks up an applied transaction by hash.
func (p *Processor) Transaction(hash common.Hash) (Located, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tx, ok := p.txs[hash]
	if !ok {
		return Located{}, inter.Errorf(inter.KindNotFound, "tx.get", "transaction %s not found", hash.Hex())
	}
	height, included := p.blockOf[hash]
	return Located{Transaction: tx, Included: included, Block: height}, nil
}

// Transactions lists applied transactions newest-first, optionally only
// those involving addr.
func (p *Processor) Transactions(addr inter.Address, req inter.PageRequest) (inter.Transactions, inter.Page) {
	req = req.Normalize(20, p.cfg.HistoryLimit)
	p.mu.RLock()
	defer p.mu.RUnlock()
	src := p.order
	if addr != "" {
		src = p.byAddr[addr]
	}
	start, end, page := req.Bounds(len(src))
	out := make(inter.Transactions, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, src[len(src)-1-i])
	}
	return out, page
}

// TransactionCount returns the number of applied transactions.
func (p *Processor) TransactionCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}

// CountOf returns the number of applied transactions involving addr.
func (p *Processor) CountOf(addr inter.Address) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byAddr[addr])
}

// Stats returns a copy of the processing counters.
func (p *Processor) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st := Stats{
		Applied:  p.stats.Applied,
		Rejected: make(map[inter.ErrorKind]uint64, len(p.stats.Rejected)),
		ByType:   make(map[inter.TxType]uint64, len(p.stats.ByType)),
	}
	for k, v := range p.stats.Rejected {
		st.Rejected[k] = v
	}
	for k, v := range p.stats.ByType {
		st.ByType[k] = v
	}
	return st
}
