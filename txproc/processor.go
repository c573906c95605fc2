// Package txproc applies typed transactions to the ledger and the tokenomics
// engines.
//
// Key concepts:
//   - Validation runs in two stages. Structural checks need no state;
//     semantic checks consult the ledger, the engines and the transaction log.
//   - A transaction touches the ledger through exactly one ledger.Update
//     holding every involved account, so it either commits in full or leaves
//     nothing behind. The fee is debited and a pending slot reserved before
//     the engine runs, which makes the engine the last step that can fail.
//   - Applied transactions wait in the pending queue, together with their
//     escrowed fees, until the block producer takes them.
//
// Usage:
//
//	p := txproc.New(cfg, l, txproc.Engines{Staking: st, Governance: gov, AI: ai}, clk, log)
//	receipt, err := p.Submit(txproc.Transfer(from, to, amount, ""))
package txproc

import (
	"sync"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-neurax/aireward"
	"github.com/rony4d/go-neurax/governance"
	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/ledger"
	"github.com/rony4d/go-neurax/neurax"
	"github.com/rony4d/go-neurax/staking"
)

// Config holds the processor parameters.
type Config struct {
	Economy neurax.EconomyRules
	// GlobalSlots bounds the pending queue.
	GlobalSlots int
	// HistoryLimit caps the page size of transaction listings.
	HistoryLimit int
}

// DefaultHistoryLimit is the listing cap used when Config leaves it unset.
const DefaultHistoryLimit = 100

// Engines are the downstream engines transactions are dispatched to.
type Engines struct {
	Staking    *staking.Engine
	Governance *governance.Engine
	AI         *aireward.Engine
}

// Stats counts processed transactions.
type Stats struct {
	Applied  uint64                     `json:"applied"`
	Rejected map[inter.ErrorKind]uint64 `json:"rejected"`
	ByType   map[inter.TxType]uint64    `json:"by_type"`
}

// Processor validates and applies transactions.
type Processor struct {
	cfg     Config
	ledger  *ledger.Ledger
	engines Engines
	clock   clock.Clock
	log     logrus.FieldLogger

	mu       sync.RWMutex
	pending  []*inter.Transaction
	reserved int
	escrow   decimal.Decimal
	txs      map[common.Hash]*inter.Transaction
	order    []*inter.Transaction
	byAddr   map[inter.Address][]*inter.Transaction
	blockOf  map[common.Hash]idx.Block
	stats    Stats
}

// New creates a processor over the ledger and engines.
func New(cfg Config, l *ledger.Ledger, engines Engines, clk clock.Clock, log logrus.FieldLogger) *Processor {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	return &Processor{
		cfg:     cfg,
		ledger:  l,
		engines: engines,
		clock:   clk,
		log:     log,
		escrow:  decimal.Zero,
		txs:     make(map[common.Hash]*inter.Transaction),
		byAddr:  make(map[inter.Address][]*inter.Transaction),
		blockOf: make(map[common.Hash]idx.Block),
		stats: Stats{
			Rejected: make(map[inter.ErrorKind]uint64),
			ByType:   make(map[inter.TxType]uint64),
		},
	}
}

// EstimateFee returns the fee a request would pay, without validating it.
func (p *Processor) EstimateFee(t inter.TxType, amount decimal.Decimal) decimal.Decimal {
	return p.cfg.Economy.FeeFor(t, amount)
}

// Submit validates r, applies it and queues it for inclusion. On any error
// no state has changed.
func (p *Processor) Submit(r Request) (*inter.Receipt, error) {
	receipt, err := p.submit(r)
	p.mu.Lock()
	if err != nil {
		p.stats.Rejected[inter.KindOf(err)]++
	} else {
		p.stats.Applied++
		p.stats.ByType[r.Type]++
	}
	p.mu.Unlock()
	if err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{"type": r.Type, "from": r.From}).Debug("Transaction rejected")
		return nil, err
	}
	p.log.WithFields(logrus.Fields{"tx": receipt.Tx.Hash.Hex(), "type": r.Type, "from": r.From, "amount": r.Amount}).Info("Transaction applied")
	return receipt, nil
}

func (p *Processor) submit(r Request) (*inter.Receipt, error) {
	r, err := r.check()
	if err != nil {
		return nil, err
	}
	if err := p.precheck(r); err != nil {
		return nil, err
	}

	tx := &inter.Transaction{
		Type:    r.Type,
		From:    r.From,
		To:      r.To,
		Amount:  r.Amount,
		Fee:     p.cfg.Economy.FeeFor(r.Type, r.Amount),
		Payload: r.Payload,
		Status:  inter.TxPending,
	}
	receipt := &inter.Receipt{Tx: tx, Reward: decimal.Zero}

	err = p.ledger.Update([]inter.Address{r.From, r.To}, func(txn *ledger.Txn) error {
		nonce, err := txn.NextNonce(r.From)
		if err != nil {
			return err
		}
		tx.Nonce = nonce
		tx.Timestamp = txn.Now()
		if err := txn.Debit(r.From, tx.Fee); err != nil {
			return err
		}
		if err := tx.Seal(); err != nil {
			return err
		}
		if err := p.reserve(tx); err != nil {
			return err
		}
		if err := p.dispatch(txn, tx, receipt); err != nil {
			p.release(tx)
			return err
		}
		// Queued under the sender's lock so pending order follows nonces.
		tx.Status = inter.TxApplied
		p.enqueue(tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// precheck performs the semantic checks that need no account lock.
func (p *Processor) precheck(r Request) error {
	const op = "tx.validate"
	if !p.ledger.Exists(r.From) {
		return inter.Errorf(inter.KindNotFound, op, "sender %s not found", r.From)
	}
	if r.Type == inter.TxTransfer && !p.ledger.Exists(r.To) {
		return inter.Errorf(inter.KindNotFound, op, "recipient %s not found", r.To)
	}
	if v, ok := r.Payload.(inter.AIValidationPayload); ok {
		p.mu.RLock()
		_, known := p.txs[v.ValidatedTx]
		p.mu.RUnlock()
		if !known {
			return inter.Errorf(inter.KindNotFound, op, "validated transaction %s not found", v.ValidatedTx.Hex())
		}
	}
	return nil
}

// dispatch hands the transaction to its engine. The switch is exhaustive
// over the payload kinds.
func (p *Processor) dispatch(txn *ledger.Txn, tx *inter.Transaction, receipt *inter.Receipt) error {
	switch pl := tx.Payload.(type) {
	case inter.TransferPayload:
		if err := txn.Debit(tx.From, tx.Amount); err != nil {
			return err
		}
		return txn.Credit(tx.To, tx.Amount)
	case inter.StakePayload:
		pos, err := p.engines.Staking.Stake(txn, tx.From, tx.Amount, pl.LockPeriod)
		if err != nil {
			return err
		}
		receipt.PositionID = pos.ID
	case inter.UnstakePayload:
		pos, err := p.engines.Staking.Unstake(txn, tx.From, pl.PositionID)
		if err != nil {
			return err
		}
		receipt.PositionID = pos.ID
	case inter.ClaimRewardsPayload:
		paid, err := p.engines.Staking.Claim(txn, tx.From, pl.PositionID)
		if err != nil {
			return err
		}
		receipt.PositionID = pl.PositionID
		receipt.Reward = paid
	case inter.AIValidationPayload:
		res, err := p.engines.AI.Validate(txn, tx.From, tx.Hash, pl)
		if err != nil {
			return err
		}
		receipt.Reward = res.Reward
		receipt.FraudFlagged = res.Fraud
	case inter.ProposalPayload:
		prop, err := p.engines.Governance.Create(txn, tx.From, pl.Title, pl.Description, pl.Data)
		if err != nil {
			return err
		}
		receipt.ProposalID = prop.ID
	case inter.VotePayload:
		v, err := p.engines.Governance.Vote(txn, tx.From, pl.ProposalID, pl.Choice, pl.Power)
		if err != nil {
			return err
		}
		receipt.ProposalID = pl.ProposalID
		receipt.Reward = v.Reward
	default:
		return inter.Errorf(inter.KindInternal, "tx.dispatch", "no engine for %s", tx.Type)
	}
	return nil
}
