// Package consensus seals applied transactions into a hash-linked chain of
// blocks under the Proof-of-Intelligence validator policy.
//
// Key concepts:
//   - Candidates are the genesis validators, every address with an AI
//     record and the node's own validator. Each is weighted by its AI score
//     times its reputation score (see Weight).
//   - The draw for height h is seeded by Keccak256(parent hash, h), so the
//     chosen validator can be recomputed from the chain alone. The seed is
//     stored in Block.Nonce.
//   - Sealing takes the oldest pending transactions (at most MaxTxsPerBlock),
//     credits their escrowed fees to the validator and raises its
//     reputation. At most one seal runs at a time.
//   - Difficulty and block time are reported, never enforced.
package consensus

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-neurax/aireward"
	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/ledger"
	"github.com/rony4d/go-neurax/neurax"
	"github.com/rony4d/go-neurax/txproc"
)

// SealReputation is the reputation a validator gains per sealed block.
const SealReputation = 0.5

// Config holds the producer parameters.
type Config struct {
	Blocks neurax.BlocksRules
	// Validator is this node's own validator address. It may be empty.
	Validator inter.Address
	// Genesis lists the genesis validators.
	Genesis []inter.Address
	// GenesisTime stamps the block at height 0.
	GenesisTime inter.Timestamp
}

// Chain is the block store and producer.
type Chain struct {
	cfg    Config
	ledger *ledger.Ledger
	proc   *txproc.Processor
	ai     *aireward.Engine
	clock  clock.Clock
	log    logrus.FieldLogger

	sealMu sync.Mutex
	hooks  []func()

	mu       sync.RWMutex
	blocks   []*inter.Block
	byHash   map[common.Hash]*inter.Block
	txCount  int
	lastSeal time.Time
}

// New creates a chain holding only the genesis block.
func New(cfg Config, l *ledger.Ledger, proc *txproc.Processor, ai *aireward.Engine, clk clock.Clock, log logrus.FieldLogger) (*Chain, error) {
	c := &Chain{
		cfg:    cfg,
		ledger: l,
		proc:   proc,
		ai:     ai,
		clock:  clk,
		log:    log,
		byHash: make(map[common.Hash]*inter.Block),
	}
	genesis := &inter.Block{
		Height:            0,
		PreviousHash:      inter.GenesisPreviousHash,
		Timestamp:         cfg.GenesisTime,
		AIValidationScore: ai.Rules().DefaultScore,
		Difficulty:        cfg.Blocks.Difficulty,
		Transactions:      inter.Transactions{},
	}
	if len(cfg.Genesis) > 0 {
		genesis.Validator = cfg.Genesis[0]
	}
	if err := genesis.Seal(); err != nil {
		return nil, err
	}
	c.blocks = append(c.blocks, genesis)
	c.byHash[genesis.Hash] = genesis
	c.lastSeal = clk.Now()
	return c, nil
}

// BeforeSeal registers fn to run before every seal, inside the seal lock.
func (c *Chain) BeforeSeal(fn func()) {
	c.sealMu.Lock()
	defer c.sealMu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Candidates returns the validator set the next draw would use.
func (c *Chain) Candidates() *ValidatorSet {
	addrs := append([]inter.Address(nil), c.cfg.Genesis...)
	addrs = append(addrs, c.ai.Validators()...)
	if c.cfg.Validator != "" {
		addrs = append(addrs, c.cfg.Validator)
	}
	cands := make([]Candidate, 0, len(addrs))
	for _, addr := range addrs {
		cand := Candidate{Address: addr, AIScore: inter.DefaultAIScore, Reputation: inter.DefaultReputationScore}
		if acc, err := c.ledger.Get(addr); err == nil {
			cand.AIScore = acc.AIScore
			cand.Reputation = acc.ReputationScore
		}
		cands = append(cands, cand)
	}
	return NewValidatorSet(cands)
}

// Seal seals the pending transactions into a new block and appends it. It
// seals an empty block when nothing is pending.
func (c *Chain) Seal() (*inter.Block, error) {
	c.sealMu.Lock()
	defer c.sealMu.Unlock()
	return c.seal()
}

// Produce seals a block when transactions are pending or when the empty
// block skip period has elapsed since the last seal. It reports whether a
// block was sealed.
func (c *Chain) Produce() (*inter.Block, bool, error) {
	c.sealMu.Lock()
	defer c.sealMu.Unlock()
	c.mu.RLock()
	idle := c.clock.Since(c.lastSeal)
	c.mu.RUnlock()
	if c.proc.PendingCount() == 0 && idle < c.cfg.Blocks.MaxEmptyBlockSkipPeriod {
		return nil, false, nil
	}
	b, err := c.seal()
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Run calls Produce every block time until ctx is done. onBlock, if set,
// receives each sealed block.
func (c *Chain) Run(ctx context.Context, onBlock func(*inter.Block)) error {
	period := c.cfg.Blocks.BlockTime
	if period <= 0 {
		period = time.Second
	}
	ticker := c.clock.Ticker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b, sealed, err := c.Produce()
			if err != nil {
				c.log.WithError(err).Error("Failed to seal block")
				continue
			}
			if sealed && onBlock != nil {
				onBlock(b)
			}
		}
	}
}

// seal does the work of Seal. Seal lock held.
func (c *Chain) seal() (*inter.Block, error) {
	for _, fn := range c.hooks {
		fn()
	}

	tip := c.Tip()
	height := tip.Height + 1
	seed := Seed(tip.Hash, height)
	winner, ok := c.Candidates().Select(seed)
	if !ok {
		return nil, inter.Errorf(inter.KindInvalidState, "chain.seal", "no validator candidates")
	}

	txs, fees := c.proc.Take(c.cfg.Blocks.MaxTxsPerBlock)
	now := inter.FromTime(c.clock.Now())
	if now.Before(tip.Timestamp) {
		now = tip.Timestamp
	}

	var score float64
	c.ledger.Ensure(winner.Address)
	err := c.ledger.Update([]inter.Address{winner.Address}, func(tx *ledger.Txn) error {
		if err := tx.Credit(winner.Address, fees); err != nil {
			return err
		}
		if err := tx.AdjustReputation(winner.Address, SealReputation); err != nil {
			return err
		}
		acc, err := tx.Get(winner.Address)
		if err != nil {
			return err
		}
		score = acc.AIScore

		b := &inter.Block{
			Height:            height,
			PreviousHash:      tip.Hash,
			Timestamp:         now,
			Validator:         winner.Address,
			AIValidationScore: score,
			Nonce:             seed,
			Difficulty:        c.cfg.Blocks.Difficulty,
			Transactions:      txs,
		}
		if err := b.Seal(); err != nil {
			return err
		}
		c.append(b)
		return nil
	})
	if err != nil {
		c.proc.Restore(txs)
		return nil, err
	}

	b := c.Tip()
	c.proc.Included(txs, b.Height)
	c.log.WithFields(logrus.Fields{
		"height":    b.Height,
		"hash":      b.Hash.Hex(),
		"validator": b.Validator,
		"txs":       len(txs),
		"fees":      fees,
		"ai_score":  score,
	}).Info("New block")
	return b, nil
}

func (c *Chain) append(b *inter.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks = append(c.blocks, b)
	c.byHash[b.Hash] = b
	c.txCount += len(b.Transactions)
	c.lastSeal = c.clock.Now()
}

// Tip returns the latest block.
func (c *Chain) Tip() *inter.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks[len(c.blocks)-1]
}

// Height returns the height of the latest block.
func (c *Chain) Height() idx.Block {
	return c.Tip().Height
}

// BlockByHeight returns the block at height.
func (c *Chain) BlockByHeight(height idx.Block) (*inter.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if uint64(height) >= uint64(len(c.blocks)) {
		return nil, inter.Errorf(inter.KindNotFound, "chain.block", "no block at height %d", height)
	}
	return c.blocks[height], nil
}

// BlockByHash returns the block with the given hash.
func (c *Chain) BlockByHash(h common.Hash) (*inter.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.byHash[h]
	if !ok {
		return nil, inter.Errorf(inter.KindNotFound, "chain.block", "block %s not found", h.Hex())
	}
	return b, nil
}

// Blocks lists blocks newest-first.
func (c *Chain) Blocks(req inter.PageRequest) ([]*inter.Block, inter.Page) {
	req = req.Normalize(10, 100)
	c.mu.RLock()
	defer c.mu.RUnlock()
	start, end, page := req.Bounds(len(c.blocks))
	out := make([]*inter.Block, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, c.blocks[len(c.blocks)-1-i])
	}
	return out, page
}

// TransactionCount returns the number of sealed transactions.
func (c *Chain) TransactionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.txCount
}

// NetworkHashRate estimates the hash rate implied by the configured
// difficulty and block time: difficulty * 2^32 / block time in seconds.
func (c *Chain) NetworkHashRate() float64 {
	secs := c.cfg.Blocks.BlockTime.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(c.cfg.Blocks.Difficulty) * math.Exp2(32) / secs
}

// Info summarizes the chain.
type Info struct {
	Height           idx.Block       `json:"height"`
	LatestHash       common.Hash     `json:"latest_block_hash"`
	Blocks           int             `json:"total_blocks"`
	Transactions     int             `json:"total_transactions"`
	Pending          int             `json:"pending_transactions"`
	PendingFees      decimal.Decimal `json:"pending_fees"`
	Difficulty       uint64          `json:"difficulty"`
	BlockTime        time.Duration   `json:"block_time"`
	HashRate         float64         `json:"network_hash_rate"`
	Validators       int             `json:"validators"`
	LastBlockTime    inter.Timestamp `json:"last_block_time"`
	ConsensusVersion string          `json:"consensus"`
}

// Info returns the chain summary.
func (c *Chain) Info() Info {
	tip := c.Tip()
	c.mu.RLock()
	blocks, txs := len(c.blocks), c.txCount
	c.mu.RUnlock()
	return Info{
		Height:           tip.Height,
		LatestHash:       tip.Hash,
		Blocks:           blocks,
		Transactions:     txs,
		Pending:          c.proc.PendingCount(),
		PendingFees:      c.proc.Escrow(),
		Difficulty:       c.cfg.Blocks.Difficulty,
		BlockTime:        c.cfg.Blocks.BlockTime,
		HashRate:         c.NetworkHashRate(),
		Validators:       c.Candidates().Len(),
		LastBlockTime:    tip.Timestamp,
		ConsensusVersion: "proof-of-intelligence",
	}
}

// AIStats summarizes the AI validation scores recorded in blocks.
type AIStats struct {
	Blocks       int     `json:"total_blocks"`
	AverageScore float64 `json:"average_ai_score"`
	FraudBlocks  int     `json:"fraud_detected"`
	FraudRate    float64 `json:"fraud_rate"`
}

// AIValidationStats aggregates the sealed blocks above genesis. A block
// whose score is below fraudThreshold counts as fraud-suspect.
func (c *Chain) AIValidationStats(fraudThreshold float64) AIStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var st AIStats
	sum := 0.0
	for _, b := range c.blocks[1:] {
		st.Blocks++
		sum += b.AIValidationScore
		if b.AIValidationScore < fraudThreshold {
			st.FraudBlocks++
		}
	}
	if st.Blocks > 0 {
		st.AverageScore = sum / float64(st.Blocks)
		st.FraudRate = float64(st.FraudBlocks) / float64(st.Blocks)
	}
	return st
}

// Verify rechecks heights, parent links, merkle roots and header hashes of
// the whole chain.
func (c *Chain) Verify() error {
	const op = "chain.verify"
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, b := range c.blocks {
		if uint64(b.Height) != uint64(i) {
			return inter.Errorf(inter.KindInternal, op, "block %d has height %d", i, b.Height)
		}
		parent := inter.GenesisPreviousHash
		if i > 0 {
			parent = c.blocks[i-1].Hash
		}
		if b.PreviousHash != parent {
			return inter.Errorf(inter.KindInternal, op, "block %d does not link to its parent", i)
		}
		if root := inter.MerkleRoot(b.Transactions.Hashes()); root != b.MerkleRoot {
			return inter.Errorf(inter.KindInternal, op, "block %d merkle root mismatch", i)
		}
		h, err := b.ComputeHash()
		if err != nil {
			return err
		}
		if h != b.Hash {
			return inter.Errorf(inter.KindInternal, op, "block %d hash mismatch", i)
		}
	}
	return nil
}
