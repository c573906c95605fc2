// Package node assembles a NeuraX node: the ledger, the tokenomics engines,
// the transaction processor and the block producer, built from one genesis.
//
// Node is the process context object. Every component is created by New and
// owned by the node; callers reach them through the node's methods or the
// exported fields. Domain events are published on an in-process bus:
//
//	n.Subscribe(node.TopicBlockSealed, func(b *inter.Block) { ... })
package node

import (
	"context"

	evbus "github.com/asaskevich/EventBus"
	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-neurax/aireward"
	"github.com/rony4d/go-neurax/consensus"
	"github.com/rony4d/go-neurax/governance"
	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/ledger"
	"github.com/rony4d/go-neurax/liquidity"
	"github.com/rony4d/go-neurax/metrics"
	"github.com/rony4d/go-neurax/neurax"
	"github.com/rony4d/go-neurax/neurax/genesis"
	"github.com/rony4d/go-neurax/staking"
	"github.com/rony4d/go-neurax/txproc"
)

// Event topics.
const (
	TopicTxApplied         = "tx:applied"         // *inter.Receipt
	TopicBlockSealed       = "block:sealed"       // *inter.Block
	TopicProposalFinalized = "proposal:finalized" // governance.Proposal, on every status change at tick
	TopicFraudFlagged      = "fraud:flagged"      // *inter.Receipt
	TopicStakeReleased     = "stake:released"     // staking.Position
)

// Config selects the network and the node's own role in it.
type Config struct {
	Genesis genesis.Genesis
	// Validator is the address this node seals as. Empty means the node only
	// draws among the genesis and AI validators.
	Validator inter.Address
	// TxHistoryLimit caps transaction listing pages.
	TxHistoryLimit int
}

// Node is a running NeuraX node.
type Node struct {
	cfg   Config
	rules neurax.Rules
	clock clock.Clock
	log   logrus.FieldLogger
	bus   evbus.Bus

	Ledger     *ledger.Ledger
	Liquidity  *liquidity.Engine
	Staking    *staking.Engine
	Governance *governance.Engine
	AI         *aireward.Engine
	Processor  *txproc.Processor
	Chain      *consensus.Chain
	Metrics    *metrics.Metrics
}

// New builds a node from cfg.Genesis. m may be nil, in which case the node
// keeps a private registry nobody serves.
func New(cfg Config, m *metrics.Metrics, clk clock.Clock, log logrus.FieldLogger) (*Node, error) {
	g := cfg.Genesis
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		m = metrics.New()
	}
	rules := g.Rules
	n := &Node{
		cfg:     cfg,
		rules:   rules,
		clock:   clk,
		log:     log,
		bus:     evbus.New(),
		Ledger:  ledger.New(clk, log.WithField("module", "ledger")),
		Metrics: m,
	}

	for _, a := range g.Allocations {
		if err := n.Ledger.Credit(a.Address, a.Amount); err != nil {
			return nil, err
		}
	}
	for _, v := range g.Validators {
		n.Ledger.Ensure(v)
	}
	if cfg.Validator != "" {
		n.Ledger.Ensure(cfg.Validator)
	}

	assets := liquidity.NewAssetBook()
	for _, a := range g.Assets {
		if err := assets.Credit(a.Asset, a.Address, a.Amount); err != nil {
			return nil, err
		}
	}
	n.Liquidity = liquidity.NewEngine(liquidity.Config{
		Native:         rules.Token.Symbol,
		DefaultFeeRate: rules.Liquidity.DefaultFeeRate,
		RatioTolerance: rules.Liquidity.RatioTolerance,
	}, n.Ledger, assets, clk, log.WithField("module", "liquidity"))
	for _, p := range g.Pools {
		n.Ledger.Ensure(p.Provider)
		_, err := n.Liquidity.Seed(liquidity.PoolSpec{
			ID:       p.ID,
			TokenA:   p.TokenA,
			TokenB:   p.TokenB,
			ReserveA: p.ReserveA,
			ReserveB: p.ReserveB,
			FeeRate:  p.FeeRate,
			Provider: p.Provider,
		})
		if err != nil {
			return nil, err
		}
	}

	n.Staking = staking.NewEngine(rules.Staking, ledger.NewFund("staking", g.RewardPools.Staking), clk, log.WithField("module", "staking"))
	n.Governance = governance.NewEngine(rules.Governance, ledger.NewFund("governance", g.RewardPools.Governance), clk, log.WithField("module", "governance"))
	n.AI = aireward.NewEngine(rules.AI, ledger.NewFund("ai", g.RewardPools.AI), clk, log.WithField("module", "aireward"))

	n.Processor = txproc.New(txproc.Config{
		Economy:      rules.Economy,
		GlobalSlots:  rules.TxPool.GlobalSlots,
		HistoryLimit: cfg.TxHistoryLimit,
	}, n.Ledger, txproc.Engines{
		Staking:    n.Staking,
		Governance: n.Governance,
		AI:         n.AI,
	}, clk, log.WithField("module", "txproc"))

	chain, err := consensus.New(consensus.Config{
		Blocks:      rules.Blocks,
		Validator:   cfg.Validator,
		Genesis:     g.Validators,
		GenesisTime: g.Time,
	}, n.Ledger, n.Processor, n.AI, clk, log.WithField("module", "consensus"))
	if err != nil {
		return nil, err
	}
	n.Chain = chain
	n.Chain.BeforeSeal(n.maintain)

	n.Metrics.Accounts.Set(float64(n.Ledger.Len()))
	n.observePools()
	n.Metrics.Height.Set(0)
	log.WithFields(logrus.Fields{
		"network":   rules.Name,
		"genesis":   chain.Tip().Hash.Hex(),
		"accounts":  n.Ledger.Len(),
		"validator": cfg.Validator,
	}).Info("Node initialized")
	return n, nil
}

// Rules returns the network rules the node runs with.
func (n *Node) Rules() neurax.Rules {
	return n.rules
}

// Subscribe registers fn for topic. fn's argument must match the topic's
// payload type.
func (n *Node) Subscribe(topic string, fn interface{}) error {
	return n.bus.Subscribe(topic, fn)
}

// Unsubscribe removes a handler registered with Subscribe.
func (n *Node) Unsubscribe(topic string, fn interface{}) error {
	return n.bus.Unsubscribe(topic, fn)
}

// maintain runs before every seal: it closes governance windows and
// releases matured unbonding stakes.
func (n *Node) maintain() {
	for _, p := range n.Governance.Tick(n.Ledger) {
		n.bus.Publish(TopicProposalFinalized, p)
	}
	for _, p := range n.Staking.ReleaseMatured(n.Ledger) {
		n.bus.Publish(TopicStakeReleased, p)
	}
}

// Submit applies a transaction request and queues it for the next block.
func (n *Node) Submit(r txproc.Request) (*inter.Receipt, error) {
	receipt, err := n.Processor.Submit(r)
	if err != nil {
		n.Metrics.ObserveRejection(err)
		return nil, err
	}
	n.Metrics.ObserveReceipt(receipt)
	n.Metrics.Pending.Set(float64(n.Processor.PendingCount()))
	n.Metrics.Accounts.Set(float64(n.Ledger.Len()))
	n.observePools()
	n.bus.Publish(TopicTxApplied, receipt)
	if receipt.FraudFlagged {
		n.bus.Publish(TopicFraudFlagged, receipt)
	}
	return receipt, nil
}

// Seal seals the pending transactions into a block immediately.
func (n *Node) Seal() (*inter.Block, error) {
	b, err := n.Chain.Seal()
	if err != nil {
		return nil, err
	}
	n.sealed(b)
	return b, nil
}

// Produce seals a block if the producer cadence calls for one.
func (n *Node) Produce() (*inter.Block, bool, error) {
	b, ok, err := n.Chain.Produce()
	if err != nil || !ok {
		return nil, ok, err
	}
	n.sealed(b)
	return b, true, nil
}

// Run drives block production until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	return n.Chain.Run(ctx, n.sealed)
}

func (n *Node) sealed(b *inter.Block) {
	n.Metrics.ObserveBlock(b, n.Processor.PendingCount())
	n.Metrics.Accounts.Set(float64(n.Ledger.Len()))
	n.observePools()
	n.bus.Publish(TopicBlockSealed, b)
}

func (n *Node) observePools() {
	n.Metrics.SetPool(n.Staking.Pool().Name(), n.Staking.Pool().Balance())
	n.Metrics.SetPool(n.Governance.Pool().Name(), n.Governance.Pool().Balance())
	n.Metrics.SetPool(n.AI.Pool().Name(), n.AI.Pool().Balance())
}

// EstimateFee returns the fee for a category or transaction type name and an
// amount. Unknown names fall back to the transfer fee.
func (n *Node) EstimateFee(category string, amount decimal.Decimal) decimal.Decimal {
	return n.rules.Economy.EstimateFee(neurax.ParseFeeCategory(category), amount)
}
