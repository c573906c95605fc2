package node

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-neurax/aireward"
	"github.com/rony4d/go-neurax/consensus"
	"github.com/rony4d/go-neurax/governance"
	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/liquidity"
	"github.com/rony4d/go-neurax/staking"
	"github.com/rony4d/go-neurax/txproc"
)

// Supply breaks the token supply down by where the coins sit.
type Supply struct {
	Balances       decimal.Decimal `json:"account_balances"`
	Staked         decimal.Decimal `json:"staked"`
	Locked         decimal.Decimal `json:"locked"`
	RewardPools    decimal.Decimal `json:"reward_pools"`
	NativeReserves decimal.Decimal `json:"liquidity_reserves"`
	Escrow         decimal.Decimal `json:"pending_fees"`
	Unallocated    decimal.Decimal `json:"unallocated"`
	// Total is the sum of every place except Staked and Locked, which are
	// reservations inside Balances.
	Total decimal.Decimal `json:"total_supply"`
	// Circulating is what accounts can spend right now.
	Circulating decimal.Decimal `json:"circulating_supply"`
}

// Supply accounts for every coin. Total equals the configured total supply
// whenever no block is being sealed.
func (n *Node) Supply() Supply {
	g := n.cfg.Genesis
	s := Supply{
		RewardPools:    n.Staking.Pool().Balance().Add(n.Governance.Pool().Balance()).Add(n.AI.Pool().Balance()),
		NativeReserves: n.Liquidity.NativeReserves(),
		Escrow:         n.Processor.Escrow(),
		Unallocated:    n.rules.Token.TotalSupply.Sub(g.Allocated()).Sub(g.RewardPools.Total()).Sub(g.NativeReserves()),
	}
	s.Balances, s.Staked, s.Locked = n.Ledger.Totals()
	s.Total = s.Balances.Add(s.RewardPools).Add(s.NativeReserves).Add(s.Escrow).Add(s.Unallocated)
	s.Circulating = s.Balances.Sub(s.Staked).Sub(s.Locked)
	return s
}

// DistributionEntry is one share of the supply split.
type DistributionEntry struct {
	Name    string          `json:"name"`
	Percent decimal.Decimal `json:"percentage"`
	Amount  decimal.Decimal `json:"amount"`
	Vesting string          `json:"vesting,omitempty"`
}

// TokenInfo describes the native token.
type TokenInfo struct {
	Name         string              `json:"name"`
	Symbol       string              `json:"symbol"`
	Decimals     uint8               `json:"decimals"`
	TotalSupply  decimal.Decimal     `json:"total_supply"`
	Circulating  decimal.Decimal     `json:"circulating_supply"`
	Distribution []DistributionEntry `json:"distribution"`
}

// TokenInfo returns the token definition and its genesis distribution.
func (n *Node) TokenInfo() TokenInfo {
	t := n.rules.Token
	info := TokenInfo{
		Name:        t.Name,
		Symbol:      t.Symbol,
		Decimals:    t.Decimals,
		TotalSupply: t.TotalSupply,
		Circulating: n.Supply().Circulating,
	}
	for _, s := range n.cfg.Genesis.Distribution {
		info.Distribution = append(info.Distribution, DistributionEntry{
			Name:    s.Name,
			Percent: s.Percent,
			Amount:  s.Amount(t.TotalSupply),
			Vesting: s.Vesting,
		})
	}
	return info
}

// NetworkStats is the chain summary plus supply figures.
type NetworkStats struct {
	consensus.Info
	NetworkID   uint64          `json:"network_id"`
	Network     string          `json:"network"`
	Accounts    int             `json:"total_accounts"`
	TotalSupply decimal.Decimal `json:"total_supply"`
	Circulating decimal.Decimal `json:"circulating_supply"`
	Processed   txproc.Stats    `json:"processed"`
}

// NetworkStats returns the network summary.
func (n *Node) NetworkStats() NetworkStats {
	s := n.Supply()
	return NetworkStats{
		Info:        n.Chain.Info(),
		NetworkID:   n.rules.NetworkID,
		Network:     n.rules.Name,
		Accounts:    n.Ledger.Len(),
		TotalSupply: s.Total,
		Circulating: s.Circulating,
		Processed:   n.Processor.Stats(),
	}
}

// StakingInfo returns the staking summary.
func (n *Node) StakingInfo() staking.Info {
	return n.Staking.Info()
}

// Positions returns the stake positions of addr.
func (n *Node) Positions(addr inter.Address) []staking.Position {
	return n.Staking.PositionsOf(addr)
}

// GovernanceInfo returns the governance summary.
func (n *Node) GovernanceInfo() governance.Info {
	return n.Governance.Info()
}

// ProposalView is a proposal with its vote split.
type ProposalView struct {
	governance.Proposal
	VotesTotal decimal.Decimal `json:"total_votes"`
	ForPct     float64         `json:"for_percentage"`
	AgainstPct float64         `json:"against_percentage"`
}

// Proposals lists proposals, optionally filtered by status name.
func (n *Node) Proposals(status string, req inter.PageRequest) ([]ProposalView, inter.Page, error) {
	var filter *governance.Status
	if status != "" {
		st, err := governance.ParseStatus(status)
		if err != nil {
			return nil, inter.Page{}, err
		}
		filter = &st
	}
	ps, page := n.Governance.Proposals(filter, req)
	out := make([]ProposalView, 0, len(ps))
	for _, p := range ps {
		v := ProposalView{Proposal: p, VotesTotal: p.TotalVotes()}
		v.ForPct, v.AgainstPct = p.Percentages()
		out = append(out, v)
	}
	return out, page, nil
}

// AIRewardsInfo is the AI reward summary plus block score statistics.
type AIRewardsInfo struct {
	aireward.Info
	Blocks consensus.AIStats `json:"block_stats"`
}

// AIRewardsInfo returns the AI reward summary.
func (n *Node) AIRewardsInfo() AIRewardsInfo {
	return AIRewardsInfo{
		Info:   n.AI.Info(),
		Blocks: n.Chain.AIValidationStats(n.rules.AI.FraudThreshold),
	}
}

// ValidatorStats returns the AI validation record summary of addr.
func (n *Node) ValidatorStats(addr inter.Address) aireward.Stats {
	return n.AI.Stats(addr)
}

// PoolView is a liquidity pool with derived figures.
type PoolView struct {
	liquidity.Pool
	FeePercent    decimal.Decimal `json:"fee_rate_percent"`
	TotalValue    decimal.Decimal `json:"tvl"`
	ProviderCount int             `json:"provider_count"`
}

// LiquidityPools lists every pool.
func (n *Node) LiquidityPools() []PoolView {
	pools := n.Liquidity.Pools()
	out := make([]PoolView, 0, len(pools))
	for _, p := range pools {
		out = append(out, PoolView{
			Pool:          p,
			FeePercent:    p.FeeRate.Mul(decimal.NewFromInt(100)),
			TotalValue:    p.TVL(),
			ProviderCount: len(p.Providers),
		})
	}
	return out
}

// Quote prices a swap without executing it.
func (n *Node) Quote(poolID, tokenIn string, amountIn decimal.Decimal) (decimal.Decimal, error) {
	return n.Liquidity.Quote(poolID, tokenIn, amountIn)
}

// Swap trades amountIn of tokenIn through a pool.
func (n *Node) Swap(trader inter.Address, poolID, tokenIn string, amountIn, minOut decimal.Decimal) (liquidity.SwapResult, error) {
	res, err := n.Liquidity.Swap(trader, poolID, tokenIn, amountIn, minOut)
	if err != nil {
		return liquidity.SwapResult{}, err
	}
	n.Metrics.Swaps.WithLabelValues(poolID).Inc()
	n.log.WithFields(logrus.Fields{"pool": poolID, "in": res.AmountIn, "out": res.AmountOut, "trader": trader}).Debug("Swap settled")
	return res, nil
}

// AddLiquidity deposits both tokens of a pool and returns the minted shares.
func (n *Node) AddLiquidity(provider inter.Address, poolID string, amountA, amountB decimal.Decimal) (decimal.Decimal, error) {
	return n.Liquidity.AddLiquidity(provider, poolID, amountA, amountB)
}

// RemoveLiquidity burns shares and returns the withdrawn amounts.
func (n *Node) RemoveLiquidity(provider inter.Address, poolID string, shares decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	return n.Liquidity.RemoveLiquidity(provider, poolID, shares)
}

// Transaction looks a transaction up by hash.
func (n *Node) Transaction(hash common.Hash) (txproc.Located, error) {
	return n.Processor.Transaction(hash)
}

// Transactions lists the transactions of addr, newest first.
func (n *Node) Transactions(addr inter.Address, req inter.PageRequest) (inter.Transactions, inter.Page) {
	return n.Processor.Transactions(addr, req)
}

// Block returns the block at height.
func (n *Node) Block(height idx.Block) (*inter.Block, error) {
	return n.Chain.BlockByHeight(height)
}

// BlockByHash returns the block with hash h.
func (n *Node) BlockByHash(h common.Hash) (*inter.Block, error) {
	return n.Chain.BlockByHash(h)
}

// Blocks lists blocks newest first.
func (n *Node) Blocks(req inter.PageRequest) ([]*inter.Block, inter.Page) {
	return n.Chain.Blocks(req)
}
