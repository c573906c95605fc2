// Package neurax defines the network rules and tokenomics parameters of a
// NeuraX network.
//
// This package provides:
//   - Network identification constants (MainNet, TestNet, FakeNet)
//   - Token parameters (name, symbol, decimals, total supply)
//   - Fee schedule and fee estimation
//   - Staking, governance and AI reward parameters
//   - Block production cadence and limits
//   - Liquidity pool and pending queue parameters
//
// The Rules type is the single source of every numeric parameter the engines
// read. Engines receive the sub-rules they need at construction time and never
// consult global state.
package neurax

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Network identifiers.
const (
	MainNetworkID uint64 = 0x4e58 // "NX"
	TestNetworkID uint64 = 0x4e59
	FakeNetworkID uint64 = 0x4e5a
)

// Year is the period staking rates are expressed over.
const Year = 365 * 24 * time.Hour

// Rules describes a NeuraX network.
type Rules struct {
	Name      string
	NetworkID uint64

	Token      TokenRules
	Economy    EconomyRules
	Staking    StakingRules
	Governance GovernanceRules
	AI         AIRules
	Blocks     BlocksRules
	Liquidity  LiquidityRules
	TxPool     TxPoolRules
}

// TokenRules describes the native token.
type TokenRules struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply decimal.Decimal
}

// EconomyRules holds the fee schedule.
type EconomyRules struct {
	// BaseFee is charged for every fee-paying transaction.
	BaseFee decimal.Decimal
	// StakeMultiplier scales the base fee of STAKE transactions.
	StakeMultiplier decimal.Decimal
	// GovernanceMultiplier scales the base fee of PROPOSAL and VOTE transactions.
	GovernanceMultiplier decimal.Decimal
	// Amounts strictly above LargeAmountThreshold pay LargeAmountRate of the
	// amount on top of the scaled base fee.
	LargeAmountThreshold decimal.Decimal
	LargeAmountRate      decimal.Decimal
}

// StakingRules configures the staking engine.
type StakingRules struct {
	// BaseRewardRate is the yearly reward per staked coin before the lock
	// multiplier is applied.
	BaseRewardRate  decimal.Decimal
	MinStake        decimal.Decimal
	MaxStake        decimal.Decimal
	UnbondingPeriod time.Duration
}

// GovernanceRules configures the proposal lifecycle.
type GovernanceRules struct {
	ProposalDelay  time.Duration // creation -> voting start
	VotingDuration time.Duration // voting start -> voting end
	ExecutionDelay time.Duration // voting end -> execution of a passed proposal

	// ProposalThreshold is the quorum: the minimum total voting power cast for
	// a proposal to pass.
	ProposalThreshold decimal.Decimal
	// ProposalDeposit is locked from the proposer until the proposal is finalized.
	ProposalDeposit decimal.Decimal
	// VotingReward is paid to each voter from the governance reward pool.
	VotingReward decimal.Decimal
}

// AIRules configures AI validation rewards and scoring.
type AIRules struct {
	BaseReward             decimal.Decimal
	FraudThreshold         float64 // validated scores below this flag fraud
	AccuracyThreshold      float64 // accuracies below this earn no reward
	HighAccuracyThreshold  float64 // accuracies above this earn the bonus
	FraudMultiplier        decimal.Decimal
	HighAccuracyMultiplier decimal.Decimal
	DefaultScore           float64
	// ScoreSmoothing is the weight of a new observation in the AI score
	// exponential moving average.
	ScoreSmoothing float64
	// HistoryLimit bounds the validation history kept per address. Zero keeps
	// everything.
	HistoryLimit int
}

// BlocksRules configures the block producer.
type BlocksRules struct {
	// BlockTime is the production cadence. It is reported and drives the
	// producer loop; it is not enforced on sealed blocks.
	BlockTime time.Duration
	// Difficulty is informational only: no work is performed.
	Difficulty     uint64
	MaxTxsPerBlock int
	// MaxEmptyBlockSkipPeriod is how long the producer may go without sealing
	// when nothing is pending.
	MaxEmptyBlockSkipPeriod time.Duration
}

// LiquidityRules configures the AMM pools.
type LiquidityRules struct {
	DefaultFeeRate decimal.Decimal
	// RatioTolerance is the relative deviation from the pool ratio an
	// add-liquidity deposit may have before it is rejected.
	RatioTolerance decimal.Decimal
}

// TxPoolRules bounds the pending-inclusion queue.
type TxPoolRules struct {
	GlobalSlots int
}

// MainNetRules returns mainnet rules.
func MainNetRules() Rules {
	return Rules{
		Name:       "main",
		NetworkID:  MainNetworkID,
		Token:      DefaultTokenRules(),
		Economy:    DefaultEconomyRules(),
		Staking:    DefaultStakingRules(),
		Governance: DefaultGovernanceRules(),
		AI:         DefaultAIRules(),
		Blocks: BlocksRules{
			BlockTime:               10 * time.Second,
			Difficulty:              4,
			MaxTxsPerBlock:          1000,
			MaxEmptyBlockSkipPeriod: 1 * time.Minute,
		},
		Liquidity: DefaultLiquidityRules(),
		TxPool:    TxPoolRules{GlobalSlots: 4096},
	}
}

// TestNetRules returns testnet rules. They match mainnet except for the
// network identity.
func TestNetRules() Rules {
	r := MainNetRules()
	r.Name = "test"
	r.NetworkID = TestNetworkID
	return r
}

// FakeNetRules returns rules for local development networks: fast blocks,
// short governance phases, small minimum stake.
func FakeNetRules() Rules {
	r := MainNetRules()
	r.Name = "fake"
	r.NetworkID = FakeNetworkID
	r.Staking.MinStake = decimal.NewFromInt(1)
	r.Staking.UnbondingPeriod = 1 * time.Hour
	r.Governance = FakeGovernanceRules()
	r.Blocks = BlocksRules{
		BlockTime:               1 * time.Second,
		Difficulty:              1,
		MaxTxsPerBlock:          500,
		MaxEmptyBlockSkipPeriod: 3 * time.Second,
	}
	r.TxPool.GlobalSlots = 1024
	return r
}

// DefaultTokenRules returns the NX token definition.
func DefaultTokenRules() TokenRules {
	return TokenRules{
		Name:        "NeuraX",
		Symbol:      "NX",
		Decimals:    18,
		TotalSupply: decimal.NewFromInt(1_000_000_000),
	}
}

// DefaultEconomyRules returns the default fee schedule.
func DefaultEconomyRules() EconomyRules {
	return EconomyRules{
		BaseFee:              decimal.NewFromInt(1),
		StakeMultiplier:      decimal.NewFromInt(2),
		GovernanceMultiplier: decimal.RequireFromString("1.5"),
		LargeAmountThreshold: decimal.NewFromInt(10000),
		LargeAmountRate:      decimal.RequireFromString("0.0001"), // 0.01%
	}
}

// DefaultStakingRules returns the default staking parameters.
func DefaultStakingRules() StakingRules {
	return StakingRules{
		BaseRewardRate:  decimal.RequireFromString("0.12"), // 12% APY
		MinStake:        decimal.NewFromInt(100),
		MaxStake:        decimal.NewFromInt(10_000_000),
		UnbondingPeriod: 7 * 24 * time.Hour,
	}
}

// DefaultGovernanceRules returns the default proposal lifecycle.
func DefaultGovernanceRules() GovernanceRules {
	return GovernanceRules{
		ProposalDelay:     24 * time.Hour,
		VotingDuration:    7 * 24 * time.Hour,
		ExecutionDelay:    2 * 24 * time.Hour,
		ProposalThreshold: decimal.NewFromInt(1000),
		ProposalDeposit:   decimal.NewFromInt(100),
		VotingReward:      decimal.NewFromInt(1),
	}
}

// FakeGovernanceRules shortens every phase to minutes.
func FakeGovernanceRules() GovernanceRules {
	cfg := DefaultGovernanceRules()
	cfg.ProposalDelay = 1 * time.Minute
	cfg.VotingDuration = 10 * time.Minute
	cfg.ExecutionDelay = 2 * time.Minute
	cfg.ProposalThreshold = decimal.NewFromInt(10)
	return cfg
}

// DefaultAIRules returns the default AI reward parameters.
func DefaultAIRules() AIRules {
	return AIRules{
		BaseReward:             decimal.NewFromInt(10),
		FraudThreshold:         50,
		AccuracyThreshold:      0.6,
		HighAccuracyThreshold:  0.9,
		FraudMultiplier:        decimal.NewFromInt(2),
		HighAccuracyMultiplier: decimal.RequireFromString("1.5"),
		DefaultScore:           50,
		ScoreSmoothing:         0.2,
		HistoryLimit:           1000,
	}
}

// DefaultLiquidityRules returns the default AMM parameters.
func DefaultLiquidityRules() LiquidityRules {
	return LiquidityRules{
		DefaultFeeRate: decimal.RequireFromString("0.003"),
		RatioTolerance: decimal.RequireFromString("0.000001"),
	}
}

// Copy creates a copy of Rules. Decimal values are immutable, so a value copy
// is already deep.
func (r Rules) Copy() Rules {
	cp := r
	return cp
}

// String returns a JSON representation of Rules for logging.
func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}

// RulesByName resolves "main", "test" or "fake".
func RulesByName(name string) (Rules, bool) {
	switch name {
	case "main":
		return MainNetRules(), true
	case "test":
		return TestNetRules(), true
	case "fake":
		return FakeNetRules(), true
	}
	return Rules{}, false
}
