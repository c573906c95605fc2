// This file maps the CLI context and the optional config file onto Config.

package launcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-neurax/integration"
	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/neurax"
)

// Config aggregates every subsystem's configuration the launcher needs.
type Config struct {
	Node       NodeConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
	Preset     integration.PresetConfig
	Tokenomics TokenomicsConfig
	Chain      ChainConfig
	TxPool     TxPoolConfig
}

type NodeConfig struct {
	Name      string
	Validator inter.Address
}

type LoggingConfig struct {
	Verbosity int
	Format    string
	Color     bool
	SentryDSN string
}

type MetricsConfig struct {
	Enabled bool
	Addr    string
	Port    int
}

// TokenomicsConfig overrides network rules. Zero values keep the rule.
type TokenomicsConfig struct {
	BaseFee           decimal.Decimal
	StakingRate       decimal.Decimal
	MinStake          decimal.Decimal
	UnbondingPeriod   time.Duration
	ProposalThreshold decimal.Decimal
	AIBaseReward      decimal.Decimal
}

// ChainConfig overrides the block rules. Zero values keep the rule.
type ChainConfig struct {
	BlockTime         time.Duration
	Difficulty        uint64
	MaxTxsPerBlock    int
	MaxEmptyBlockSkip time.Duration
}

type TxPoolConfig struct {
	GlobalSlots int
}

// MakeAllConfigs merges defaults, the config file, the preset selected with
// --preset and finally the remaining CLI flags into a single Config.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := DefaultConfig()

	if file := ctx.String("config"); file != "" {
		if err := loadConfigFile(file, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
	}

	if ctx.IsSet("preset") {
		preset, err := integration.GetPresetByName(ctx.String("preset"))
		if err != nil {
			return Config{}, err
		}
		integration.ApplyPreset(&cfg.Preset, preset)
		cfg.Metrics.Enabled = cfg.Metrics.Enabled || preset.EnableMetrics
	}

	if err := applyCLIOverrides(ctx, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) error {
	if ctx.IsSet("identity") {
		cfg.Node.Name = ctx.String("identity")
	}
	if ctx.IsSet("validator") {
		addr, err := inter.ParseAddress(ctx.String("validator"))
		if err != nil {
			return err
		}
		cfg.Node.Validator = addr
	}
	if ctx.IsSet("network") {
		cfg.Preset.Network = ctx.String("network")
	}
	if ctx.IsSet("fakenet.accounts") {
		cfg.Preset.FakeAccounts = ctx.Int("fakenet.accounts")
		if cfg.Preset.FakeAccountBalance.IsZero() {
			cfg.Preset.FakeAccountBalance = integration.DevPreset().FakeAccountBalance
		}
	}

	if ctx.IsSet("log.format") {
		cfg.Logging.Format = ctx.String("log.format")
	}
	if ctx.IsSet("log.verbosity") {
		cfg.Logging.Verbosity = ctx.Int("log.verbosity")
	}
	if ctx.IsSet("log.color") {
		cfg.Logging.Color = ctx.Bool("log.color")
	}
	if ctx.IsSet("sentry.dsn") {
		cfg.Logging.SentryDSN = ctx.String("sentry.dsn")
	}

	if ctx.Bool("metrics") {
		cfg.Metrics.Enabled = true
	}
	if ctx.IsSet("metrics.addr") {
		cfg.Metrics.Addr = ctx.String("metrics.addr")
	}
	if ctx.IsSet("metrics.port") {
		cfg.Metrics.Port = ctx.Int("metrics.port")
	}

	amounts := []struct {
		flag string
		dst  *decimal.Decimal
	}{
		{"fee.base", &cfg.Tokenomics.BaseFee},
		{"staking.rate", &cfg.Tokenomics.StakingRate},
		{"staking.min", &cfg.Tokenomics.MinStake},
		{"governance.threshold", &cfg.Tokenomics.ProposalThreshold},
		{"ai.reward", &cfg.Tokenomics.AIBaseReward},
	}
	for _, a := range amounts {
		if !ctx.IsSet(a.flag) {
			continue
		}
		v, err := inter.ParseAmount(ctx.String(a.flag))
		if err != nil {
			return fmt.Errorf("--%s: %w", a.flag, err)
		}
		*a.dst = v
	}
	if ctx.IsSet("staking.unbonding") {
		cfg.Tokenomics.UnbondingPeriod = ctx.Duration("staking.unbonding")
	}
	if ctx.IsSet("ai.history") {
		cfg.Preset.AIHistoryLimit = ctx.Int("ai.history")
	}

	if ctx.IsSet("block.time") {
		cfg.Chain.BlockTime = ctx.Duration("block.time")
	}
	if ctx.IsSet("block.difficulty") {
		cfg.Chain.Difficulty = ctx.Uint64("block.difficulty")
	}
	if ctx.IsSet("block.maxtxs") {
		cfg.Chain.MaxTxsPerBlock = ctx.Int("block.maxtxs")
	}
	if ctx.IsSet("block.maxidle") {
		cfg.Chain.MaxEmptyBlockSkip = ctx.Duration("block.maxidle")
	}

	if ctx.IsSet("txpool.globalslots") {
		cfg.TxPool.GlobalSlots = ctx.Int("txpool.globalslots")
	}
	if ctx.IsSet("txpool.history") {
		cfg.Preset.TxHistoryLimit = ctx.Int("txpool.history")
	}
	return nil
}

func (c Config) validate() error {
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	if _, ok := neurax.RulesByName(c.Preset.Network); !ok {
		return fmt.Errorf("unknown network %q", c.Preset.Network)
	}
	if c.Preset.AIHistoryLimit < 0 || c.Preset.TxHistoryLimit < 0 {
		return fmt.Errorf("history limits must not be negative")
	}
	if c.Node.Validator != "" && !inter.IsValidAddress(string(c.Node.Validator)) {
		return fmt.Errorf("invalid validator address %q", c.Node.Validator)
	}
	return nil
}

// Rules resolves the network rules of c with every override applied.
func (c Config) Rules() (neurax.Rules, error) {
	rules, err := integration.Rules(c.Preset)
	if err != nil {
		return neurax.Rules{}, err
	}
	t := c.Tokenomics
	if t.BaseFee.IsPositive() {
		rules.Economy.BaseFee = t.BaseFee
	}
	if t.StakingRate.IsPositive() {
		rules.Staking.BaseRewardRate = t.StakingRate
	}
	if t.MinStake.IsPositive() {
		rules.Staking.MinStake = t.MinStake
	}
	if t.UnbondingPeriod > 0 {
		rules.Staking.UnbondingPeriod = t.UnbondingPeriod
	}
	if t.ProposalThreshold.IsPositive() {
		rules.Governance.ProposalThreshold = t.ProposalThreshold
	}
	if t.AIBaseReward.IsPositive() {
		rules.AI.BaseReward = t.AIBaseReward
	}

	ch := c.Chain
	if ch.BlockTime > 0 {
		rules.Blocks.BlockTime = ch.BlockTime
	}
	if ch.Difficulty > 0 {
		rules.Blocks.Difficulty = ch.Difficulty
	}
	if ch.MaxTxsPerBlock > 0 {
		rules.Blocks.MaxTxsPerBlock = ch.MaxTxsPerBlock
	}
	if ch.MaxEmptyBlockSkip > 0 {
		rules.Blocks.MaxEmptyBlockSkipPeriod = ch.MaxEmptyBlockSkip
	}
	if c.TxPool.GlobalSlots > 0 {
		rules.TxPool.GlobalSlots = c.TxPool.GlobalSlots
	}
	return rules, nil
}
