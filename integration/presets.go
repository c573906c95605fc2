// Package integration provides configuration presets and assembly helpers for
// building a NeuraX node. Presets bundle the settings that vary between
// deployments (network, history retention, metrics) into named profiles so
// operators can pick one instead of tuning every flag.
//
// Usage:
//
//	p := integration.DevPreset()     // local development on a fake network
//	p := integration.FullPreset()    // production validators
//	p := integration.ArchivePreset() // explorers keeping every AI record
//
//	rules, err := integration.Rules(p)
//	g := integration.Genesis(p, rules, now)
package integration

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/neurax"
	"github.com/rony4d/go-neurax/neurax/genesis"
)

// PresetConfig captures the parameters that vary across preset profiles.
// Tokenomics and chain cadence are not part of a preset: they come from the
// network rules and explicit overrides.
type PresetConfig struct {
	Name    string // identifier used by --preset
	Network string // rules name: "main", "test" or "fake"

	// AIHistoryLimit bounds the validation history kept per address. Zero
	// keeps everything.
	AIHistoryLimit int
	// TxHistoryLimit caps the page size of transaction listings.
	TxHistoryLimit int

	EnableMetrics bool

	// FakeAccounts is the number of funded development accounts added to
	// genesis. Only meaningful on the fake network.
	FakeAccounts       int
	FakeAccountBalance decimal.Decimal
}

// DefaultPreset is a mainnet node with moderate history and no metrics.
func DefaultPreset() PresetConfig {
	return PresetConfig{
		Name:               "default",
		Network:            "main",
		AIHistoryLimit:     1000,
		TxHistoryLimit:     100,
		EnableMetrics:      false,
		FakeAccountBalance: decimal.Zero,
	}
}

// DevPreset runs a fake network with funded accounts, short histories and
// metrics on.
//
// Use cases:
//   - local development
//   - CI pipelines
//
// Trade-offs:
//   - the fake network has minute-long governance phases and fast blocks
//   - short histories drop old AI records quickly
func DevPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "dev"
	cfg.Network = "fake"
	cfg.AIHistoryLimit = 100
	cfg.TxHistoryLimit = 50
	cfg.EnableMetrics = true
	cfg.FakeAccounts = 10
	cfg.FakeAccountBalance = decimal.NewFromInt(100_000)
	return cfg
}

// FullPreset is a production validator: mainnet, default history, metrics on.
func FullPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "full"
	cfg.EnableMetrics = true
	return cfg
}

// ArchivePreset keeps the full AI validation history of every address and
// allows the largest listing pages.
//
// Trade-offs:
//   - memory grows with every validation report
func ArchivePreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "archive"
	cfg.AIHistoryLimit = 0
	cfg.TxHistoryLimit = 500
	cfg.EnableMetrics = true
	return cfg
}

// GetPresetByName looks a preset up by its identifier. "lite" is accepted as
// an alias of "dev".
func GetPresetByName(name string) (PresetConfig, error) {
	switch name {
	case "dev", "lite":
		return DevPreset(), nil
	case "full":
		return FullPreset(), nil
	case "archive":
		return ArchivePreset(), nil
	case "default", "":
		return DefaultPreset(), nil
	default:
		return PresetConfig{}, fmt.Errorf("unknown preset: %q (valid: dev, full, archive, default)", name)
	}
}

// ApplyPreset merges preset into target. Non-zero numeric and string fields
// override; booleans and AIHistoryLimit always apply, since their zero value
// is meaningful.
func ApplyPreset(target *PresetConfig, preset PresetConfig) {
	if preset.Name != "" {
		target.Name = preset.Name
	}
	if preset.Network != "" {
		target.Network = preset.Network
	}
	if preset.TxHistoryLimit > 0 {
		target.TxHistoryLimit = preset.TxHistoryLimit
	}
	if preset.FakeAccounts > 0 {
		target.FakeAccounts = preset.FakeAccounts
		target.FakeAccountBalance = preset.FakeAccountBalance
	}
	target.AIHistoryLimit = preset.AIHistoryLimit
	target.EnableMetrics = preset.EnableMetrics
}

// Rules resolves the preset's network rules and applies its history bound.
func Rules(p PresetConfig) (neurax.Rules, error) {
	rules, ok := neurax.RulesByName(p.Network)
	if !ok {
		return neurax.Rules{}, fmt.Errorf("preset %s: unknown network %q", p.Name, p.Network)
	}
	rules.AI.HistoryLimit = p.AIHistoryLimit
	return rules, nil
}

// Genesis builds the genesis for rules. The fake network gets the preset's
// funded development accounts.
func Genesis(p PresetConfig, rules neurax.Rules, time inter.Timestamp) genesis.Genesis {
	if rules.NetworkID == neurax.FakeNetworkID && p.FakeAccounts > 0 {
		return genesis.FakeGenesis(rules, time, p.FakeAccounts, p.FakeAccountBalance)
	}
	return genesis.MainGenesis(rules, time)
}
