package integration

import (
	"testing"
	"time"

	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/neurax"
	"github.com/rony4d/go-neurax/neurax/genesis"
)

// TestDefaultPreset_hasReasonableDefaults guards the baseline values: if they
// change, we want to know.
func TestDefaultPreset_hasReasonableDefaults(t *testing.T) {
	cfg := DefaultPreset()
	if cfg.Name != "default" {
		t.Fatalf("Name = %q, want 'default'", cfg.Name)
	}
	if cfg.Network != "main" {
		t.Fatalf("Network = %q, want 'main'", cfg.Network)
	}
	if cfg.AIHistoryLimit <= 0 {
		t.Fatalf("AIHistoryLimit = %d, want a bound", cfg.AIHistoryLimit)
	}
	if cfg.TxHistoryLimit != 100 {
		t.Fatalf("TxHistoryLimit = %d, want 100", cfg.TxHistoryLimit)
	}
	if cfg.EnableMetrics {
		t.Fatal("EnableMetrics should be false by default")
	}
}

func TestPresets_overrideDefaults(t *testing.T) {
	def := DefaultPreset()

	dev := DevPreset()
	if dev.Network != "fake" || dev.FakeAccounts == 0 {
		t.Fatalf("dev preset = %+v, want fake network with funded accounts", dev)
	}
	if dev.AIHistoryLimit >= def.AIHistoryLimit {
		t.Fatalf("dev AIHistoryLimit (%d) should be below default (%d)", dev.AIHistoryLimit, def.AIHistoryLimit)
	}

	full := FullPreset()
	if !full.EnableMetrics || full.Network != "main" {
		t.Fatalf("full preset = %+v, want mainnet with metrics", full)
	}

	archive := ArchivePreset()
	if archive.AIHistoryLimit != 0 {
		t.Fatalf("archive AIHistoryLimit = %d, want unlimited", archive.AIHistoryLimit)
	}
	if archive.TxHistoryLimit <= def.TxHistoryLimit {
		t.Fatalf("archive TxHistoryLimit (%d) should exceed default (%d)", archive.TxHistoryLimit, def.TxHistoryLimit)
	}
}

func TestGetPresetByName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"dev", "dev", false},
		{"lite", "dev", false},
		{"full", "full", false},
		{"archive", "archive", false},
		{"default", "default", false},
		{"", "default", false},
		{"turbo", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := GetPresetByName(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("GetPresetByName(%q) succeeded, want error", tt.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetPresetByName(%q): %v", tt.name, err)
			}
			if p.Name != tt.want {
				t.Fatalf("Name = %q, want %q", p.Name, tt.want)
			}
		})
	}
}

func TestApplyPreset_keepsUnsetFields(t *testing.T) {
	target := DevPreset()
	ApplyPreset(&target, PresetConfig{Name: "custom", AIHistoryLimit: 5})

	if target.Name != "custom" {
		t.Fatalf("Name = %q, want 'custom'", target.Name)
	}
	if target.Network != "fake" || target.TxHistoryLimit != 50 || target.FakeAccounts != 10 {
		t.Fatalf("unset fields were clobbered: %+v", target)
	}
	if target.AIHistoryLimit != 5 {
		t.Fatalf("AIHistoryLimit = %d, want 5", target.AIHistoryLimit)
	}
	if target.EnableMetrics {
		t.Fatal("EnableMetrics should follow the preset")
	}
}

func TestRulesAndGenesis(t *testing.T) {
	now := inter.FromTime(time.Unix(1_700_000_000, 0))

	dev := DevPreset()
	rules, err := Rules(dev)
	if err != nil {
		t.Fatal(err)
	}
	if rules.NetworkID != neurax.FakeNetworkID || rules.AI.HistoryLimit != dev.AIHistoryLimit {
		t.Fatalf("rules = %s", rules)
	}
	g := Genesis(dev, rules, now)
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}
	funded := 0
	for _, a := range g.Allocations {
		if a.Address == genesis.FakeAccount(0) {
			funded++
		}
	}
	if funded != 1 {
		t.Fatalf("fake account 0 allocated %d times, want 1", funded)
	}

	full := FullPreset()
	rules, err = Rules(full)
	if err != nil {
		t.Fatal(err)
	}
	if err := Genesis(full, rules, now).Validate(); err != nil {
		t.Fatal(err)
	}

	if _, err := Rules(PresetConfig{Name: "broken", Network: "moon"}); err == nil {
		t.Fatal("unknown network accepted")
	}
}
