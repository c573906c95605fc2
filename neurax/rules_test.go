package neurax

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/inter"
)

// TestNetworkConstants verifies that network identifiers are distinct.
func TestNetworkConstants(t *testing.T) {
	ids := map[uint64]string{}
	for name, id := range map[string]uint64{"main": MainNetworkID, "test": TestNetworkID, "fake": FakeNetworkID} {
		if other, dup := ids[id]; dup {
			t.Fatalf("%s and %s share network id %d", name, other, id)
		}
		ids[id] = name
	}
}

func TestMainNetRules(t *testing.T) {
	rules := MainNetRules()

	if rules.Name != "main" {
		t.Errorf("Name = %q, want %q", rules.Name, "main")
	}
	if rules.Token.Symbol != "NX" || rules.Token.Decimals != 18 {
		t.Errorf("Token = %+v, want NX with 18 decimals", rules.Token)
	}
	if rules.Blocks.MaxEmptyBlockSkipPeriod != time.Minute {
		t.Errorf("MaxEmptyBlockSkipPeriod = %v, want %v", rules.Blocks.MaxEmptyBlockSkipPeriod, time.Minute)
	}
	if rules.Governance.ProposalDelay != 24*time.Hour ||
		rules.Governance.VotingDuration != 7*24*time.Hour ||
		rules.Governance.ExecutionDelay != 2*24*time.Hour {
		t.Errorf("unexpected governance phases: %+v", rules.Governance)
	}
	if rules.AI.FraudThreshold != 50 || rules.AI.AccuracyThreshold != 0.6 || rules.AI.HighAccuracyThreshold != 0.9 {
		t.Errorf("unexpected AI thresholds: %+v", rules.AI)
	}
}

func TestTestNetRules(t *testing.T) {
	main, test := MainNetRules(), TestNetRules()
	if test.Name != "test" || test.NetworkID != TestNetworkID {
		t.Errorf("identity = %s/%d", test.Name, test.NetworkID)
	}
	test.Name, test.NetworkID = main.Name, main.NetworkID
	if test.String() != main.String() {
		t.Errorf("testnet parameters differ from mainnet:\n%s\n%s", test, main)
	}
}

func TestFakeNetRules(t *testing.T) {
	rules := FakeNetRules()

	if rules.NetworkID != FakeNetworkID {
		t.Errorf("NetworkID = %d, want %d", rules.NetworkID, FakeNetworkID)
	}
	if rules.Blocks.MaxEmptyBlockSkipPeriod != 3*time.Second {
		t.Errorf("MaxEmptyBlockSkipPeriod = %v, want 3s", rules.Blocks.MaxEmptyBlockSkipPeriod)
	}
	if rules.Governance.VotingDuration >= MainNetRules().Governance.VotingDuration {
		t.Error("fake network should shorten voting")
	}
}

func TestRulesByName(t *testing.T) {
	for _, name := range []string{"main", "test", "fake"} {
		r, ok := RulesByName(name)
		if !ok || r.Name != name {
			t.Errorf("RulesByName(%q) = %q, %v", name, r.Name, ok)
		}
	}
	if _, ok := RulesByName("moon"); ok {
		t.Error("unknown network resolved")
	}
}

func TestRulesCopyAndString(t *testing.T) {
	orig := MainNetRules()
	cp := orig.Copy()
	cp.Economy.BaseFee = decimal.NewFromInt(7)
	if orig.Economy.BaseFee.Equal(cp.Economy.BaseFee) {
		t.Error("Copy shares state with the original")
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(orig.String()), &decoded); err != nil {
		t.Fatalf("String is not JSON: %v", err)
	}
	if decoded["Name"] != "main" {
		t.Errorf("decoded Name = %v", decoded["Name"])
	}
}

func TestEstimateFee(t *testing.T) {
	econ := DefaultEconomyRules()

	tests := []struct {
		name     string
		category FeeCategory
		amount   string
		want     string
	}{
		{"transfer", FeeDefault, "100", "1"},
		{"stake", FeeStake, "100", "2"},
		{"governance", FeeGovernance, "0", "1.5"},
		{"threshold is exclusive", FeeDefault, "10000", "1"},
		{"large transfer", FeeDefault, "20000", "3"},
		{"large stake", FeeStake, "50000", "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := econ.EstimateFee(tt.category, decimal.RequireFromString(tt.amount))
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("EstimateFee = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFeeFor(t *testing.T) {
	econ := DefaultEconomyRules()
	amount := decimal.NewFromInt(10)

	for _, typ := range inter.TxTypes() {
		fee := econ.FeeFor(typ, amount)
		if Charged(typ) == fee.IsZero() {
			t.Errorf("%s: fee %s inconsistent with Charged=%v", typ, fee, Charged(typ))
		}
	}
	if got := econ.FeeFor(inter.TxVote, amount); !got.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("vote fee = %s, want 1.5", got)
	}
	if ParseFeeCategory("STAKE") != FeeStake || ParseFeeCategory("proposal") != FeeGovernance || ParseFeeCategory("x") != FeeDefault {
		t.Error("ParseFeeCategory mismatch")
	}
}
