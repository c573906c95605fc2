package staking

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/ledger"
	"github.com/rony4d/go-neurax/neurax"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	alice = inter.FakeAddress("alice")
	bob   = inter.FakeAddress("bob")
)

type fixture struct {
	clk    *clock.Mock
	ledger *ledger.Ledger
	pool   *ledger.Fund
	engine *Engine
}

func newFixture(t *testing.T, rules neurax.StakingRules, pool string) *fixture {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Unix(1_700_000_000, 0))
	log, _ := test.NewNullLogger()
	f := &fixture{clk: clk, ledger: ledger.New(clk, log), pool: ledger.NewFund("staking", d(pool))}
	f.engine = NewEngine(rules, f.pool, clk, log)
	require.NoError(t, f.ledger.Credit(alice, d("1000")))
	require.NoError(t, f.ledger.Credit(bob, d("1000")))
	return f
}

func (f *fixture) stake(owner inter.Address, amount string, period inter.LockPeriod) (Position, error) {
	var pos Position
	err := f.ledger.Update([]inter.Address{owner}, func(tx *ledger.Txn) error {
		var err error
		pos, err = f.engine.Stake(tx, owner, d(amount), period)
		return err
	})
	return pos, err
}

func (f *fixture) unstake(owner inter.Address, id string) (Position, error) {
	var pos Position
	err := f.ledger.Update([]inter.Address{owner}, func(tx *ledger.Txn) error {
		var err error
		pos, err = f.engine.Unstake(tx, owner, id)
		return err
	})
	return pos, err
}

func (f *fixture) claim(owner inter.Address, id string) (decimal.Decimal, error) {
	var paid decimal.Decimal
	err := f.ledger.Update([]inter.Address{owner}, func(tx *ledger.Txn) error {
		var err error
		paid, err = f.engine.Claim(tx, owner, id)
		return err
	})
	return paid, err
}

func (f *fixture) assertConsistent(t *testing.T, owner inter.Address) {
	t.Helper()
	acc, err := f.ledger.Get(owner)
	require.NoError(t, err)
	assert.True(t, acc.StakedAmount.Equal(f.engine.StakedBy(owner)), "staked %s positions %s", acc.StakedAmount, f.engine.StakedBy(owner))
	assert.False(t, acc.Available().IsNegative())
}

func testRules() neurax.StakingRules {
	r := neurax.DefaultStakingRules()
	r.MinStake = d("1")
	return r
}

func TestStakeClaimAfterOneYear(t *testing.T) {
	f := newFixture(t, testRules(), "1000000")

	pos, err := f.stake(alice, "100", inter.LockOneYear)
	require.NoError(t, err)
	assert.Equal(t, "1.5", pos.Multiplier.String())
	f.assertConsistent(t, alice)

	f.clk.Add(neurax.Year)

	reward, err := f.claim(alice, pos.ID)
	require.NoError(t, err)
	got, _ := reward.Float64()
	assert.InDelta(t, 100*0.12*1.5, got, 1e-9)

	acc, _ := f.ledger.Get(alice)
	assert.Equal(t, "100", acc.StakedAmount.String(), "stake unchanged by claim")
	assert.True(t, acc.Balance.Equal(d("1000").Add(reward)))

	again, err := f.claim(alice, pos.ID)
	require.NoError(t, err)
	assert.True(t, again.IsZero(), "accrual resets after claim")
	f.assertConsistent(t, alice)
}

func TestStakeValidation(t *testing.T) {
	rules := testRules()
	rules.MinStake = d("10")
	rules.MaxStake = d("500")
	f := newFixture(t, rules, "10")

	tests := []struct {
		amount string
		kind   inter.ErrorKind
	}{
		{"5", inter.KindValidation},
		{"501", inter.KindValidation},
		{"0", inter.KindValidation},
	}
	for _, tt := range tests {
		_, err := f.stake(alice, tt.amount, inter.NoLock)
		assert.Equal(t, tt.kind, inter.KindOf(err), tt.amount)
	}

	_, err := f.stake(alice, "500", inter.NoLock)
	require.NoError(t, err)
	_, err = f.stake(alice, "500", inter.NoLock)
	require.NoError(t, err)
	_, err = f.stake(alice, "10", inter.NoLock)
	assert.True(t, inter.IsKind(err, inter.KindInsufficientFunds))
	f.assertConsistent(t, alice)
}

func TestUnstakeLifecycle(t *testing.T) {
	f := newFixture(t, testRules(), "1000000")
	pos, err := f.stake(alice, "100", inter.LockOneMonth)
	require.NoError(t, err)

	_, err = f.unstake(alice, pos.ID)
	assert.True(t, inter.IsKind(err, inter.KindInvalidState), "still locked")

	f.clk.Add(inter.LockOneMonth.Duration())
	pos, err = f.unstake(alice, pos.ID)
	require.NoError(t, err)
	assert.Equal(t, Unbonding, pos.Status)
	f.assertConsistent(t, alice)

	accrued := pos.AccruedReward
	f.clk.Add(24 * time.Hour)
	frozen, _ := f.engine.Position(pos.ID)
	assert.True(t, accrued.Equal(frozen.AccruedReward), "no accrual while unbonding")

	_, err = f.unstake(alice, pos.ID)
	assert.True(t, inter.IsKind(err, inter.KindInvalidState), "second unstake during unbonding")

	f.clk.Add(testRules().UnbondingPeriod)
	closed, err := f.unstake(alice, pos.ID)
	require.NoError(t, err)
	assert.Equal(t, Closed, closed.Status)

	acc, _ := f.ledger.Get(alice)
	assert.True(t, acc.StakedAmount.IsZero())
	assert.True(t, acc.Balance.Equal(d("1000").Add(accrued)), "pending reward paid on release")
	f.assertConsistent(t, alice)

	_, err = f.unstake(alice, pos.ID)
	assert.True(t, inter.IsKind(err, inter.KindInvalidState))
	_, err = f.claim(alice, pos.ID)
	assert.True(t, inter.IsKind(err, inter.KindInvalidState))
}

func TestReleaseMatured(t *testing.T) {
	f := newFixture(t, testRules(), "1000000")
	pos, err := f.stake(alice, "50", inter.NoLock)
	require.NoError(t, err)
	_, err = f.unstake(alice, pos.ID)
	require.NoError(t, err)

	assert.Empty(t, f.engine.ReleaseMatured(f.ledger))
	f.clk.Add(testRules().UnbondingPeriod)
	closed := f.engine.ReleaseMatured(f.ledger)
	require.Len(t, closed, 1)
	assert.Equal(t, pos.ID, closed[0].ID)
	f.assertConsistent(t, alice)
}

func TestOwnershipAndMissing(t *testing.T) {
	f := newFixture(t, testRules(), "1000")
	pos, err := f.stake(alice, "10", inter.NoLock)
	require.NoError(t, err)

	_, err = f.claim(bob, pos.ID)
	assert.True(t, inter.IsKind(err, inter.KindUnauthorized))
	_, err = f.unstake(bob, pos.ID)
	assert.True(t, inter.IsKind(err, inter.KindUnauthorized))
	_, err = f.claim(alice, "missing")
	assert.True(t, inter.IsKind(err, inter.KindNotFound))
}

func TestRewardPoolBoundsClaims(t *testing.T) {
	f := newFixture(t, testRules(), "5")
	pos, err := f.stake(alice, "1000", inter.LockOneYear)
	require.NoError(t, err)
	f.clk.Add(neurax.Year)

	snap, _ := f.engine.Position(pos.ID)
	assert.Equal(t, "5", snap.AccruedReward.String(), "accrual saturates at the pool")

	paid, err := f.claim(alice, pos.ID)
	require.NoError(t, err)
	assert.Equal(t, "5", paid.String())

	f.clk.Add(24 * time.Hour)
	_, err = f.claim(alice, pos.ID)
	assert.True(t, inter.IsKind(err, inter.KindCapacity))
}

func TestInfo(t *testing.T) {
	f := newFixture(t, testRules(), "1000")
	_, err := f.stake(alice, "10", inter.NoLock)
	require.NoError(t, err)
	_, err = f.stake(bob, "20", inter.LockSixMonths)
	require.NoError(t, err)

	info := f.engine.Info()
	assert.Equal(t, "30", info.TotalStaked.String())
	assert.Equal(t, 2, info.ActivePositions)
	assert.Equal(t, "12", info.BaseAPY.String())
	require.Len(t, info.LockPeriods, 4)
	assert.Equal(t, "18", info.LockPeriods[3].APY.String())
	assert.Len(t, f.engine.PositionsOf(bob), 1)
}
