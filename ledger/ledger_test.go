package ledger

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-neurax/inter"
)

func newTestLedger(t *testing.T) (*Ledger, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Unix(1_700_000_000, 0))
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return New(clk, log), clk
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateAccount(t *testing.T) {
	l, _ := newTestLedger(t)
	addr := inter.FakeAddress("a")

	acc, err := l.CreateAccount(addr)
	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())
	assert.Equal(t, inter.DefaultAIScore, acc.AIScore)

	_, err = l.CreateAccount(addr)
	assert.True(t, inter.IsKind(err, inter.KindInvalidState))

	_, err = l.Get(inter.FakeAddress("missing"))
	assert.True(t, inter.IsKind(err, inter.KindNotFound))
}

func TestCreditDebit(t *testing.T) {
	l, clk := newTestLedger(t)
	addr := inter.FakeAddress("a")

	require.NoError(t, l.Credit(addr, d("1000")))
	clk.Add(time.Minute)
	require.NoError(t, l.Debit(addr, d("400")))

	acc, err := l.Get(addr)
	require.NoError(t, err)
	assert.Equal(t, "600", acc.Balance.String())
	assert.Equal(t, inter.FromTime(clk.Now()), acc.LastActivity)

	err = l.Debit(addr, d("600.0001"))
	assert.True(t, errors.Is(err, inter.ErrInsufficientFunds))
	acc, _ = l.Get(addr)
	assert.Equal(t, "600", acc.Balance.String(), "failed debit must not mutate")

	assert.True(t, inter.IsKind(l.Credit(addr, d("-1")), inter.KindValidation))
	assert.True(t, inter.IsKind(l.Debit(inter.FakeAddress("nobody"), d("1")), inter.KindNotFound))
}

func TestLockReducesAvailable(t *testing.T) {
	l, _ := newTestLedger(t)
	addr := inter.FakeAddress("a")
	require.NoError(t, l.Credit(addr, d("100")))
	require.NoError(t, l.Lock(addr, d("70")))

	assert.True(t, inter.IsKind(l.Debit(addr, d("31")), inter.KindInsufficientFunds))
	assert.True(t, inter.IsKind(l.Lock(addr, d("31")), inter.KindInsufficientFunds))
	require.NoError(t, l.Debit(addr, d("30")))

	assert.True(t, inter.IsKind(l.Unlock(addr, d("71")), inter.KindInvalidState))
	require.NoError(t, l.Unlock(addr, d("70")))

	acc, _ := l.Get(addr)
	assert.Equal(t, "70", acc.Available().String())
	assert.True(t, acc.LockedAmount.IsZero())
}

func TestUpdateIsAllOrNothing(t *testing.T) {
	l, _ := newTestLedger(t)
	a, b := inter.FakeAddress("a"), inter.FakeAddress("b")
	require.NoError(t, l.Credit(a, d("10")))
	l.Ensure(b)

	err := l.Update([]inter.Address{a, b}, func(tx *Txn) error {
		if err := tx.Debit(a, d("5")); err != nil {
			return err
		}
		if err := tx.Credit(b, d("5")); err != nil {
			return err
		}
		return tx.Debit(a, d("6"))
	})
	require.Error(t, err)

	accA, _ := l.Get(a)
	accB, _ := l.Get(b)
	assert.Equal(t, "10", accA.Balance.String())
	assert.True(t, accB.Balance.IsZero())

	err = l.Update([]inter.Address{a}, func(tx *Txn) error {
		return tx.Credit(b, d("1"))
	})
	assert.True(t, inter.IsKind(err, inter.KindInternal), "unlocked accounts are not reachable")
}

func TestStakeUnstake(t *testing.T) {
	l, _ := newTestLedger(t)
	a := inter.FakeAddress("a")
	require.NoError(t, l.Credit(a, d("100")))

	require.NoError(t, l.Update([]inter.Address{a}, func(tx *Txn) error {
		return tx.Stake(a, d("60"))
	}))
	acc, _ := l.Get(a)
	assert.Equal(t, "60", acc.StakedAmount.String())
	assert.Equal(t, "40", acc.Available().String())
	assert.Equal(t, "100", acc.Total().String())

	err := l.Update([]inter.Address{a}, func(tx *Txn) error { return tx.Unstake(a, d("61")) })
	assert.True(t, inter.IsKind(err, inter.KindInvalidState))

	require.NoError(t, l.Update([]inter.Address{a}, func(tx *Txn) error { return tx.Unstake(a, d("60")) }))
	acc, _ = l.Get(a)
	assert.True(t, acc.StakedAmount.IsZero())
}

func TestScores(t *testing.T) {
	l, _ := newTestLedger(t)
	a := inter.FakeAddress("a")
	l.Ensure(a)

	require.NoError(t, l.Update([]inter.Address{a}, func(tx *Txn) error {
		if err := tx.SetAIScore(a, 140); err != nil {
			return err
		}
		return tx.AdjustReputation(a, -80)
	}))
	acc, _ := l.Get(a)
	assert.Equal(t, 100.0, acc.AIScore)
	assert.Equal(t, 0.0, acc.ReputationScore)
}

// TestConcurrentTransfersConserveBalance runs random transfers between a set
// of accounts from many goroutines and checks that no coin is created or lost
// and no balance goes negative.
func TestConcurrentTransfersConserveBalance(t *testing.T) {
	l, _ := newTestLedger(t)
	const accounts = 8
	addrs := make([]inter.Address, accounts)
	for i := range addrs {
		addrs[i] = inter.FakeAddress(fmt.Sprintf("acc-%d", i))
		require.NoError(t, l.Credit(addrs[i], d("100")))
	}
	before, _, _ := l.Totals()

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				from, to := addrs[r.Intn(accounts)], addrs[r.Intn(accounts)]
				amount := decimal.NewFromInt(int64(r.Intn(30)))
				_ = l.Update([]inter.Address{from, to}, func(tx *Txn) error {
					if err := tx.Debit(from, amount); err != nil {
						return err
					}
					return tx.Credit(to, amount)
				})
			}
		}(int64(w))
	}
	wg.Wait()

	after, _, _ := l.Totals()
	assert.True(t, before.Equal(after), "before %s after %s", before, after)
	for _, acc := range l.Accounts() {
		assert.False(t, acc.Balance.IsNegative())
		assert.False(t, acc.Available().IsNegative())
	}
	assert.Equal(t, accounts, l.Len())
}
