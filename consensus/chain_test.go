package consensus

import (
	"sync"
	"testing"
	"time"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-neurax/aireward"
	"github.com/rony4d/go-neurax/governance"
	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/ledger"
	"github.com/rony4d/go-neurax/neurax"
	"github.com/rony4d/go-neurax/staking"
	"github.com/rony4d/go-neurax/txproc"
)

var (
	alice      = inter.FakeAddress("alice")
	bob        = inter.FakeAddress("bob")
	validators = []inter.Address{inter.FakeAddress("v1"), inter.FakeAddress("v2"), inter.FakeAddress("v3")}
)

type fixture struct {
	clk    *clock.Mock
	ledger *ledger.Ledger
	proc   *txproc.Processor
	chain  *Chain
}

func newFixture(t *testing.T, maxTxs int) *fixture {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Unix(1_700_000_000, 0))
	log, _ := test.NewNullLogger()
	rules := neurax.MainNetRules()
	rules.Blocks.MaxTxsPerBlock = maxTxs

	l := ledger.New(clk, log)
	ai := aireward.NewEngine(rules.AI, ledger.NewFund("ai", decimal.NewFromInt(1000)), clk, log)
	proc := txproc.New(txproc.Config{Economy: rules.Economy}, l, txproc.Engines{
		Staking:    staking.NewEngine(rules.Staking, ledger.NewFund("staking", decimal.NewFromInt(1000)), clk, log),
		Governance: governance.NewEngine(rules.Governance, ledger.NewFund("governance", decimal.NewFromInt(1000)), clk, log),
		AI:         ai,
	}, clk, log)
	chain, err := New(Config{
		Blocks:      rules.Blocks,
		Genesis:     validators,
		GenesisTime: inter.FromTime(clk.Now()),
	}, l, proc, ai, clk, log)
	require.NoError(t, err)

	require.NoError(t, l.Credit(alice, decimal.NewFromInt(1000)))
	l.Ensure(bob)
	return &fixture{clk: clk, ledger: l, proc: proc, chain: chain}
}

func (f *fixture) transfer(t *testing.T, n int) []common.Hash {
	t.Helper()
	var out []common.Hash
	for i := 0; i < n; i++ {
		r, err := f.proc.Submit(txproc.Transfer(alice, bob, decimal.NewFromInt(1), ""))
		require.NoError(t, err)
		out = append(out, r.Tx.Hash)
	}
	return out
}

func TestGenesis(t *testing.T) {
	f := newFixture(t, 100)
	g := f.chain.Tip()
	assert.Equal(t, uint64(0), uint64(g.Height))
	assert.Equal(t, inter.GenesisPreviousHash, g.PreviousHash)
	assert.Equal(t, validators[0], g.Validator)
	assert.Empty(t, g.Transactions)
	require.NoError(t, f.chain.Verify())
}

func TestChainLinkage(t *testing.T) {
	f := newFixture(t, 2)
	hashes := f.transfer(t, 5)

	for i := 0; i < 3; i++ {
		f.clk.Add(10 * time.Second)
		_, err := f.chain.Seal()
		require.NoError(t, err)
	}
	require.Equal(t, uint64(3), uint64(f.chain.Height()))
	assert.Zero(t, f.proc.PendingCount())
	assert.Equal(t, 5, f.chain.TransactionCount())

	var sealed []common.Hash
	for h := 1; h <= 3; h++ {
		b, err := f.chain.BlockByHeight(idx.Block(h))
		require.NoError(t, err)
		parent, err := f.chain.BlockByHeight(idx.Block(h - 1))
		require.NoError(t, err)
		assert.Equal(t, parent.Hash, b.PreviousHash)
		assert.Equal(t, parent.Height+1, b.Height)
		assert.LessOrEqual(t, len(b.Transactions), 2)
		assert.Equal(t, inter.MerkleRoot(b.Transactions.Hashes()), b.MerkleRoot)
		assert.Equal(t, Seed(parent.Hash, b.Height), b.Nonce)
		sealed = append(sealed, b.Transactions.Hashes()...)
	}
	assert.Equal(t, hashes, sealed, "transactions sealed in submission order")
	require.NoError(t, f.chain.Verify())

	loc, err := f.proc.Transaction(hashes[4])
	require.NoError(t, err)
	assert.True(t, loc.Included)
	assert.Equal(t, uint64(3), uint64(loc.Block))
}

func TestFeesGoToValidator(t *testing.T) {
	f := newFixture(t, 100)
	f.transfer(t, 3)
	balance, _, _ := f.ledger.Totals()
	total := balance.Add(f.proc.Escrow())

	b, err := f.chain.Seal()
	require.NoError(t, err)
	acc, err := f.ledger.Get(b.Validator)
	require.NoError(t, err)
	assert.Equal(t, "3", acc.Balance.String())
	assert.Equal(t, inter.DefaultReputationScore+SealReputation, acc.ReputationScore)
	assert.Equal(t, acc.AIScore, b.AIValidationScore)
	assert.True(t, f.proc.Escrow().IsZero())

	balance, _, _ = f.ledger.Totals()
	assert.True(t, balance.Equal(total), "fees move, supply stays")
}

func TestProduceCadence(t *testing.T) {
	f := newFixture(t, 100)

	_, sealed, err := f.chain.Produce()
	require.NoError(t, err)
	assert.False(t, sealed, "nothing pending, skip period not over")

	f.transfer(t, 1)
	b, sealed, err := f.chain.Produce()
	require.NoError(t, err)
	require.True(t, sealed)
	assert.Len(t, b.Transactions, 1)

	f.clk.Add(30 * time.Second)
	_, sealed, _ = f.chain.Produce()
	assert.False(t, sealed)

	f.clk.Add(30 * time.Second)
	b, sealed, err = f.chain.Produce()
	require.NoError(t, err)
	require.True(t, sealed, "empty block after the skip period")
	assert.Empty(t, b.Transactions)
}

func TestBeforeSealHooks(t *testing.T) {
	f := newFixture(t, 100)
	calls := 0
	f.chain.BeforeSeal(func() { calls++ })
	_, err := f.chain.Seal()
	require.NoError(t, err)
	_, err = f.chain.Seal()
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestQueries(t *testing.T) {
	f := newFixture(t, 100)
	for i := 0; i < 4; i++ {
		f.transfer(t, 1)
		f.clk.Add(10 * time.Second)
		_, err := f.chain.Seal()
		require.NoError(t, err)
	}

	tip := f.chain.Tip()
	byHash, err := f.chain.BlockByHash(tip.Hash)
	require.NoError(t, err)
	assert.Equal(t, tip, byHash)

	_, err = f.chain.BlockByHash(common.Hash{1})
	assert.True(t, inter.IsKind(err, inter.KindNotFound))
	_, err = f.chain.BlockByHeight(99)
	assert.True(t, inter.IsKind(err, inter.KindNotFound))

	list, page := f.chain.Blocks(inter.PageRequest{Page: 1, Limit: 2})
	require.Len(t, list, 2)
	assert.Equal(t, tip.Hash, list[0].Hash, "newest first")
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.Pages)

	again, _ := f.chain.Blocks(inter.PageRequest{Page: 1, Limit: 2})
	assert.Equal(t, list, again)

	assert.InDelta(t, 4*4294967296/10.0, f.chain.NetworkHashRate(), 1e-3)

	info := f.chain.Info()
	assert.Equal(t, 5, info.Blocks)
	assert.Equal(t, 4, info.Transactions)
	assert.Equal(t, 3, info.Validators)
	assert.Equal(t, tip.Timestamp, info.LastBlockTime)

	st := f.chain.AIValidationStats(50)
	assert.Equal(t, 4, st.Blocks)
	assert.Equal(t, 50.0, st.AverageScore)
	assert.Zero(t, st.FraudBlocks)
}

func TestVerifyDetectsTampering(t *testing.T) {
	f := newFixture(t, 100)
	f.transfer(t, 2)
	b, err := f.chain.Seal()
	require.NoError(t, err)
	require.NoError(t, f.chain.Verify())

	b.Transactions = b.Transactions[:1]
	assert.Error(t, f.chain.Verify())
}

func TestConcurrentSeals(t *testing.T) {
	f := newFixture(t, 3)
	f.transfer(t, 20)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.chain.Seal()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(10), uint64(f.chain.Height()))
	assert.Equal(t, 20, f.chain.TransactionCount())
	require.NoError(t, f.chain.Verify())
}
