package liquidity

import (
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/ledger"
)

// Config holds the engine parameters.
type Config struct {
	// Native is the symbol of the ledger token.
	Native         string
	DefaultFeeRate decimal.Decimal
	RatioTolerance decimal.Decimal
}

// PoolSpec describes a pool to seed.
type PoolSpec struct {
	ID       string
	TokenA   string
	TokenB   string
	ReserveA decimal.Decimal
	ReserveB decimal.Decimal
	FeeRate  decimal.Decimal
	Provider inter.Address
}

// SwapResult is the settlement of one swap.
type SwapResult struct {
	PoolID    string          `json:"pool_id"`
	TokenIn   string          `json:"token_in"`
	TokenOut  string          `json:"token_out"`
	AmountIn  decimal.Decimal `json:"amount_in"`
	AmountOut decimal.Decimal `json:"amount_out"`
	Fee       decimal.Decimal `json:"fee"`
}

// Engine owns the pools. Lock order: ledger accounts, then a pool, then the
// asset book.
type Engine struct {
	cfg    Config
	ledger *ledger.Ledger
	assets *AssetBook
	clock  clock.Clock
	log    logrus.FieldLogger

	mu    sync.RWMutex
	pools map[string]*pool
}

// NewEngine creates an engine without pools.
func NewEngine(cfg Config, l *ledger.Ledger, assets *AssetBook, clk clock.Clock, log logrus.FieldLogger) *Engine {
	return &Engine{
		cfg:    cfg,
		ledger: l,
		assets: assets,
		clock:  clk,
		log:    log,
		pools:  make(map[string]*pool),
	}
}

// Assets returns the engine's asset book.
func (e *Engine) Assets() *AssetBook {
	return e.assets
}

// Seed creates a pool whose reserves come from the genesis supply rather than
// from an account. The provider receives the initial liquidity shares, equal
// to ReserveA.
func (e *Engine) Seed(spec PoolSpec) (Pool, error) {
	const op = "liquidity.seed"
	if spec.ID == "" || spec.TokenA == "" || spec.TokenB == "" || spec.TokenA == spec.TokenB {
		return Pool{}, inter.Errorf(inter.KindValidation, op, "pool %q needs two distinct tokens", spec.ID)
	}
	if !spec.ReserveA.IsPositive() || !spec.ReserveB.IsPositive() {
		return Pool{}, inter.Errorf(inter.KindValidation, op, "pool %s needs positive reserves", spec.ID)
	}
	fee := spec.FeeRate
	if fee.IsZero() {
		fee = e.cfg.DefaultFeeRate
	}
	if fee.IsNegative() || fee.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Pool{}, inter.Errorf(inter.KindValidation, op, "fee rate %s out of range", fee)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.pools[spec.ID]; ok {
		return Pool{}, inter.Errorf(inter.KindInvalidState, op, "pool %s already exists", spec.ID)
	}
	p := &pool{Pool: Pool{
		ID:             spec.ID,
		TokenA:         spec.TokenA,
		TokenB:         spec.TokenB,
		ReserveA:       spec.ReserveA,
		ReserveB:       spec.ReserveB,
		TotalLiquidity: spec.ReserveA,
		FeeRate:        fee,
		Providers:      map[inter.Address]decimal.Decimal{spec.Provider: spec.ReserveA},
		CreatedAt:      inter.FromTime(e.clock.Now()),
	}}
	e.pools[spec.ID] = p
	e.log.WithFields(logrus.Fields{"pool": spec.ID, "reserve_a": spec.ReserveA, "reserve_b": spec.ReserveB}).Info("Liquidity pool created")
	return p.snapshot(), nil
}

func (e *Engine) get(id string) (*pool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.pools[id]
	if !ok {
		return nil, inter.Errorf(inter.KindNotFound, "liquidity", "pool %s not found", id)
	}
	return p, nil
}

// Pool returns a snapshot of one pool.
func (e *Engine) Pool(id string) (Pool, error) {
	p, err := e.get(id)
	if err != nil {
		return Pool{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot(), nil
}

// Pools returns snapshots of every pool ordered by id.
func (e *Engine) Pools() []Pool {
	e.mu.RLock()
	ids := make([]string, 0, len(e.pools))
	for id := range e.pools {
		ids = append(ids, id)
	}
	e.mu.RUnlock()
	sort.Strings(ids)

	out := make([]Pool, 0, len(ids))
	for _, id := range ids {
		if p, err := e.Pool(id); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// NativeReserves sums the native-token reserves of every pool. Those coins
// are part of the supply but belong to no account.
func (e *Engine) NativeReserves() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range e.Pools() {
		if p.TokenA == e.cfg.Native {
			sum = sum.Add(p.ReserveA)
		}
		if p.TokenB == e.cfg.Native {
			sum = sum.Add(p.ReserveB)
		}
	}
	return sum
}

// Quote returns the output of swapping amountIn of tokenIn without
// executing it.
func (e *Engine) Quote(poolID, tokenIn string, amountIn decimal.Decimal) (decimal.Decimal, error) {
	p, err := e.Pool(poolID)
	if err != nil {
		return decimal.Zero, err
	}
	rIn, rOut, err := p.reserves(tokenIn)
	if err != nil {
		return decimal.Zero, err
	}
	if !amountIn.IsPositive() {
		return decimal.Zero, inter.Errorf(inter.KindValidation, "liquidity.quote", "amount must be positive")
	}
	return SwapOutput(rIn, rOut, amountIn, p.FeeRate), nil
}

// canPay checks that addr can pay amount of token inside tx. The asset book
// must be locked.
func (e *Engine) canPay(tx *ledger.Txn, token string, addr inter.Address, amount decimal.Decimal) error {
	if token == e.cfg.Native {
		acc, err := tx.Get(addr)
		if err != nil {
			return err
		}
		if acc.Available().LessThan(amount) {
			return inter.Errorf(inter.KindInsufficientFunds, "liquidity", "%s has %s %s available, needs %s", addr, acc.Available(), token, amount)
		}
		return nil
	}
	if bal := e.assets.balanceLocked(token, addr); bal.LessThan(amount) {
		return inter.Errorf(inter.KindInsufficientFunds, "liquidity", "%s holds %s %s, needs %s", addr, bal, token, amount)
	}
	return nil
}

func (e *Engine) pay(tx *ledger.Txn, token string, addr inter.Address, amount decimal.Decimal) error {
	if token == e.cfg.Native {
		return tx.Debit(addr, amount)
	}
	return e.assets.debitLocked(token, addr, amount)
}

func (e *Engine) receive(tx *ledger.Txn, token string, addr inter.Address, amount decimal.Decimal) error {
	if token == e.cfg.Native {
		return tx.Credit(addr, amount)
	}
	return e.assets.creditLocked(token, addr, amount)
}

// AddLiquidity deposits amountA of TokenA and amountB of TokenB and mints
// liquidity shares proportional to the contribution. Deposits that deviate
// from the pool ratio by more than the configured tolerance are rejected.
func (e *Engine) AddLiquidity(provider inter.Address, poolID string, amountA, amountB decimal.Decimal) (decimal.Decimal, error) {
	const op = "liquidity.add"
	if !amountA.IsPositive() || !amountB.IsPositive() {
		return decimal.Zero, inter.Errorf(inter.KindValidation, op, "amounts must be positive")
	}
	p, err := e.get(poolID)
	if err != nil {
		return decimal.Zero, err
	}

	var minted decimal.Decimal
	err = e.ledger.Update([]inter.Address{provider}, func(tx *ledger.Txn) error {
		p.mu.Lock()
		defer p.mu.Unlock()

		// |amountB - expectedB| <= tolerance*expectedB, scaled by ReserveA.
		scaledB := amountA.Mul(p.ReserveB)
		if amountB.Mul(p.ReserveA).Sub(scaledB).Abs().GreaterThan(e.cfg.RatioTolerance.Mul(scaledB)) {
			expectedB := scaledB.DivRound(p.ReserveA, Precision)
			return inter.Errorf(inter.KindValidation, op, "deposit %s/%s does not match pool ratio, expected %s %s", amountA, amountB, expectedB, p.TokenB)
		}
		minted = amountA.Mul(p.TotalLiquidity).DivRound(p.ReserveA, Precision+2).Truncate(Precision)
		if !minted.IsPositive() {
			return inter.Errorf(inter.KindValidation, op, "deposit too small")
		}

		e.assets.mu.Lock()
		defer e.assets.mu.Unlock()
		if err := e.canPay(tx, p.TokenA, provider, amountA); err != nil {
			return err
		}
		if err := e.canPay(tx, p.TokenB, provider, amountB); err != nil {
			return err
		}
		if err := e.pay(tx, p.TokenA, provider, amountA); err != nil {
			return err
		}
		if err := e.pay(tx, p.TokenB, provider, amountB); err != nil {
			return err
		}

		p.ReserveA = p.ReserveA.Add(amountA)
		p.ReserveB = p.ReserveB.Add(amountB)
		p.TotalLiquidity = p.TotalLiquidity.Add(minted)
		p.Providers[provider] = p.Providers[provider].Add(minted)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	e.log.WithFields(logrus.Fields{"pool": poolID, "provider": provider, "shares": minted}).Debug("Liquidity added")
	return minted, nil
}

// RemoveLiquidity burns shares and returns the proportional reserves. The
// last shares of a pool cannot be withdrawn, so reserves stay positive.
func (e *Engine) RemoveLiquidity(provider inter.Address, poolID string, shares decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	const op = "liquidity.remove"
	if !shares.IsPositive() {
		return decimal.Zero, decimal.Zero, inter.Errorf(inter.KindValidation, op, "shares must be positive")
	}
	p, err := e.get(poolID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	var outA, outB decimal.Decimal
	err = e.ledger.Update([]inter.Address{provider}, func(tx *ledger.Txn) error {
		p.mu.Lock()
		defer p.mu.Unlock()

		held := p.Providers[provider]
		if held.LessThan(shares) {
			return inter.Errorf(inter.KindInsufficientFunds, op, "%s holds %s shares of %s, needs %s", provider, held, poolID, shares)
		}
		if !shares.LessThan(p.TotalLiquidity) {
			return inter.Errorf(inter.KindInvalidState, op, "cannot drain pool %s", poolID)
		}
		outA = p.ReserveA.Mul(shares).DivRound(p.TotalLiquidity, Precision+2).Truncate(Precision)
		outB = p.ReserveB.Mul(shares).DivRound(p.TotalLiquidity, Precision+2).Truncate(Precision)
		if !outA.LessThan(p.ReserveA) || !outB.LessThan(p.ReserveB) {
			return inter.Errorf(inter.KindInvalidState, op, "cannot drain pool %s", poolID)
		}

		e.assets.mu.Lock()
		defer e.assets.mu.Unlock()
		if err := e.receive(tx, p.TokenA, provider, outA); err != nil {
			return err
		}
		if err := e.receive(tx, p.TokenB, provider, outB); err != nil {
			return err
		}

		p.ReserveA = p.ReserveA.Sub(outA)
		p.ReserveB = p.ReserveB.Sub(outB)
		p.TotalLiquidity = p.TotalLiquidity.Sub(shares)
		if rest := held.Sub(shares); rest.IsZero() {
			delete(p.Providers, provider)
		} else {
			p.Providers[provider] = rest
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	e.log.WithFields(logrus.Fields{"pool": poolID, "provider": provider, "shares": shares}).Debug("Liquidity removed")
	return outA, outB, nil
}

// Swap sells amountIn of tokenIn to the pool. minOut, when positive, is the
// least output the trader accepts.
func (e *Engine) Swap(trader inter.Address, poolID, tokenIn string, amountIn, minOut decimal.Decimal) (SwapResult, error) {
	const op = "liquidity.swap"
	if !amountIn.IsPositive() {
		return SwapResult{}, inter.Errorf(inter.KindValidation, op, "amount must be positive")
	}
	p, err := e.get(poolID)
	if err != nil {
		return SwapResult{}, err
	}

	var res SwapResult
	err = e.ledger.Update([]inter.Address{trader}, func(tx *ledger.Txn) error {
		p.mu.Lock()
		defer p.mu.Unlock()

		rIn, rOut, err := p.reserves(tokenIn)
		if err != nil {
			return err
		}
		out := SwapOutput(rIn, rOut, amountIn, p.FeeRate)
		if !out.IsPositive() {
			return inter.Errorf(inter.KindValidation, op, "swap of %s %s yields nothing", amountIn, tokenIn)
		}
		if !out.LessThan(rOut) {
			return inter.Errorf(inter.KindInvalidState, op, "swap would drain pool %s", poolID)
		}
		if minOut.IsPositive() && out.LessThan(minOut) {
			return inter.Errorf(inter.KindInvalidState, op, "output %s below minimum %s", out, minOut)
		}
		tokenOut := p.other(tokenIn)

		e.assets.mu.Lock()
		defer e.assets.mu.Unlock()
		if err := e.canPay(tx, tokenIn, trader, amountIn); err != nil {
			return err
		}
		if err := e.pay(tx, tokenIn, trader, amountIn); err != nil {
			return err
		}
		if err := e.receive(tx, tokenOut, trader, out); err != nil {
			return err
		}

		if tokenIn == p.TokenA {
			p.ReserveA = p.ReserveA.Add(amountIn)
			p.ReserveB = p.ReserveB.Sub(out)
		} else {
			p.ReserveB = p.ReserveB.Add(amountIn)
			p.ReserveA = p.ReserveA.Sub(out)
		}
		res = SwapResult{
			PoolID:    poolID,
			TokenIn:   tokenIn,
			TokenOut:  tokenOut,
			AmountIn:  amountIn,
			AmountOut: out,
			Fee:       amountIn.Mul(p.FeeRate),
		}
		return nil
	})
	if err != nil {
		return SwapResult{}, err
	}
	e.log.WithFields(logrus.Fields{"pool": poolID, "trader": trader, "in": amountIn, "out": res.AmountOut}).Debug("Swap executed")
	return res, nil
}
