package staking

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/ledger"
	"github.com/rony4d/go-neurax/neurax"
)

// Engine owns every stake position. Mutating methods take a ledger.Txn and
// must be called from inside ledger.Update with the owner locked; the engine
// lock is taken after the ledger locks.
type Engine struct {
	rules neurax.StakingRules
	pool  *ledger.Fund
	clock clock.Clock
	log   logrus.FieldLogger

	mu        sync.RWMutex
	positions map[string]*position
	byOwner   map[inter.Address][]string
}

// NewEngine creates an engine paying rewards out of pool.
func NewEngine(rules neurax.StakingRules, pool *ledger.Fund, clk clock.Clock, log logrus.FieldLogger) *Engine {
	return &Engine{
		rules:     rules,
		pool:      pool,
		clock:     clk,
		log:       log,
		positions: make(map[string]*position),
		byOwner:   make(map[inter.Address][]string),
	}
}

// Pool returns the staking reward pool.
func (e *Engine) Pool() *ledger.Fund {
	return e.pool
}

// Rules returns the staking parameters.
func (e *Engine) Rules() neurax.StakingRules {
	return e.rules
}

// accruedAt returns the unclaimed reward of p at now, before pool bounding.
// Accrual stops when the position leaves the active phase.
func (e *Engine) accruedAt(p *position, now inter.Timestamp) decimal.Decimal {
	if p.Status != Active || !p.lastAccrual.Before(now) {
		return p.settled
	}
	elapsed := decimal.NewFromInt(int64(now.Sub(p.lastAccrual)))
	year := decimal.NewFromInt(int64(neurax.Year))
	fresh := p.Amount.Mul(e.rules.BaseRewardRate).Mul(p.Multiplier).Mul(elapsed).DivRound(year, 18)
	return p.settled.Add(fresh)
}

func (e *Engine) settle(p *position, now inter.Timestamp) {
	p.settled = e.accruedAt(p, now)
	if p.lastAccrual.Before(now) {
		p.lastAccrual = now
	}
}

func (e *Engine) snapshot(p *position, now inter.Timestamp) Position {
	cp := p.Position
	cp.AccruedReward = inter.MinDecimal(e.accruedAt(p, now), e.pool.Balance())
	return cp
}

func (e *Engine) owned(op string, owner inter.Address, id string) (*position, error) {
	p, ok := e.positions[id]
	if !ok {
		return nil, inter.Errorf(inter.KindNotFound, op, "position %s not found", id)
	}
	if p.Owner != owner {
		return nil, inter.Errorf(inter.KindUnauthorized, op, "position %s does not belong to %s", id, owner)
	}
	return p, nil
}

// Stake locks amount of owner's available balance in a new position.
func (e *Engine) Stake(tx *ledger.Txn, owner inter.Address, amount decimal.Decimal, period inter.LockPeriod) (Position, error) {
	const op = "staking.stake"
	if amount.LessThan(e.rules.MinStake) {
		return Position{}, inter.Errorf(inter.KindValidation, op, "stake %s below minimum %s", amount, e.rules.MinStake)
	}
	if e.rules.MaxStake.IsPositive() && amount.GreaterThan(e.rules.MaxStake) {
		return Position{}, inter.Errorf(inter.KindValidation, op, "stake %s above maximum %s", amount, e.rules.MaxStake)
	}
	if !amount.IsPositive() {
		return Position{}, inter.Errorf(inter.KindValidation, op, "stake must be positive")
	}
	if err := tx.Stake(owner, amount); err != nil {
		return Position{}, err
	}

	now := tx.Now()
	p := &position{
		Position: Position{
			ID:            uuid.New().String(),
			Owner:         owner,
			Amount:        amount,
			LockPeriod:    period,
			Multiplier:    Multiplier(period),
			StartTime:     now,
			LockEnd:       now.Add(period.Duration()),
			ClaimedReward: decimal.Zero,
			Status:        Active,
		},
		settled:     decimal.Zero,
		lastAccrual: now,
	}

	e.mu.Lock()
	e.positions[p.ID] = p
	e.byOwner[owner] = append(e.byOwner[owner], p.ID)
	snap := e.snapshot(p, now)
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{"position": p.ID, "owner": owner, "amount": amount, "lock": period}).Info("Stake opened")
	return snap, nil
}

// Unstake moves an active position whose lock has ended into unbonding. On
// an unbonding position whose period has elapsed it releases the stake and
// closes the position; before that it fails with KindInvalidState.
func (e *Engine) Unstake(tx *ledger.Txn, owner inter.Address, id string) (Position, error) {
	const op = "staking.unstake"
	now := tx.Now()

	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.owned(op, owner, id)
	if err != nil {
		return Position{}, err
	}

	switch p.Status {
	case Active:
		if now.Before(p.LockEnd) {
			return Position{}, inter.Errorf(inter.KindInvalidState, op, "position %s locked until %s", id, p.LockEnd.Time().Format(time.RFC3339))
		}
		if e.rules.UnbondingPeriod <= 0 {
			if err := e.release(tx, p, now); err != nil {
				return Position{}, err
			}
			break
		}
		e.settle(p, now)
		p.Status = Unbonding
		p.UnbondingAt = now
		p.ReleaseAt = now.Add(e.rules.UnbondingPeriod)
		e.log.WithFields(logrus.Fields{"position": id, "release_at": p.ReleaseAt.Time()}).Info("Stake unbonding")
	case Unbonding:
		if now.Before(p.ReleaseAt) {
			return Position{}, inter.Errorf(inter.KindInvalidState, op, "position %s is unbonding until %s", id, p.ReleaseAt.Time().Format(time.RFC3339))
		}
		if err := e.release(tx, p, now); err != nil {
			return Position{}, err
		}
	default:
		return Position{}, inter.Errorf(inter.KindInvalidState, op, "position %s is %s", id, p.Status)
	}
	return e.snapshot(p, now), nil
}

// release returns the stake to the owner, pays what is left of the accrued
// reward while the pool lasts and closes the position. Engine lock held.
func (e *Engine) release(tx *ledger.Txn, p *position, now inter.Timestamp) error {
	e.settle(p, now)
	if err := tx.Unstake(p.Owner, p.Amount); err != nil {
		return err
	}
	if p.settled.IsPositive() {
		if paid, err := e.pool.Draw(p.settled); err == nil {
			if err := tx.Credit(p.Owner, paid); err != nil {
				e.pool.Refund(paid)
				return err
			}
			p.ClaimedReward = p.ClaimedReward.Add(paid)
		}
		p.settled = decimal.Zero
	}
	p.Status = Closed
	e.log.WithFields(logrus.Fields{"position": p.ID, "owner": p.Owner, "amount": p.Amount}).Info("Stake released")
	return nil
}

// Claim pays the accrued reward of a position, bounded by the pool, and
// resets its accrual. An empty pool fails with KindCapacity.
func (e *Engine) Claim(tx *ledger.Txn, owner inter.Address, id string) (decimal.Decimal, error) {
	const op = "staking.claim"
	now := tx.Now()

	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.owned(op, owner, id)
	if err != nil {
		return decimal.Zero, err
	}
	if p.Status == Closed {
		return decimal.Zero, inter.Errorf(inter.KindInvalidState, op, "position %s is closed", id)
	}

	accrued := e.accruedAt(p, now)
	paid, err := e.pool.Draw(accrued)
	if err != nil {
		return decimal.Zero, err
	}
	if err := tx.Credit(owner, paid); err != nil {
		e.pool.Refund(paid)
		return decimal.Zero, err
	}
	e.settle(p, now)
	p.settled = decimal.Zero
	p.ClaimedReward = p.ClaimedReward.Add(paid)

	e.log.WithFields(logrus.Fields{"position": id, "owner": owner, "reward": paid}).Info("Staking reward claimed")
	return paid, nil
}

// Matured returns the owners of unbonding positions whose period has elapsed
// at now, keyed by position id.
func (e *Engine) Matured(now inter.Timestamp) map[string]inter.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]inter.Address)
	for id, p := range e.positions {
		if p.Status == Unbonding && !now.Before(p.ReleaseAt) {
			out[id] = p.Owner
		}
	}
	return out
}

// ReleaseMatured closes every unbonding position whose period has elapsed
// and returns the closed positions. Each release is its own ledger update.
func (e *Engine) ReleaseMatured(l *ledger.Ledger) []Position {
	matured := e.Matured(inter.FromTime(e.clock.Now()))
	ids := make([]string, 0, len(matured))
	for id := range matured {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var closed []Position
	for _, id := range ids {
		owner := matured[id]
		err := l.Update([]inter.Address{owner}, func(tx *ledger.Txn) error {
			p, err := e.Unstake(tx, owner, id)
			if err == nil {
				closed = append(closed, p)
			}
			return err
		})
		if err != nil {
			e.log.WithError(err).WithField("position", id).Warn("Failed to release matured stake")
		}
	}
	return closed
}

// Position returns a snapshot of one position.
func (e *Engine) Position(id string) (Position, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.positions[id]
	if !ok {
		return Position{}, inter.Errorf(inter.KindNotFound, "staking.position", "position %s not found", id)
	}
	return e.snapshot(p, inter.FromTime(e.clock.Now())), nil
}

// PositionsOf returns the positions of owner, oldest first.
func (e *Engine) PositionsOf(owner inter.Address) []Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	now := inter.FromTime(e.clock.Now())
	ids := e.byOwner[owner]
	out := make([]Position, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.snapshot(e.positions[id], now))
	}
	return out
}

// StakedBy sums the amounts of owner's active and unbonding positions.
func (e *Engine) StakedBy(owner inter.Address) decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	sum := decimal.Zero
	for _, id := range e.byOwner[owner] {
		if p := e.positions[id]; p.Status != Closed {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

// Info summarizes the engine for reporting.
type Info struct {
	TotalStaked     decimal.Decimal `json:"total_staked"`
	ActivePositions int             `json:"active_positions"`
	Unbonding       int             `json:"unbonding_positions"`
	RewardPool      decimal.Decimal `json:"reward_pool"`
	RewardsPaid     decimal.Decimal `json:"rewards_paid"`
	BaseAPY         decimal.Decimal `json:"base_apy"`
	MinStake        decimal.Decimal `json:"min_stake"`
	MaxStake        decimal.Decimal `json:"max_stake"`
	UnbondingPeriod time.Duration   `json:"unstaking_period"`
	LockPeriods     []LockOption    `json:"lock_periods"`
}

// LockOption describes the reward of one lock period.
type LockOption struct {
	Period     inter.LockPeriod `json:"period"`
	Multiplier decimal.Decimal  `json:"multiplier"`
	APY        decimal.Decimal  `json:"apy"`
}

// Info returns the current staking summary.
func (e *Engine) Info() Info {
	e.mu.RLock()
	defer e.mu.RUnlock()
	info := Info{
		TotalStaked:     decimal.Zero,
		RewardPool:      e.pool.Balance(),
		RewardsPaid:     e.pool.Paid(),
		BaseAPY:         e.rules.BaseRewardRate.Mul(decimal.NewFromInt(100)),
		MinStake:        e.rules.MinStake,
		MaxStake:        e.rules.MaxStake,
		UnbondingPeriod: e.rules.UnbondingPeriod,
	}
	for _, p := range e.positions {
		switch p.Status {
		case Active:
			info.ActivePositions++
			info.TotalStaked = info.TotalStaked.Add(p.Amount)
		case Unbonding:
			info.Unbonding++
			info.TotalStaked = info.TotalStaked.Add(p.Amount)
		}
	}
	for _, period := range inter.LockPeriods() {
		m := Multiplier(period)
		info.LockPeriods = append(info.LockPeriods, LockOption{Period: period, Multiplier: m, APY: info.BaseAPY.Mul(m)})
	}
	return info
}
