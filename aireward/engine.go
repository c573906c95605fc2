package aireward

import (
	"math"
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/ledger"
	"github.com/rony4d/go-neurax/neurax"
)

// Engine keeps AI scores and validation histories.
type Engine struct {
	rules neurax.AIRules
	pool  *ledger.Fund
	clock clock.Clock
	log   logrus.FieldLogger

	mu      sync.RWMutex
	records map[inter.Address]*record
	flags   []FraudFlag
}

// NewEngine creates an engine paying rewards out of pool.
func NewEngine(rules neurax.AIRules, pool *ledger.Fund, clk clock.Clock, log logrus.FieldLogger) *Engine {
	return &Engine{
		rules:   rules,
		pool:    pool,
		clock:   clk,
		log:     log,
		records: make(map[inter.Address]*record),
	}
}

// Pool returns the AI reward pool.
func (e *Engine) Pool() *ledger.Fund {
	return e.pool
}

// Rules returns the AI reward parameters.
func (e *Engine) Rules() neurax.AIRules {
	return e.rules
}

// CheckPayload validates the figures of a validation report.
func CheckPayload(p inter.AIValidationPayload) error {
	const op = "aireward.validate"
	if p.ValidatedTx == (common.Hash{}) {
		return inter.Errorf(inter.KindValidation, op, "validated transaction hash is required")
	}
	if math.IsNaN(p.Accuracy) || p.Accuracy < 0 || p.Accuracy > 1 {
		return inter.Errorf(inter.KindValidation, op, "accuracy %v outside [0,1]", p.Accuracy)
	}
	if math.IsNaN(p.Score) || p.Score < 0 || p.Score > 100 {
		return inter.Errorf(inter.KindValidation, op, "score %v outside [0,100]", p.Score)
	}
	return nil
}

// reward returns the payout a report earns before pool bounding and whether
// it is a fraud detection.
func (e *Engine) reward(p inter.AIValidationPayload) (decimal.Decimal, bool) {
	fraud := p.Score < e.rules.FraudThreshold
	switch {
	case fraud:
		return e.rules.BaseReward.Mul(e.rules.FraudMultiplier), true
	case p.Accuracy < e.rules.AccuracyThreshold:
		return decimal.Zero, false
	case p.Accuracy > e.rules.HighAccuracyThreshold:
		return e.rules.BaseReward.Mul(e.rules.HighAccuracyMultiplier), false
	}
	return e.rules.BaseReward, false
}

// nextScore moves old toward the accuracy of a report.
func (e *Engine) nextScore(old, accuracy float64) float64 {
	s := e.rules.ScoreSmoothing
	return ledger.ClampScore((1-s)*old + s*accuracy*100)
}

// Validate records validator's report on another transaction, pays the
// reward and updates the validator's AI score on the ledger. txHash is the
// hash of the AI_VALIDATION transaction itself. A positive reward against an
// empty pool fails with KindCapacity.
func (e *Engine) Validate(tx *ledger.Txn, validator inter.Address, txHash common.Hash, p inter.AIValidationPayload) (Result, error) {
	if err := CheckPayload(p); err != nil {
		return Result{}, err
	}
	want, fraud := e.reward(p)
	now := tx.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	paid, err := e.pool.Draw(want)
	if err != nil {
		return Result{}, err
	}
	if err := tx.Credit(validator, paid); err != nil {
		e.pool.Refund(paid)
		return Result{}, err
	}
	r := e.records[validator]
	old := e.rules.DefaultScore
	if r != nil {
		old = r.score
	}
	score := e.nextScore(old, p.Accuracy)
	if err := tx.SetAIScore(validator, score); err != nil {
		e.pool.Refund(paid)
		return Result{}, err
	}

	if r == nil {
		r = &record{totalRewards: decimal.Zero}
		e.records[validator] = r
	}
	res := Result{
		TxHash:      txHash,
		ValidatedTx: p.ValidatedTx,
		Accuracy:    p.Accuracy,
		Score:       p.Score,
		Reward:      paid,
		Fraud:       fraud,
		Timestamp:   now,
	}
	r.score = score
	r.validations++
	r.totalRewards = r.totalRewards.Add(paid)
	r.updatedAt = now
	r.push(res, e.rules.HistoryLimit)
	if fraud {
		r.fraudReports++
		e.flags = append(e.flags, FraudFlag{ValidatedTx: p.ValidatedTx, Reporter: validator, Score: p.Score, Timestamp: now})
		if limit := e.rules.HistoryLimit; limit > 0 && len(e.flags) > limit {
			e.flags = append(e.flags[:0:0], e.flags[len(e.flags)-limit:]...)
		}
	}

	fields := logrus.Fields{"validator": validator, "validated": p.ValidatedTx.Hex(), "accuracy": p.Accuracy, "reward": paid, "score": score}
	if fraud {
		e.log.WithFields(fields).Warn("Fraud-suspect transaction reported")
	} else {
		e.log.WithFields(fields).Debug("AI validation recorded")
	}
	return res, nil
}

// Score returns the AI score of addr, or the default for unknown addresses.
func (e *Engine) Score(addr inter.Address) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if r, ok := e.records[addr]; ok {
		return r.score
	}
	return e.rules.DefaultScore
}

// Record returns the full record of addr.
func (e *Engine) Record(addr inter.Address) (Record, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.records[addr]
	if !ok {
		return Record{}, inter.Errorf(inter.KindNotFound, "aireward.record", "no AI record for %s", addr)
	}
	return r.snapshot(addr), nil
}

// Validators returns every address that has reported at least once, sorted.
func (e *Engine) Validators() []inter.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]inter.Address, 0, len(e.records))
	for addr := range e.records {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Stats summarizes addr. Unknown addresses get the default score and an
// empty history.
func (e *Engine) Stats(addr inter.Address) Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st := Stats{Address: addr, Score: e.rules.DefaultScore, TotalRewards: decimal.Zero}
	r, ok := e.records[addr]
	if ok {
		st.Score = r.score
		st.Validations = r.validations
		st.TotalRewards = r.totalRewards
		recent := r.history
		if len(recent) > RecentWindow {
			recent = recent[len(recent)-RecentWindow:]
		}
		st.Recent = append([]Result(nil), recent...)
		for _, res := range recent {
			st.RecentAccuracy += res.Accuracy
		}
		if len(recent) > 0 {
			st.RecentAccuracy /= float64(len(recent))
		}
	}
	st.Rank = Rank(st.Score)
	return st
}

// FraudFlags returns the retained fraud flags, oldest first.
func (e *Engine) FraudFlags() []FraudFlag {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]FraudFlag(nil), e.flags...)
}

// Requirements lists the reward conditions for display.
type Requirements struct {
	MinimumScore           float64         `json:"minimum_ai_score"`
	AccuracyThreshold      float64         `json:"accuracy_threshold"`
	HighAccuracyThreshold  float64         `json:"high_accuracy_threshold"`
	FraudMultiplier        decimal.Decimal `json:"fraud_detection_bonus"`
	HighAccuracyMultiplier decimal.Decimal `json:"high_accuracy_bonus"`
}

// Info summarizes the engine for reporting.
type Info struct {
	RewardPool   decimal.Decimal `json:"reward_pool"`
	RewardsPaid  decimal.Decimal `json:"rewards_paid"`
	BaseReward   decimal.Decimal `json:"base_reward_rate"`
	Validators   int             `json:"total_validators"`
	AverageScore float64         `json:"average_ai_score"`
	FraudFlags   int             `json:"fraud_flags"`
	Requirements Requirements    `json:"validation_requirements"`
}

// Info returns the current AI reward summary. The average is the default
// score while nobody has reported.
func (e *Engine) Info() Info {
	e.mu.RLock()
	defer e.mu.RUnlock()
	info := Info{
		RewardPool:   e.pool.Balance(),
		RewardsPaid:  e.pool.Paid(),
		BaseReward:   e.rules.BaseReward,
		Validators:   len(e.records),
		AverageScore: e.rules.DefaultScore,
		FraudFlags:   len(e.flags),
		Requirements: Requirements{
			MinimumScore:           e.rules.FraudThreshold,
			AccuracyThreshold:      e.rules.AccuracyThreshold,
			HighAccuracyThreshold:  e.rules.HighAccuracyThreshold,
			FraudMultiplier:        e.rules.FraudMultiplier,
			HighAccuracyMultiplier: e.rules.HighAccuracyMultiplier,
		},
	}
	if len(e.records) > 0 {
		sum := 0.0
		for _, r := range e.records {
			sum += r.score
		}
		info.AverageScore = sum / float64(len(e.records))
	}
	return info
}
