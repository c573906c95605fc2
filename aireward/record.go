// Package aireward scores validators by the quality of their AI validation
// reports and pays them from the AI reward pool.
//
// Key concepts:
//   - Every address starts at the default score. Each AI_VALIDATION moves the
//     reporter's score toward accuracy*100 as an exponential moving average,
//     clamped to [0,100].
//   - A report rating the validated transaction below the fraud threshold is
//     a fraud detection: it earns the fraud multiplier and raises a fraud
//     flag. Flags are informational and never roll back settled state.
//   - Otherwise an accuracy above the high-accuracy threshold earns the bonus
//     multiplier, and an accuracy below the accuracy threshold earns nothing
//     but still moves the score.
package aireward

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/inter"
)

// Result is one entry of a validator's history.
type Result struct {
	TxHash      common.Hash     `json:"tx_hash"`
	ValidatedTx common.Hash     `json:"validated_tx"`
	Accuracy    float64         `json:"accuracy"`
	Score       float64         `json:"validated_score"`
	Reward      decimal.Decimal `json:"reward"`
	Fraud       bool            `json:"fraud_detected"`
	Timestamp   inter.Timestamp `json:"timestamp"`
}

// FraudFlag marks a transaction reported as fraud-suspect.
type FraudFlag struct {
	ValidatedTx common.Hash     `json:"validated_tx"`
	Reporter    inter.Address   `json:"reporter"`
	Score       float64         `json:"score"`
	Timestamp   inter.Timestamp `json:"timestamp"`
}

// Record is a snapshot of an address's AI standing.
type Record struct {
	Address      inter.Address   `json:"address"`
	Score        float64         `json:"ai_score"`
	Validations  int             `json:"total_validations"`
	TotalRewards decimal.Decimal `json:"total_rewards"`
	FraudReports int             `json:"fraud_reports"`
	History      []Result        `json:"validation_history"`
	UpdatedAt    inter.Timestamp `json:"updated_at"`
}

// Stats summarizes a validator for display.
type Stats struct {
	Address        inter.Address   `json:"address"`
	Score          float64         `json:"ai_score"`
	Validations    int             `json:"total_validations"`
	TotalRewards   decimal.Decimal `json:"total_rewards"`
	RecentAccuracy float64         `json:"recent_accuracy"`
	Recent         []Result        `json:"validation_history"`
	Rank           string          `json:"rank"`
}

// RecentWindow is how many of the latest results Stats averages over.
const RecentWindow = 10

// Rank buckets a score.
func Rank(score float64) string {
	switch {
	case score > 90:
		return "Top 10%"
	case score > 75:
		return "Top 25%"
	}
	return "Average"
}

type record struct {
	score        float64
	validations  int
	totalRewards decimal.Decimal
	fraudReports int
	history      []Result
	updatedAt    inter.Timestamp
}

func (r *record) snapshot(addr inter.Address) Record {
	return Record{
		Address:      addr,
		Score:        r.score,
		Validations:  r.validations,
		TotalRewards: r.totalRewards,
		FraudReports: r.fraudReports,
		History:      append([]Result(nil), r.history...),
		UpdatedAt:    r.updatedAt,
	}
}

// push appends res, dropping the oldest entries beyond limit. A zero limit
// keeps everything.
func (r *record) push(res Result, limit int) {
	r.history = append(r.history, res)
	if limit > 0 && len(r.history) > limit {
		r.history = append(r.history[:0:0], r.history[len(r.history)-limit:]...)
	}
}
