package consensus

import (
	"math"
	"sort"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/Fantom-foundation/lachesis-base/inter/pos"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rony4d/go-neurax/inter"
)

// Candidate is a validator eligible for selection with the scores its
// weight derives from.
type Candidate struct {
	Address    inter.Address `json:"address"`
	AIScore    float64       `json:"ai_score"`
	Reputation float64       `json:"reputation_score"`
	Weight     pos.Weight    `json:"weight"`
}

// Weight is the Proof-of-Intelligence selection weight of a candidate: the
// product of its AI and reputation scores, plus one so that a candidate with
// a zero score can still be drawn.
func Weight(aiScore, reputation float64) pos.Weight {
	w := math.Max(0, aiScore) * math.Max(0, reputation)
	if math.IsNaN(w) {
		w = 0
	}
	return pos.Weight(math.Min(w, math.MaxUint32-1)) + 1
}

// Seed is the deterministic draw for the block at height on top of parent.
func Seed(parent common.Hash, height idx.Block) uint64 {
	h := crypto.Keccak256(parent.Bytes(), bigendian.Uint64ToBytes(uint64(height)))
	return bigendian.BytesToUint64(h[:8])
}

// ValidatorSet is a weighted candidate set for one draw.
type ValidatorSet struct {
	candidates []Candidate
	ids        map[idx.ValidatorID]int
	validators *pos.Validators
}

// NewValidatorSet builds a set from candidates. Duplicate addresses keep the
// first entry.
func NewValidatorSet(candidates []Candidate) *ValidatorSet {
	sorted := make([]Candidate, 0, len(candidates))
	seen := make(map[inter.Address]bool, len(candidates))
	for _, c := range candidates {
		if c.Address == "" || seen[c.Address] {
			continue
		}
		seen[c.Address] = true
		c.Weight = Weight(c.AIScore, c.Reputation)
		sorted = append(sorted, c)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Address < sorted[j].Address })

	builder := pos.NewBuilder()
	ids := make(map[idx.ValidatorID]int, len(sorted))
	for i, c := range sorted {
		id := idx.ValidatorID(i + 1)
		builder.Set(id, c.Weight)
		ids[id] = i
	}
	return &ValidatorSet{candidates: sorted, ids: ids, validators: builder.Build()}
}

// Len returns the number of candidates.
func (s *ValidatorSet) Len() int {
	return len(s.candidates)
}

// Candidates returns the candidates ordered by address.
func (s *ValidatorSet) Candidates() []Candidate {
	return append([]Candidate(nil), s.candidates...)
}

// TotalWeight sums the candidate weights.
func (s *ValidatorSet) TotalWeight() pos.Weight {
	return s.validators.TotalWeight()
}

// Select draws a candidate with probability proportional to its weight. The
// same seed over the same set always draws the same candidate.
func (s *ValidatorSet) Select(seed uint64) (Candidate, bool) {
	if len(s.candidates) == 0 {
		return Candidate{}, false
	}
	target := seed % uint64(s.validators.TotalWeight())
	var acc uint64
	for _, id := range s.validators.SortedIDs() {
		acc += uint64(s.validators.Get(id))
		if target < acc {
			return s.candidates[s.ids[id]], true
		}
	}
	return s.candidates[len(s.candidates)-1], true
}
