// Package governance implements on-chain proposals and weighted voting.
//
// Proposal lifecycle:
//
//	pending --voting end, for > against and quorum met--> passed --execution delay--> executed
//	pending --voting end otherwise--> rejected
//
// Transitions only move forward. Votes are accepted while a proposal is
// pending and the clock is inside [voting_start, voting_end).
package governance

import (
	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/inter"
)

// Status is the phase of a proposal.
type Status uint8

const (
	Pending Status = iota
	Passed
	Rejected
	Executed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Passed:
		return "passed"
	case Rejected:
		return "rejected"
	case Executed:
		return "executed"
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStatus resolves a status name.
func ParseStatus(s string) (Status, error) {
	for _, st := range []Status{Pending, Passed, Rejected, Executed} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, inter.Errorf(inter.KindValidation, "governance.status", "unknown proposal status %q", s)
}

// Proposal is a snapshot of a proposal.
type Proposal struct {
	ID            string            `json:"id"`
	Proposer      inter.Address     `json:"proposer"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Data          map[string]string `json:"data,omitempty"`
	Status        Status            `json:"status"`
	VotesFor      decimal.Decimal   `json:"votes_for"`
	VotesAgainst  decimal.Decimal   `json:"votes_against"`
	Voters        int               `json:"voters"`
	Deposit       decimal.Decimal   `json:"deposit"`
	CreatedAt     inter.Timestamp   `json:"created_at"`
	VotingStart   inter.Timestamp   `json:"voting_start"`
	VotingEnd     inter.Timestamp   `json:"voting_end"`
	ExecutionTime inter.Timestamp   `json:"execution_time"`
	FinalizedAt   inter.Timestamp   `json:"finalized_at,omitempty"`
	ExecutedAt    inter.Timestamp   `json:"executed_at,omitempty"`
}

// TotalVotes is the voting power cast on the proposal.
func (p Proposal) TotalVotes() decimal.Decimal {
	return p.VotesFor.Add(p.VotesAgainst)
}

// Percentages returns the share of for and against votes in percent. Both
// are zero when nobody voted.
func (p Proposal) Percentages() (forPct, againstPct float64) {
	total := p.TotalVotes()
	if !total.IsPositive() {
		return 0, 0
	}
	hundred := decimal.NewFromInt(100)
	forPct, _ = p.VotesFor.Mul(hundred).DivRound(total, 4).Float64()
	againstPct, _ = p.VotesAgainst.Mul(hundred).DivRound(total, 4).Float64()
	return forPct, againstPct
}

// Vote is an immutable ballot.
type Vote struct {
	Voter      inter.Address    `json:"voter"`
	ProposalID string           `json:"proposal_id"`
	Choice     inter.VoteChoice `json:"choice"`
	Power      decimal.Decimal  `json:"voting_power"`
	Reward     decimal.Decimal  `json:"reward"`
	Timestamp  inter.Timestamp  `json:"timestamp"`
}

type proposal struct {
	Proposal
	votes map[inter.Address]*Vote
	order []inter.Address
}

func (p *proposal) snapshot() Proposal {
	cp := p.Proposal
	if p.Data != nil {
		cp.Data = make(map[string]string, len(p.Data))
		for k, v := range p.Data {
			cp.Data[k] = v
		}
	}
	cp.Voters = len(p.votes)
	return cp
}
