package governance

import (
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/ledger"
	"github.com/rony4d/go-neurax/neurax"
)

// Engine owns proposals and votes. Create and Vote take a ledger.Txn and
// must be called from inside ledger.Update with the caller locked.
type Engine struct {
	rules neurax.GovernanceRules
	pool  *ledger.Fund
	clock clock.Clock
	log   logrus.FieldLogger

	mu        sync.RWMutex
	proposals map[string]*proposal
	order     []string // creation order
	byVoter   map[inter.Address][]*Vote
}

// NewEngine creates an engine paying voting rewards out of pool.
func NewEngine(rules neurax.GovernanceRules, pool *ledger.Fund, clk clock.Clock, log logrus.FieldLogger) *Engine {
	return &Engine{
		rules:     rules,
		pool:      pool,
		clock:     clk,
		log:       log,
		proposals: make(map[string]*proposal),
		byVoter:   make(map[inter.Address][]*Vote),
	}
}

// Pool returns the governance reward pool.
func (e *Engine) Pool() *ledger.Fund {
	return e.pool
}

// Create opens a proposal by proposer and locks the proposal deposit.
func (e *Engine) Create(tx *ledger.Txn, proposer inter.Address, title, description string, data map[string]string) (Proposal, error) {
	const op = "governance.create"
	title = strings.TrimSpace(title)
	if title == "" {
		return Proposal{}, inter.Errorf(inter.KindValidation, op, "title is required")
	}
	if strings.TrimSpace(description) == "" {
		return Proposal{}, inter.Errorf(inter.KindValidation, op, "description is required")
	}
	if err := tx.Lock(proposer, e.rules.ProposalDeposit); err != nil {
		return Proposal{}, err
	}

	now := tx.Now()
	start := now.Add(e.rules.ProposalDelay)
	end := start.Add(e.rules.VotingDuration)
	p := &proposal{
		Proposal: Proposal{
			ID:            uuid.New().String(),
			Proposer:      proposer,
			Title:         title,
			Description:   description,
			Data:          data,
			Status:        Pending,
			VotesFor:      decimal.Zero,
			VotesAgainst:  decimal.Zero,
			Deposit:       e.rules.ProposalDeposit,
			CreatedAt:     now,
			VotingStart:   start,
			VotingEnd:     end,
			ExecutionTime: end.Add(e.rules.ExecutionDelay),
		},
		votes: make(map[inter.Address]*Vote),
	}

	e.mu.Lock()
	e.proposals[p.ID] = p
	e.order = append(e.order, p.ID)
	snap := p.snapshot()
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{"proposal": p.ID, "proposer": proposer, "title": title}).Info("Proposal created")
	return snap, nil
}

// Vote casts voter's ballot. The granted power is the smaller of the
// requested power and the voter's ledger weight (its whole balance); a zero
// request grants the full weight. A voting reward is paid while the pool
// lasts.
func (e *Engine) Vote(tx *ledger.Txn, voter inter.Address, id string, choice inter.VoteChoice, power decimal.Decimal) (Vote, error) {
	const op = "governance.vote"
	if choice != inter.VoteFor && choice != inter.VoteAgainst {
		return Vote{}, inter.Errorf(inter.KindValidation, op, "invalid vote choice")
	}
	if power.IsNegative() {
		return Vote{}, inter.Errorf(inter.KindValidation, op, "negative voting power")
	}
	acc, err := tx.Get(voter)
	if err != nil {
		return Vote{}, err
	}
	weight := acc.Total()
	if !weight.IsPositive() {
		return Vote{}, inter.Errorf(inter.KindInsufficientFunds, op, "%s has no voting weight", voter)
	}
	granted := weight
	if power.IsPositive() {
		granted = inter.MinDecimal(power, weight)
	}

	now := tx.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.proposals[id]
	if !ok {
		return Vote{}, inter.Errorf(inter.KindNotFound, op, "proposal %s not found", id)
	}
	if p.Status != Pending {
		return Vote{}, inter.Errorf(inter.KindInvalidState, op, "proposal %s is %s", id, p.Status)
	}
	if now.Before(p.VotingStart) {
		return Vote{}, inter.Errorf(inter.KindInvalidState, op, "voting on %s has not started", id)
	}
	if !now.Before(p.VotingEnd) {
		return Vote{}, inter.Errorf(inter.KindInvalidState, op, "voting on %s has ended", id)
	}
	if _, voted := p.votes[voter]; voted {
		return Vote{}, inter.Errorf(inter.KindInvalidState, op, "%s already voted on %s", voter, id)
	}

	reward, err := e.pool.Draw(e.rules.VotingReward)
	if err != nil {
		reward = decimal.Zero
	}
	if err := tx.Credit(voter, reward); err != nil {
		e.pool.Refund(reward)
		return Vote{}, err
	}

	v := &Vote{Voter: voter, ProposalID: id, Choice: choice, Power: granted, Reward: reward, Timestamp: now}
	p.votes[voter] = v
	p.order = append(p.order, voter)
	if choice == inter.VoteFor {
		p.VotesFor = p.VotesFor.Add(granted)
	} else {
		p.VotesAgainst = p.VotesAgainst.Add(granted)
	}
	e.byVoter[voter] = append(e.byVoter[voter], v)

	e.log.WithFields(logrus.Fields{"proposal": id, "voter": voter, "choice": choice, "power": granted}).Info("Vote cast")
	return *v, nil
}

// Tick advances proposal lifecycles to now: closes voting windows, unlocks
// deposits and executes passed proposals whose delay elapsed. It returns the
// proposals that changed status.
func (e *Engine) Tick(l *ledger.Ledger) []Proposal {
	now := inter.FromTime(e.clock.Now())

	e.mu.RLock()
	var due []*proposal
	for _, id := range e.order {
		p := e.proposals[id]
		if (p.Status == Pending && !now.Before(p.VotingEnd)) || (p.Status == Passed && !now.Before(p.ExecutionTime)) {
			due = append(due, p)
		}
	}
	e.mu.RUnlock()

	var changed []Proposal
	for _, p := range due {
		err := l.Update([]inter.Address{p.Proposer}, func(tx *ledger.Txn) error {
			e.mu.Lock()
			defer e.mu.Unlock()
			switch {
			case p.Status == Pending && !now.Before(p.VotingEnd):
				if err := tx.Unlock(p.Proposer, p.Deposit); err != nil {
					return err
				}
				p.Status = Rejected
				if p.VotesFor.GreaterThan(p.VotesAgainst) && p.TotalVotes().GreaterThanOrEqual(e.rules.ProposalThreshold) {
					p.Status = Passed
				}
				p.FinalizedAt = now
				if p.Status == Passed && !now.Before(p.ExecutionTime) {
					e.execute(p, now)
				}
			case p.Status == Passed && !now.Before(p.ExecutionTime):
				e.execute(p, now)
			default:
				return nil
			}
			changed = append(changed, p.snapshot())
			return nil
		})
		if err != nil {
			e.log.WithError(err).WithField("proposal", p.ID).Error("Failed to advance proposal")
			continue
		}
	}
	for _, p := range changed {
		e.log.WithFields(logrus.Fields{"proposal": p.ID, "status": p.Status, "for": p.VotesFor, "against": p.VotesAgainst}).Info("Proposal advanced")
	}
	return changed
}

// execute marks a passed proposal executed. Proposals carry no executable
// action, so execution only records the transition. Engine lock held.
func (e *Engine) execute(p *proposal, now inter.Timestamp) {
	p.Status = Executed
	p.ExecutedAt = now
}

// Proposal returns a snapshot of one proposal.
func (e *Engine) Proposal(id string) (Proposal, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.proposals[id]
	if !ok {
		return Proposal{}, inter.Errorf(inter.KindNotFound, "governance.proposal", "proposal %s not found", id)
	}
	return p.snapshot(), nil
}

// Proposals lists proposals newest-first, optionally filtered by status.
func (e *Engine) Proposals(status *Status, req inter.PageRequest) ([]Proposal, inter.Page) {
	req = req.Normalize(10, 50)
	e.mu.RLock()
	defer e.mu.RUnlock()
	matched := make([]*proposal, 0, len(e.order))
	for i := len(e.order) - 1; i >= 0; i-- {
		p := e.proposals[e.order[i]]
		if status == nil || p.Status == *status {
			matched = append(matched, p)
		}
	}
	start, end, page := req.Bounds(len(matched))
	out := make([]Proposal, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, p.snapshot())
	}
	return out, page
}

// Votes returns the ballots of a proposal in casting order.
func (e *Engine) Votes(id string) ([]Vote, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.proposals[id]
	if !ok {
		return nil, inter.Errorf(inter.KindNotFound, "governance.votes", "proposal %s not found", id)
	}
	out := make([]Vote, 0, len(p.order))
	for _, voter := range p.order {
		out = append(out, *p.votes[voter])
	}
	return out, nil
}

// VotesBy returns the ballots cast by voter, oldest first.
func (e *Engine) VotesBy(voter inter.Address) []Vote {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Vote, 0, len(e.byVoter[voter]))
	for _, v := range e.byVoter[voter] {
		out = append(out, *v)
	}
	return out
}

// Info summarizes governance for reporting.
type Info struct {
	TotalProposals    int                    `json:"total_proposals"`
	ActiveProposals   int                    `json:"active_proposals"`
	TotalVotes        int                    `json:"total_votes"`
	RewardPool        decimal.Decimal        `json:"reward_pool"`
	ProposalThreshold decimal.Decimal        `json:"proposal_threshold"`
	ProposalDeposit   decimal.Decimal        `json:"proposal_deposit"`
	VotingReward      decimal.Decimal        `json:"voting_reward"`
	Rules             neurax.GovernanceRules `json:"governance_parameters"`
}

// Info returns the current governance summary.
func (e *Engine) Info() Info {
	e.mu.RLock()
	defer e.mu.RUnlock()
	info := Info{
		TotalProposals:    len(e.proposals),
		RewardPool:        e.pool.Balance(),
		ProposalThreshold: e.rules.ProposalThreshold,
		ProposalDeposit:   e.rules.ProposalDeposit,
		VotingReward:      e.rules.VotingReward,
		Rules:             e.rules,
	}
	for _, p := range e.proposals {
		if p.Status == Pending {
			info.ActiveProposals++
		}
		info.TotalVotes += len(p.votes)
	}
	return info
}
