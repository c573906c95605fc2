package txproc

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/aireward"
	"github.com/rony4d/go-neurax/inter"
)

// Request is an unprocessed transaction as submitted by a caller.
type Request struct {
	Type    inter.TxType
	From    inter.Address
	To      inter.Address
	Amount  decimal.Decimal
	Payload inter.Payload
}

// Transfer builds a TRANSFER request.
func Transfer(from, to inter.Address, amount decimal.Decimal, memo string) Request {
	return Request{Type: inter.TxTransfer, From: from, To: to, Amount: amount, Payload: inter.TransferPayload{Memo: memo}}
}

// Stake builds a STAKE request.
func Stake(from inter.Address, amount decimal.Decimal, period inter.LockPeriod) Request {
	return Request{Type: inter.TxStake, From: from, Amount: amount, Payload: inter.StakePayload{LockPeriod: period}}
}

// Unstake builds an UNSTAKE request.
func Unstake(from inter.Address, positionID string) Request {
	return Request{Type: inter.TxUnstake, From: from, Payload: inter.UnstakePayload{PositionID: positionID}}
}

// ClaimRewards builds a CLAIM_REWARDS request.
func ClaimRewards(from inter.Address, positionID string) Request {
	return Request{Type: inter.TxClaimRewards, From: from, Payload: inter.ClaimRewardsPayload{PositionID: positionID}}
}

// Validate builds an AI_VALIDATION request.
func Validate(from inter.Address, p inter.AIValidationPayload) Request {
	return Request{Type: inter.TxAIValidation, From: from, Payload: p}
}

// Propose builds a PROPOSAL request.
func Propose(from inter.Address, title, description string, data map[string]string) Request {
	return Request{Type: inter.TxProposal, From: from, Payload: inter.ProposalPayload{Title: title, Description: description, Data: data}}
}

// Vote builds a VOTE request.
func Vote(from inter.Address, proposalID string, choice inter.VoteChoice, power decimal.Decimal) Request {
	return Request{Type: inter.TxVote, From: from, Payload: inter.VotePayload{ProposalID: proposalID, Choice: choice, Power: power}}
}

// moves reports whether the amount field of t carries value.
func moves(t inter.TxType) bool {
	return t == inter.TxTransfer || t == inter.TxStake
}

// check performs the structural validation of a request: required fields,
// address shapes, amounts and payload shape. It needs no state. Addresses
// are returned in canonical form.
func (r Request) check() (Request, error) {
	const op = "tx.validate"
	if !r.Type.Valid() {
		return r, inter.Errorf(inter.KindValidation, op, "unknown transaction type %d", uint8(r.Type))
	}
	from, err := inter.ParseAddress(string(r.From))
	if err != nil {
		return r, err
	}
	r.From = from

	if r.Amount.IsNegative() {
		return r, inter.Errorf(inter.KindValidation, op, "negative amount %s", r.Amount)
	}
	if moves(r.Type) && !r.Amount.IsPositive() {
		return r, inter.Errorf(inter.KindValidation, op, "%s amount must be positive", r.Type)
	}
	if !moves(r.Type) && !r.Amount.IsZero() {
		return r, inter.Errorf(inter.KindValidation, op, "%s carries no amount", r.Type)
	}

	if r.Payload == nil {
		if r.Type != inter.TxTransfer {
			return r, inter.Errorf(inter.KindValidation, op, "%s requires a payload", r.Type)
		}
		r.Payload = inter.TransferPayload{}
	}
	if r.Payload.Type() != r.Type {
		return r, inter.Errorf(inter.KindValidation, op, "%s payload on a %s transaction", r.Payload.Type(), r.Type)
	}

	switch p := r.Payload.(type) {
	case inter.TransferPayload:
		to, err := inter.ParseAddress(string(r.To))
		if err != nil {
			return r, err
		}
		if to == r.From {
			return r, inter.Errorf(inter.KindValidation, op, "transfer to self")
		}
		r.To = to
	case inter.StakePayload:
		if _, err := inter.ParseLockPeriod(p.LockPeriod.String()); err != nil {
			return r, err
		}
	case inter.UnstakePayload:
		if strings.TrimSpace(p.PositionID) == "" {
			return r, inter.Errorf(inter.KindValidation, op, "position id is required")
		}
	case inter.ClaimRewardsPayload:
		if strings.TrimSpace(p.PositionID) == "" {
			return r, inter.Errorf(inter.KindValidation, op, "position id is required")
		}
	case inter.AIValidationPayload:
		if err := aireward.CheckPayload(p); err != nil {
			return r, err
		}
	case inter.ProposalPayload:
		if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Description) == "" {
			return r, inter.Errorf(inter.KindValidation, op, "proposal needs a title and a description")
		}
	case inter.VotePayload:
		if strings.TrimSpace(p.ProposalID) == "" {
			return r, inter.Errorf(inter.KindValidation, op, "proposal id is required")
		}
		if p.Choice != inter.VoteFor && p.Choice != inter.VoteAgainst {
			return r, inter.Errorf(inter.KindValidation, op, "invalid vote choice")
		}
		if p.Power.IsNegative() {
			return r, inter.Errorf(inter.KindValidation, op, "negative voting power")
		}
	}
	if r.Type != inter.TxTransfer {
		r.To = ""
	}
	return r, nil
}
