package inter

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TxType is the closed set of transaction kinds the processor understands.
// Each kind has exactly one Payload implementation; dispatch code switches
// over TxType and the exhaustive switch in Payload construction keeps the two
// in step.
type TxType uint8

const (
	TxTransfer TxType = iota + 1
	TxStake
	TxUnstake
	TxClaimRewards
	TxAIValidation
	TxProposal
	TxVote
)

var txTypeNames = map[TxType]string{
	TxTransfer:     "TRANSFER",
	TxStake:        "STAKE",
	TxUnstake:      "UNSTAKE",
	TxClaimRewards: "CLAIM_REWARDS",
	TxAIValidation: "AI_VALIDATION",
	TxProposal:     "PROPOSAL",
	TxVote:         "VOTE",
}

// TxTypes lists every transaction kind in declaration order.
func TxTypes() []TxType {
	return []TxType{TxTransfer, TxStake, TxUnstake, TxClaimRewards, TxAIValidation, TxProposal, TxVote}
}

func (t TxType) String() string {
	if name, ok := txTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN(" + strconv.Itoa(int(t)) + ")"
}

// Valid reports whether t is one of the declared kinds.
func (t TxType) Valid() bool {
	_, ok := txTypeNames[t]
	return ok
}

// ParseTxType resolves a wire name (case-insensitive) to a TxType.
func ParseTxType(s string) (TxType, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range txTypeNames {
		if name == up {
			return t, nil
		}
	}
	return 0, Errorf(KindValidation, "tx.type", "unknown transaction type %q", s)
}

func (t TxType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TxType) UnmarshalText(b []byte) error {
	parsed, err := ParseTxType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// LockPeriod is the commitment a staker chooses when opening a position.
type LockPeriod uint8

const (
	NoLock LockPeriod = iota
	LockOneMonth
	LockSixMonths
	LockOneYear
)

var lockPeriodNames = [...]string{
	NoLock:        "0",
	LockOneMonth:  "1_month",
	LockSixMonths: "6_months",
	LockOneYear:   "1_year",
}

var lockPeriodDurations = [...]time.Duration{
	NoLock:        0,
	LockOneMonth:  30 * 24 * time.Hour,
	LockSixMonths: 180 * 24 * time.Hour,
	LockOneYear:   365 * 24 * time.Hour,
}

// LockPeriods lists every lock period from shortest to longest.
func LockPeriods() []LockPeriod {
	return []LockPeriod{NoLock, LockOneMonth, LockSixMonths, LockOneYear}
}

func (p LockPeriod) String() string {
	if int(p) < len(lockPeriodNames) {
		return lockPeriodNames[p]
	}
	return "invalid"
}

// Duration is how long the position stays locked before UNSTAKE is allowed.
func (p LockPeriod) Duration() time.Duration {
	if int(p) < len(lockPeriodDurations) {
		return lockPeriodDurations[p]
	}
	return 0
}

// ParseLockPeriod accepts "0", "no_lock", "1_month", "6_months", "1_year".
// An empty string means no lock.
func ParseLockPeriod(s string) (LockPeriod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "no_lock", "none":
		return NoLock, nil
	case "1_month":
		return LockOneMonth, nil
	case "6_months":
		return LockSixMonths, nil
	case "1_year":
		return LockOneYear, nil
	}
	return 0, Errorf(KindValidation, "stake.lock_period", "invalid lock period %q", s)
}

func (p LockPeriod) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *LockPeriod) UnmarshalText(b []byte) error {
	parsed, err := ParseLockPeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// VoteChoice is a voter's side on a proposal.
type VoteChoice uint8

const (
	VoteFor VoteChoice = iota + 1
	VoteAgainst
)

func (c VoteChoice) String() string {
	switch c {
	case VoteFor:
		return "for"
	case VoteAgainst:
		return "against"
	}
	return "invalid"
}

// ParseVoteChoice accepts "for" and "against", case-insensitive.
func ParseVoteChoice(s string) (VoteChoice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "for":
		return VoteFor, nil
	case "against":
		return VoteAgainst, nil
	}
	return 0, Errorf(KindValidation, "vote.choice", "invalid vote choice %q", s)
}

func (c VoteChoice) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *VoteChoice) UnmarshalText(b []byte) error {
	parsed, err := ParseVoteChoice(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Payload carries the type-specific part of a transaction. The interface is
// sealed: only the payload types of this package implement it.
type Payload interface {
	Type() TxType
	// fields returns the canonical encoding of the payload for hashing.
	fields() []string
}

type (
	TransferPayload struct {
		Memo string `json:"memo,omitempty"`
	}

	StakePayload struct {
		LockPeriod LockPeriod `json:"lock_period"`
	}

	UnstakePayload struct {
		PositionID string `json:"position_id"`
	}

	ClaimRewardsPayload struct {
		PositionID string `json:"position_id"`
	}

	// AIValidationPayload reports the outcome of an AI check of another
	// transaction. Accuracy is in [0,1]; Score is the quality score in
	// [0,100] the model assigned to the validated transaction.
	AIValidationPayload struct {
		ValidatedTx common.Hash `json:"validated_tx"`
		Accuracy    float64     `json:"accuracy"`
		Score       float64     `json:"score"`
	}

	ProposalPayload struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Data        map[string]string `json:"data,omitempty"`
	}

	// VotePayload allocates Power of the voter's weight to one side of a
	// proposal. Power is an upper bound checked against the ledger.
	VotePayload struct {
		ProposalID string          `json:"proposal_id"`
		Choice     VoteChoice      `json:"choice"`
		Power      decimal.Decimal `json:"voting_power"`
	}
)

func (TransferPayload) Type() TxType     { return TxTransfer }
func (StakePayload) Type() TxType        { return TxStake }
func (UnstakePayload) Type() TxType      { return TxUnstake }
func (ClaimRewardsPayload) Type() TxType { return TxClaimRewards }
func (AIValidationPayload) Type() TxType { return TxAIValidation }
func (ProposalPayload) Type() TxType     { return TxProposal }
func (VotePayload) Type() TxType         { return TxVote }

func (p TransferPayload) fields() []string { return []string{p.Memo} }
func (p StakePayload) fields() []string    { return []string{p.LockPeriod.String()} }
func (p UnstakePayload) fields() []string  { return []string{p.PositionID} }
func (p ClaimRewardsPayload) fields() []string {
	return []string{p.PositionID}
}

func (p AIValidationPayload) fields() []string {
	return []string{
		p.ValidatedTx.Hex(),
		strconv.FormatFloat(p.Accuracy, 'g', -1, 64),
		strconv.FormatFloat(p.Score, 'g', -1, 64),
	}
}

func (p ProposalPayload) fields() []string {
	out := []string{p.Title, p.Description}
	keys := make([]string, 0, len(p.Data))
	for k := range p.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+p.Data[k])
	}
	return out
}

func (p VotePayload) fields() []string {
	return []string{p.ProposalID, p.Choice.String(), p.Power.String()}
}

// EmptyPayload returns the zero payload for a transaction kind. The switch is
// exhaustive over TxType.
func EmptyPayload(t TxType) (Payload, error) {
	switch t {
	case TxTransfer:
		return TransferPayload{}, nil
	case TxStake:
		return StakePayload{}, nil
	case TxUnstake:
		return UnstakePayload{}, nil
	case TxClaimRewards:
		return ClaimRewardsPayload{}, nil
	case TxAIValidation:
		return AIValidationPayload{}, nil
	case TxProposal:
		return ProposalPayload{}, nil
	case TxVote:
		return VotePayload{}, nil
	}
	return nil, Errorf(KindValidation, "tx.type", "unknown transaction type %d", uint8(t))
}

// TxStatus is the terminal state of a processed transaction.
type TxStatus uint8

const (
	TxPending TxStatus = iota
	TxApplied
	TxRejected
)

func (s TxStatus) String() string {
	switch s {
	case TxPending:
		return "pending"
	case TxApplied:
		return "applied"
	case TxRejected:
		return "rejected"
	}
	return "unknown"
}

func (s TxStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Transaction is an applied (or rejected) state transition. Once applied it
// is never modified; Hash identifies its content and timestamp.
type Transaction struct {
	Hash      common.Hash     `json:"hash"`
	Type      TxType          `json:"type"`
	From      Address         `json:"from_address"`
	To        Address         `json:"to_address,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Fee       decimal.Decimal `json:"fee"`
	Nonce     uint64          `json:"nonce"`
	Payload   Payload         `json:"payload"`
	Timestamp Timestamp       `json:"timestamp"`
	Status    TxStatus        `json:"status"`
}

// Involves reports whether addr is the sender or the recipient.
func (tx *Transaction) Involves(addr Address) bool {
	return tx.From == addr || (tx.To != "" && tx.To == addr)
}

// Transactions is an ordered list of transactions.
type Transactions []*Transaction

// Hashes returns the hashes of the transactions in order.
func (txs Transactions) Hashes() []common.Hash {
	out := make([]common.Hash, len(txs))
	for i, tx := range txs {
		out[i] = tx.Hash
	}
	return out
}

// Receipt is what the processor returns for an applied transaction: the
// transaction itself plus the identifiers and amounts its engine produced.
type Receipt struct {
	Tx           *Transaction    `json:"transaction"`
	PositionID   string          `json:"position_id,omitempty"`
	ProposalID   string          `json:"proposal_id,omitempty"`
	Reward       decimal.Decimal `json:"reward"`
	FraudFlagged bool            `json:"fraud_flagged,omitempty"`
}
