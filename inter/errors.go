package inter

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure of a core operation. The routing layer maps
// kinds onto protocol status codes without inspecting message text.
type ErrorKind uint8

const (
	// KindInternal marks an unexpected fault. It is also the kind reported
	// for errors that did not originate in the core.
	KindInternal ErrorKind = iota
	// KindValidation marks malformed or missing input.
	KindValidation
	// KindNotFound marks an unknown account, block, transaction, proposal or position.
	KindNotFound
	// KindInsufficientFunds marks a debit exceeding the available balance.
	KindInsufficientFunds
	// KindInvalidState marks an operation not allowed in the entity's current state.
	KindInvalidState
	// KindCapacity marks an exhausted reward pool or a full pending queue.
	KindCapacity
	// KindUnauthorized marks an operation on an entity owned by someone else.
	KindUnauthorized
)

var kindNames = [...]string{
	KindInternal:          "InternalError",
	KindValidation:        "ValidationError",
	KindNotFound:          "NotFoundError",
	KindInsufficientFunds: "InsufficientFundsError",
	KindInvalidState:      "InvalidStateError",
	KindCapacity:          "CapacityError",
	KindUnauthorized:      "UnauthorizedError",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Error is the typed failure returned by every core operation for expected
// domain conditions.
type Error struct {
	Kind ErrorKind
	Op   string // operation that failed, e.g. "ledger.debit"
	Msg  string
}

// Sentinels usable with errors.Is. They match any *Error of the same kind.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrCapacity          = &Error{Kind: KindCapacity}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
)

// Errorf builds an *Error of the given kind.
func Errorf(kind ErrorKind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

// Is makes sentinel comparison kind-based.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == ""
}

// KindOf reports the kind of err, looking through wrapping. Errors that are
// not *Error report KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a non-nil error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
