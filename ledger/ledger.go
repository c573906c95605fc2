// Package ledger owns every account of the node. It is the only place
// balances change: engines request mutations through Update, which stages
// them on copies of the touched accounts and commits all of them or none.
//
// Locking:
//   - each account has its own mutex; Update acquires the mutexes of every
//     address it touches in ascending address order
//   - the account map has a separate RWMutex held only while looking up or
//     inserting entries, never while an account mutex is being acquired
//
// Callers that also lock engine resources must take ledger locks first, that
// is, call their engine code from inside the Update callback.
package ledger

import (
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-neurax/inter"
)

type entry struct {
	mu  sync.Mutex
	acc inter.Account
}

// Ledger is the account store.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[inter.Address]*entry

	clock clock.Clock
	log   logrus.FieldLogger
}

// New creates an empty ledger.
func New(clk clock.Clock, log logrus.FieldLogger) *Ledger {
	return &Ledger{
		accounts: make(map[inter.Address]*entry),
		clock:    clk,
		log:      log,
	}
}

func (l *Ledger) now() inter.Timestamp {
	return inter.FromTime(l.clock.Now())
}

func (l *Ledger) lookup(addr inter.Address) (*entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.accounts[addr]
	return e, ok
}

// CreateAccount registers a new empty account. It fails with KindInvalidState
// when the address already exists.
func (l *Ledger) CreateAccount(addr inter.Address) (inter.Account, error) {
	if !l.ensure(addr) {
		return inter.Account{}, inter.Errorf(inter.KindInvalidState, "ledger.create", "account %s already exists", addr)
	}
	l.log.WithField("address", addr).Debug("Account created")
	return l.Get(addr)
}

// ensure creates the account for addr when missing and reports whether it
// did. It never touches account mutexes, so it is safe to call while an
// Update holds them.
func (l *Ledger) ensure(addr inter.Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[addr]; ok {
		return false
	}
	l.accounts[addr] = &entry{acc: inter.NewAccount(addr, l.now())}
	return true
}

// Ensure creates an empty account for addr unless one exists.
func (l *Ledger) Ensure(addr inter.Address) {
	if l.ensure(addr) {
		l.log.WithField("address", addr).Debug("Account created")
	}
}

// Exists reports whether addr has an account.
func (l *Ledger) Exists(addr inter.Address) bool {
	_, ok := l.lookup(addr)
	return ok
}

// Get returns a snapshot of the account.
func (l *Ledger) Get(addr inter.Address) (inter.Account, error) {
	e, ok := l.lookup(addr)
	if !ok {
		return inter.Account{}, inter.Errorf(inter.KindNotFound, "ledger.get", "account %s not found", addr)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acc, nil
}

// Credit adds amount to the balance of addr, creating the account on first
// credit.
func (l *Ledger) Credit(addr inter.Address, amount decimal.Decimal) error {
	l.ensure(addr)
	return l.Update([]inter.Address{addr}, func(tx *Txn) error {
		return tx.Credit(addr, amount)
	})
}

// Debit removes amount from the available balance of addr.
func (l *Ledger) Debit(addr inter.Address, amount decimal.Decimal) error {
	return l.Update([]inter.Address{addr}, func(tx *Txn) error {
		return tx.Debit(addr, amount)
	})
}

// Lock reserves amount of the available balance of addr.
func (l *Ledger) Lock(addr inter.Address, amount decimal.Decimal) error {
	return l.Update([]inter.Address{addr}, func(tx *Txn) error {
		return tx.Lock(addr, amount)
	})
}

// Unlock releases a previous Lock.
func (l *Ledger) Unlock(addr inter.Address, amount decimal.Decimal) error {
	return l.Update([]inter.Address{addr}, func(tx *Txn) error {
		return tx.Unlock(addr, amount)
	})
}

// Update runs fn with exclusive access to the accounts listed in addrs. Every
// address must exist. fn mutates the accounts through the Txn; if fn returns
// an error nothing is written, otherwise every touched account is committed
// at once.
func (l *Ledger) Update(addrs []inter.Address, fn func(*Txn) error) error {
	addrs = dedupSorted(addrs)
	entries := make([]*entry, len(addrs))
	for i, addr := range addrs {
		e, ok := l.lookup(addr)
		if !ok {
			return inter.Errorf(inter.KindNotFound, "ledger.update", "account %s not found", addr)
		}
		entries[i] = e
	}

	for _, e := range entries {
		e.mu.Lock()
	}
	defer func() {
		for i := len(entries) - 1; i >= 0; i-- {
			entries[i].mu.Unlock()
		}
	}()

	tx := &Txn{
		now:     l.now(),
		staged:  make(map[inter.Address]*inter.Account, len(entries)),
		touched: make(map[inter.Address]bool, len(entries)),
	}
	for _, e := range entries {
		acc := e.acc
		tx.staged[acc.Address] = &acc
	}

	if err := fn(tx); err != nil {
		return err
	}

	for _, e := range entries {
		staged := tx.staged[e.acc.Address]
		if tx.touched[e.acc.Address] {
			staged.LastActivity = tx.now
		}
		e.acc = *staged
	}
	return nil
}

// Accounts returns a snapshot of every account, ordered by address.
func (l *Ledger) Accounts() []inter.Account {
	l.mu.RLock()
	entries := make([]*entry, 0, len(l.accounts))
	for _, e := range l.accounts {
		entries = append(entries, e)
	}
	l.mu.RUnlock()

	out := make([]inter.Account, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.acc)
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Len returns the number of accounts.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.accounts)
}

// Totals sums balances, staked and locked amounts over all accounts.
func (l *Ledger) Totals() (balance, staked, locked decimal.Decimal) {
	balance, staked, locked = decimal.Zero, decimal.Zero, decimal.Zero
	for _, acc := range l.Accounts() {
		balance = balance.Add(acc.Balance)
		staked = staked.Add(acc.StakedAmount)
		locked = locked.Add(acc.LockedAmount)
	}
	return
}

func dedupSorted(addrs []inter.Address) []inter.Address {
	out := make([]inter.Address, 0, len(addrs))
	seen := make(map[inter.Address]bool, len(addrs))
	for _, a := range addrs {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
