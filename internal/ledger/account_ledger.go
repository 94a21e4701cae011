package ledger

import "sync"

// AccountLedger is the live state of one account: its balance and the
// transactions that produced it. All reads go through the account's lock, so
// callers always observe a balance together with the log it was derived from.
// Balances only change through Engine.Apply.
type AccountLedger struct {
	mu      sync.RWMutex
	ownerID string
	account Account
	txns    map[string]Transaction
	order   []string
	closed  bool
}

func newAccountLedger(ownerID string, account Account) *AccountLedger {
	return &AccountLedger{
		ownerID: ownerID,
		account: account,
		txns:    make(map[string]Transaction),
	}
}

// Number is fixed at creation and readable without locking.
func (l *AccountLedger) Number() string {
	return l.account.Number
}

// Snapshot returns a copy of the account state.
func (l *AccountLedger) Snapshot() Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.account
}

// Statement returns the account and its transactions, in insertion order,
// read under a single lock acquisition.
func (l *AccountLedger) Statement() (Account, []Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return Account{}, nil, l.notFound()
	}
	return l.account, l.transactionsLocked(), nil
}

func (l *AccountLedger) transactionsLocked() []Transaction {
	out := make([]Transaction, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.txns[id])
	}
	return out
}

// close detaches the ledger from its store. Handles still held by callers
// reject further transactions.
func (l *AccountLedger) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.txns = nil
	l.order = nil
}

func (l *AccountLedger) notFound() error {
	return &NotFoundError{Entity: EntityAccount, Key: l.account.Number}
}
