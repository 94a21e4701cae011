package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRequest describes a balance movement to apply. An empty
// Currency means the account's own currency.
type TransactionRequest struct {
	Amount    decimal.Decimal
	Currency  string
	Type      TransactionType
	Reference string
}

const (
	// AmountScale is the number of minor-unit digits an amount may carry.
	AmountScale = 2
	// MaxAmountIntegerDigits bounds the whole-unit part of a single amount.
	MaxAmountIntegerDigits = 15

	// Exponents below this are refused before any rescaling happens, so
	// trailing zeros past AmountScale are only tolerated up to this length.
	minAmountExponent = -8
)

// normalise checks the request and returns it with the amount at AmountScale.
// It only inspects the exponent and digit count of the raw amount until the
// exponent is known to be small, so hostile exponents cost nothing.
func (r TransactionRequest) normalise() (TransactionRequest, error) {
	if !r.Amount.IsPositive() {
		return r, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	exp := int(r.Amount.Exponent())
	if exp > MaxAmountIntegerDigits {
		return r, tooLarge()
	}
	if exp < minAmountExponent {
		return r, tooPrecise()
	}
	if r.Amount.NumDigits()+exp > MaxAmountIntegerDigits {
		return r, tooLarge()
	}
	if exp < -AmountScale {
		truncated := r.Amount.Truncate(AmountScale)
		if !truncated.Equal(r.Amount) {
			return r, tooPrecise()
		}
		r.Amount = truncated
	}
	if !r.Type.IsValid() {
		return r, &ValidationError{Field: "type", Reason: fmt.Sprintf("unsupported transaction type %q", r.Type)}
	}
	return r, nil
}

func tooPrecise() error {
	return &ValidationError{Field: "amount", Reason: fmt.Sprintf("must have at most %d decimal places", AmountScale)}
}

func tooLarge() error {
	return &ValidationError{Field: "amount", Reason: fmt.Sprintf("must have at most %d whole digits", MaxAmountIntegerDigits)}
}

// Engine is the only component that changes a balance. Every Apply is
// check-then-commit under the account's exclusive lock, and transaction ids
// are unique across every account the engine has touched.
type Engine struct {
	ids         IDGenerator
	now         func() time.Time
	maxAttempts int

	// Lock order: account lock, then issuedMu.
	issuedMu sync.Mutex
	issued   map[string]struct{}
}

func NewEngine(ids IDGenerator, opts ...Option) *Engine {
	s := newSettings(opts)
	return &Engine{
		ids:         ids,
		now:         s.now,
		maxAttempts: s.idAttempts,
		issued:      make(map[string]struct{}),
	}
}

// Apply validates req and posts it to the account. On any error the account
// is left untouched.
func (e *Engine) Apply(l *AccountLedger, req TransactionRequest) (Transaction, error) {
	req, err := req.normalise()
	if err != nil {
		return Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return Transaction{}, l.notFound()
	}

	currency, err := resolveCurrency(req.Currency, l.account.Currency)
	if err != nil {
		return Transaction{}, err
	}

	if req.Type == TransactionTypeWithdrawal && l.account.Balance.LessThan(req.Amount) {
		return Transaction{}, &InsufficientFundsError{
			Account:   l.account.Number,
			Requested: req.Amount,
			Available: l.account.Balance,
		}
	}

	id, err := e.reserveID()
	if err != nil {
		return Transaction{}, err
	}

	now := e.now()
	txn := Transaction{
		ID:        id,
		UserID:    l.ownerID,
		Amount:    req.Amount,
		Currency:  currency,
		Type:      req.Type,
		Reference: strings.TrimSpace(req.Reference),
		CreatedAt: now,
	}
	l.txns[id] = txn
	l.order = append(l.order, id)
	l.account.Balance = l.account.Balance.Add(txn.signed())
	l.account.UpdatedAt = now
	return txn, nil
}

// Get looks up a transaction on the given account.
func (e *Engine) Get(l *AccountLedger, id string) (Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return Transaction{}, l.notFound()
	}
	txn, ok := l.txns[id]
	if !ok {
		return Transaction{}, &NotFoundError{Entity: EntityTransaction, Key: id}
	}
	return txn, nil
}

// List returns the account's transactions in the order they were applied.
func (e *Engine) List(l *AccountLedger) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, l.notFound()
	}
	return l.transactionsLocked(), nil
}

func (e *Engine) reserveID() (string, error) {
	e.issuedMu.Lock()
	defer e.issuedMu.Unlock()
	id, err := issueUnique(TransactionIDPrefix, e.maxAttempts, e.ids.NewTransactionID, func(id string) bool {
		_, ok := e.issued[id]
		return ok
	})
	if err != nil {
		return "", err
	}
	e.issued[id] = struct{}{}
	return id, nil
}

// resolveCurrency rejects any currency other than the account's; there is
// no conversion.
func resolveCurrency(requested, accountCurrency string) (string, error) {
	requested = strings.ToUpper(strings.TrimSpace(requested))
	if requested == "" {
		return accountCurrency, nil
	}
	if requested != accountCurrency {
		return "", &ValidationError{
			Field:  "currency",
			Reason: fmt.Sprintf("must match account currency %s", accountCurrency),
		}
	}
	return requested, nil
}
