package ledger

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	dErrors "bankcore/pkg/domain-errors"
)

const (
	DefaultSortCode = "01-01-01"
	DefaultCurrency = "GBP"

	accountNumberPrefix = "01"
	maxAccountSequence  = 999999
)

// StoreConfig holds the per-deployment values stamped on new accounts.
type StoreConfig struct {
	SortCode string
	Currency string
	Now      func() time.Time
}

func (c StoreConfig) withDefaults() StoreConfig {
	if c.SortCode == "" {
		c.SortCode = DefaultSortCode
	}
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	c.Currency = strings.ToUpper(c.Currency)
	return c
}

// AccountPatch carries the fields to change on update; nil fields are left as is.
type AccountPatch struct {
	Name *string
	Type *AccountType
}

// AccountStore holds one user's accounts keyed by account number. The number
// sequence only moves forward, so numbers of deleted accounts are never
// handed out again.
type AccountStore struct {
	mu       sync.RWMutex
	ownerID  string
	cfg      StoreConfig
	nextSeq  int
	accounts map[string]*AccountLedger
	order    []string
	closed   bool
}

func NewAccountStore(ownerID string, cfg StoreConfig) *AccountStore {
	return &AccountStore{
		ownerID:  ownerID,
		cfg:      cfg.withDefaults(),
		nextSeq:  1,
		accounts: make(map[string]*AccountLedger),
	}
}

// Create opens a zero-balance account in the deployment currency.
func (s *AccountStore) Create(name string, accountType AccountType) (Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Account{}, blank("name")
	}
	if !accountType.IsValid() {
		return Account{}, &ValidationError{Field: "accountType", Reason: fmt.Sprintf("unsupported account type %q", accountType)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Account{}, &NotFoundError{Entity: EntityUser, Key: s.ownerID}
	}
	if s.nextSeq > maxAccountSequence {
		return Account{}, dErrors.New(dErrors.CodeConflict, "account number space exhausted")
	}
	number := fmt.Sprintf("%s%06d", accountNumberPrefix, s.nextSeq)
	s.nextSeq++

	now := s.cfg.Now()
	account := Account{
		Number:    number,
		SortCode:  s.cfg.SortCode,
		Name:      name,
		Type:      accountType,
		Balance:   decimal.Zero,
		Currency:  s.cfg.Currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[number] = newAccountLedger(s.ownerID, account)
	s.order = append(s.order, number)
	return account, nil
}

func (s *AccountStore) Get(number string) (Account, error) {
	l, err := s.Ledger(number)
	if err != nil {
		return Account{}, err
	}
	return l.Snapshot(), nil
}

// Ledger resolves the handle that Engine operates on.
func (s *AccountStore) Ledger(number string) (*AccountLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.accounts[number]
	if !ok {
		return nil, &NotFoundError{Entity: EntityAccount, Key: number}
	}
	return l, nil
}

// Update applies the non-nil fields of patch and stamps the update time.
func (s *AccountStore) Update(number string, patch AccountPatch) (Account, error) {
	var name string
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
		if name == "" {
			return Account{}, blank("name")
		}
	}
	if patch.Type != nil && !patch.Type.IsValid() {
		return Account{}, &ValidationError{Field: "accountType", Reason: fmt.Sprintf("unsupported account type %q", *patch.Type)}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.accounts[number]
	if !ok {
		return Account{}, &NotFoundError{Entity: EntityAccount, Key: number}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if patch.Name != nil {
		l.account.Name = name
	}
	if patch.Type != nil {
		l.account.Type = *patch.Type
	}
	l.account.UpdatedAt = s.cfg.Now()
	return l.account, nil
}

// Delete removes the account and its history regardless of balance.
func (s *AccountStore) Delete(number string) error {
	s.mu.Lock()
	l, ok := s.accounts[number]
	if !ok {
		s.mu.Unlock()
		return &NotFoundError{Entity: EntityAccount, Key: number}
	}
	delete(s.accounts, number)
	if i := slices.Index(s.order, number); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	s.mu.Unlock()

	l.close()
	return nil
}

// List returns snapshots in creation order.
func (s *AccountStore) List() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Account, 0, len(s.order))
	for _, number := range s.order {
		out = append(out, s.accounts[number].Snapshot())
	}
	return out
}

// closeAll detaches every ledger and refuses new accounts; used when the
// owning user is deleted.
func (s *AccountStore) closeAll() {
	s.mu.Lock()
	s.closed = true
	ledgers := make([]*AccountLedger, 0, len(s.accounts))
	for _, l := range s.accounts {
		ledgers = append(ledgers, l)
	}
	s.accounts = make(map[string]*AccountLedger)
	s.order = nil
	s.mu.Unlock()

	for _, l := range ledgers {
		l.close()
	}
}
