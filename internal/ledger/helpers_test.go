package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// scriptedIDs hands out a fixed sequence of ids, then falls back to random ones.
type scriptedIDs struct {
	mu       sync.Mutex
	users    []string
	txns     []string
	fallback *RandomIDGenerator
}

func newScriptedIDs(users, txns []string) *scriptedIDs {
	return &scriptedIDs{users: users, txns: txns, fallback: NewRandomIDGenerator()}
}

func (s *scriptedIDs) NewUserID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.users) == 0 {
		return s.fallback.NewUserID()
	}
	id := s.users[0]
	s.users = s.users[1:]
	return id, nil
}

func (s *scriptedIDs) NewTransactionID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.txns) == 0 {
		return s.fallback.NewTransactionID()
	}
	id := s.txns[0]
	s.txns = s.txns[1:]
	return id, nil
}

type constantIDs struct{ id string }

func (c constantIDs) NewUserID() (string, error)        { return c.id, nil }
func (c constantIDs) NewTransactionID() (string, error) { return c.id, nil }

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validProfile() UserProfile {
	return UserProfile{
		Name: "Ada Lovelace",
		Address: Address{
			Line1:    "12 Marylebone Road",
			Town:     "London",
			County:   "Greater London",
			Postcode: "NW1 5LR",
		},
		PhoneNumber: "+447700900123",
		Email:       "ada@example.com",
	}
}

// sumOf folds a transaction log into the balance it implies.
func sumOf(txns []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.signed())
	}
	return total
}
