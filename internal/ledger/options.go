package ledger

import "time"

type settings struct {
	now        func() time.Time
	idAttempts int
	sortCode   string
	currency   string
}

// Option configures an Engine or a Directory.
type Option func(*settings)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDAttempts sets the collision retry budget for fresh identifiers.
func WithIDAttempts(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.idAttempts = n
		}
	}
}

// WithSortCode sets the sort code stamped on new accounts.
func WithSortCode(code string) Option {
	return func(s *settings) {
		s.sortCode = code
	}
}

// WithCurrency sets the home currency of new accounts.
func WithCurrency(code string) Option {
	return func(s *settings) {
		s.currency = code
	}
}

func newSettings(opts []Option) settings {
	s := settings{now: time.Now, idAttempts: DefaultIDAttempts}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}
