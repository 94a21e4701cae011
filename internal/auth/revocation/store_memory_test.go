package revocation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bankcore/pkg/platform/sentinel"
)

type InMemoryTRLSuite struct {
	suite.Suite
	ctx   context.Context
	mu    sync.Mutex
	clock time.Time
	trl   *InMemoryTRL
}

func TestInMemoryTRLSuite(t *testing.T) {
	suite.Run(t, new(InMemoryTRLSuite))
}

func (s *InMemoryTRLSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.trl = NewInMemoryTRL()
	s.trl.now = func() time.Time {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.clock
	}
}

func (s *InMemoryTRLSuite) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = s.clock.Add(d)
}

func (s *InMemoryTRLSuite) TestRevokeAndCheck() {
	revoked, err := s.trl.IsRevoked(s.ctx, "jti-1")
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.trl.RevokeToken(s.ctx, "jti-1", time.Minute))

	revoked, err = s.trl.IsRevoked(s.ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)

	revoked, err = s.trl.IsRevoked(s.ctx, "jti-2")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *InMemoryTRLSuite) TestEntriesExpireWithTheToken() {
	s.Require().NoError(s.trl.RevokeToken(s.ctx, "jti-1", time.Minute))
	s.advance(time.Minute)

	revoked, err := s.trl.IsRevoked(s.ctx, "jti-1")
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.trl.RevokeToken(s.ctx, "jti-2", time.Minute))
	s.NotContains(s.trl.revoked, "jti-1")
}

func (s *InMemoryTRLSuite) TestRejectsNonPositiveTTL() {
	err := s.trl.RevokeToken(s.ctx, "jti-1", 0)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *InMemoryTRLSuite) TestEmptyJTIIsIgnored() {
	s.Require().NoError(s.trl.RevokeToken(s.ctx, "", time.Minute))
	revoked, err := s.trl.IsRevoked(s.ctx, "")
	s.Require().NoError(err)
	s.False(revoked)
}
