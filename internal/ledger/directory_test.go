package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "bankcore/pkg/domain-errors"
)

type DirectorySuite struct {
	suite.Suite
	clock *fakeClock
	dir   *Directory
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectorySuite))
}

func (s *DirectorySuite) SetupTest() {
	s.clock = newFakeClock()
	s.dir = NewDirectory(NewRandomIDGenerator(), WithClock(s.clock.Now))
}

func (s *DirectorySuite) TestCreate() {
	s.Run("registers a user with a fresh id", func() {
		user, err := s.dir.Create(validProfile())
		s.Require().NoError(err)

		s.True(IsValidID(user.ID, UserIDPrefix))
		s.Equal("Ada Lovelace", user.Name)
		s.Equal(s.clock.Now(), user.CreatedAt)
		s.Equal(user.CreatedAt, user.UpdatedAt)

		got, err := s.dir.Get(user.ID)
		s.Require().NoError(err)
		s.Equal(user, got)
	})

	s.Run("new user has an empty account store", func() {
		user, err := s.dir.Create(validProfile())
		s.Require().NoError(err)
		store, err := s.dir.Accounts(user.ID)
		s.Require().NoError(err)
		s.Empty(store.List())
	})
}

func (s *DirectorySuite) TestCreateRejectsInvalidProfiles() {
	cases := []struct {
		name   string
		mutate func(p *UserProfile)
		field  string
	}{
		{"blank name", func(p *UserProfile) { p.Name = " " }, "name"},
		{"missing address line", func(p *UserProfile) { p.Address.Line1 = "" }, "address.line1"},
		{"missing town", func(p *UserProfile) { p.Address.Town = "" }, "address.town"},
		{"missing county", func(p *UserProfile) { p.Address.County = "" }, "address.county"},
		{"missing postcode", func(p *UserProfile) { p.Address.Postcode = "" }, "address.postcode"},
		{"phone without plus", func(p *UserProfile) { p.PhoneNumber = "07700900123" }, "phoneNumber"},
		{"phone with leading zero", func(p *UserProfile) { p.PhoneNumber = "+07700900123" }, "phoneNumber"},
		{"malformed email", func(p *UserProfile) { p.Email = "not-an-email" }, "email"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			profile := validProfile()
			tc.mutate(&profile)

			_, err := s.dir.Create(profile)
			var verr *ValidationError
			s.Require().ErrorAs(err, &verr)
			s.Equal(tc.field, verr.Field)
		})
	}
	s.Equal(0, s.dir.Count())
}

func (s *DirectorySuite) TestCreateRetriesOnCollision() {
	ids := newScriptedIDs([]string{"usr-AAAAAA", "usr-AAAAAA", "usr-BBBBBB"}, nil)
	dir := NewDirectory(ids)

	first, err := dir.Create(validProfile())
	s.Require().NoError(err)
	second, err := dir.Create(validProfile())
	s.Require().NoError(err)

	s.Equal("usr-AAAAAA", first.ID)
	s.Equal("usr-BBBBBB", second.ID)
}

func (s *DirectorySuite) TestCreateGivesUpAfterBudget() {
	dir := NewDirectory(constantIDs{id: "usr-AAAAAA"}, WithIDAttempts(2))
	_, err := dir.Create(validProfile())
	s.Require().NoError(err)

	_, err = dir.Create(validProfile())
	var collision *IdentifierCollisionError
	s.Require().ErrorAs(err, &collision)
	s.Equal(1, dir.Count())
}

func (s *DirectorySuite) TestGetUnknown() {
	_, err := s.dir.Get("usr-ZZZZZZ")
	var nf *NotFoundError
	s.Require().ErrorAs(err, &nf)
	s.Equal(EntityUser, nf.Entity)
	s.Equal("usr-ZZZZZZ", nf.Key)

	_, err = s.dir.Accounts("usr-ZZZZZZ")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *DirectorySuite) TestUpdate() {
	user, err := s.dir.Create(validProfile())
	s.Require().NoError(err)

	s.Run("partial update keeps other fields", func() {
		s.clock.Advance(time.Minute)
		email := "ada@analytical-engine.org"
		got, err := s.dir.Update(user.ID, UserPatch{Email: &email})
		s.Require().NoError(err)
		s.Equal(email, got.Email)
		s.Equal(user.Name, got.Name)
		s.Equal(user.Address, got.Address)
		s.Equal(user.CreatedAt, got.CreatedAt)
		s.True(got.UpdatedAt.After(user.UpdatedAt))
	})

	s.Run("invalid patch changes nothing", func() {
		before, err := s.dir.Get(user.ID)
		s.Require().NoError(err)

		phone := "12345"
		_, err = s.dir.Update(user.ID, UserPatch{PhoneNumber: &phone})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		after, err := s.dir.Get(user.ID)
		s.Require().NoError(err)
		s.Equal(before, after)
	})

	s.Run("unknown user", func() {
		name := "Grace"
		_, err := s.dir.Update("usr-ZZZZZZ", UserPatch{Name: &name})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *DirectorySuite) TestDeleteDiscardsAccounts() {
	user, err := s.dir.Create(validProfile())
	s.Require().NoError(err)
	store, err := s.dir.Accounts(user.ID)
	s.Require().NoError(err)
	acct, err := store.Create("Everyday", AccountTypePersonal)
	s.Require().NoError(err)
	held, err := store.Ledger(acct.Number)
	s.Require().NoError(err)

	s.Require().NoError(s.dir.Delete(user.ID))

	_, err = s.dir.Get(user.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.dir.Accounts(user.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	engine := NewEngine(NewRandomIDGenerator())
	_, err = engine.Apply(held, TransactionRequest{Amount: amount("1"), Type: TransactionTypeDeposit})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.True(dErrors.HasCode(s.dir.Delete(user.ID), dErrors.CodeNotFound))
}

func (s *DirectorySuite) TestHeldStoreRefusesAccountsAfterUserDelete() {
	user, err := s.dir.Create(validProfile())
	s.Require().NoError(err)
	store, err := s.dir.Accounts(user.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.dir.Delete(user.ID))

	_, err = store.Create("Late", AccountTypePersonal)
	var nf *NotFoundError
	s.Require().ErrorAs(err, &nf)
	s.Equal(EntityUser, nf.Entity)
	s.Equal(user.ID, nf.Key)
	s.Empty(store.List())
}

func (s *DirectorySuite) TestAccountsUseDeploymentSettings() {
	dir := NewDirectory(NewRandomIDGenerator(), WithSortCode("20-00-00"), WithCurrency("EUR"))
	user, err := dir.Create(validProfile())
	s.Require().NoError(err)
	store, err := dir.Accounts(user.ID)
	s.Require().NoError(err)

	acct, err := store.Create("Holiday", AccountTypeSavings)
	s.Require().NoError(err)
	s.Equal("20-00-00", acct.SortCode)
	s.Equal("EUR", acct.Currency)
}
