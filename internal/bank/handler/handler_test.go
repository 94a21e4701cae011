package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"bankcore/internal/audit"
	"bankcore/internal/auth/token"
	"bankcore/internal/bank/handler/mocks"
	"bankcore/internal/bank/service"
	"bankcore/internal/ledger"
	"bankcore/internal/platform/middleware"
	dErrors "bankcore/pkg/domain-errors"
	"bankcore/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/service-mocks.go -package=mocks Service

const (
	ownerID    = "usr-Owner1"
	ownerToken = "owner-token"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	if tokenString != ownerToken {
		return nil, errors.New("invalid token")
	}
	return &middleware.JWTClaims{UserID: ownerID, JTI: "jti-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type BankHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
}

func TestBankHandlerSuite(t *testing.T) {
	suite.Run(t, new(BankHandlerSuite))
}

func (s *BankHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(s.service, logger, nil, stubValidator{}, nil).Register(r)
	s.router = r
}

func (s *BankHandlerSuite) authed(req *http.Request) *http.Request {
	return testutil.WithBearer(req, ownerToken)
}

func sampleAccount() ledger.Account {
	created := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	return ledger.Account{
		Number:    "01000001",
		SortCode:  "01-01-01",
		Name:      "Everyday",
		Type:      ledger.AccountTypePersonal,
		Balance:   decimal.RequireFromString("100.50"),
		Currency:  "GBP",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func (s *BankHandlerSuite) TestCreateUser() {
	body := CreateUserRequest{
		Name: "Ada Lovelace",
		Address: addressPayload{
			Line1: "12 Marylebone Road", Town: "London", County: "Greater London", Postcode: "NW1 5LR",
		},
		PhoneNumber: "+447700900123",
		Email:       "ada@example.com",
	}

	s.Run("returns the user and a token", func() {
		s.service.EXPECT().CreateUser(gomock.Any(), body.toProfile()).Return(service.Registration{
			User:  ledger.User{ID: "usr-Abc123", Name: body.Name, Email: body.Email},
			Token: token.IssuedToken{Value: "signed.jwt.value", ID: "jti", ExpiresAt: time.Now().Add(time.Hour)},
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/users", body))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		s.Equal("/v1/users/usr-Abc123", rr.Header().Get("Location"))
		resp := testutil.UnmarshalResponse[CreateUserResponse](s.T(), rr)
		s.Equal("usr-Abc123", resp.ID)
		s.Equal("signed.jwt.value", resp.Token)
	})

	s.Run("malformed body never reaches the service", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/v1/users", `{"name":`))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("validation errors are 400", func() {
		s.service.EXPECT().CreateUser(gomock.Any(), gomock.Any()).
			Return(service.Registration{}, &ledger.ValidationError{Field: "email", Reason: "must be a valid email address"})

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/users", body))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("non-JSON content type is refused", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/v1/users", "name=ada")
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnsupportedMediaType)
	})
}

func (s *BankHandlerSuite) TestUserRoutesRequireOwnership() {
	s.Run("missing token", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/users/"+ownerID))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})

	s.Run("another user's id", func() {
		req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/v1/users/usr-Other1"))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("malformed id is not found without reaching the service", func() {
		for _, id := range []string{"usr-toolong1", "usr-ab!de1", "acc-Owner1"} {
			req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/v1/users/"+id))
			rr := testutil.DoRequest(s.router, req)
			testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
		}
	})

	s.Run("own id", func() {
		s.service.EXPECT().GetUser(gomock.Any(), ownerID).Return(ledger.User{ID: ownerID, Name: "Ada"}, nil)
		req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/v1/users/"+ownerID))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[UserResponse](s.T(), rr)
		s.Equal("Ada", resp.Name)
	})

	s.Run("delete", func() {
		s.service.EXPECT().DeleteUser(gomock.Any(), ownerID).Return(nil)
		req := s.authed(testutil.NewRequest(s.T(), http.MethodDelete, "/v1/users/"+ownerID))
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusNoContent)
	})
}

func (s *BankHandlerSuite) TestUpdateUserPassesOnlyPresentFields() {
	s.service.EXPECT().UpdateUser(gomock.Any(), ownerID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, patch ledger.UserPatch) (ledger.User, error) {
			s.Require().NotNil(patch.Email)
			s.Equal("new@example.com", *patch.Email)
			s.Nil(patch.Name)
			s.Nil(patch.Address)
			return ledger.User{ID: ownerID, Email: *patch.Email}, nil
		})

	req := s.authed(testutil.NewRequestWithBody(s.T(), http.MethodPatch, "/v1/users/"+ownerID, `{"email":"new@example.com"}`))
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *BankHandlerSuite) TestAccounts() {
	s.Run("create", func() {
		s.service.EXPECT().CreateAccount(gomock.Any(), ownerID, "Everyday", ledger.AccountTypePersonal).Return(sampleAccount(), nil)

		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/accounts",
			CreateAccountRequest{Name: "Everyday", AccountType: "personal"}))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		s.Equal("/v1/accounts/01000001", rr.Header().Get("Location"))
		resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal("100.5", (*resp)["balance"])
		s.Equal("PERSONAL", (*resp)["accountType"])
		s.Equal("01-01-01", (*resp)["sortCode"])
	})

	s.Run("create with unknown type", func() {
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/accounts",
			CreateAccountRequest{Name: "Everyday", AccountType: "CHECKING"}))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("empty list is an empty array", func() {
		s.service.EXPECT().ListAccounts(gomock.Any(), ownerID).Return(nil, nil)

		rr := testutil.DoRequest(s.router, s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/v1/accounts")))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.JSONEq(`{"accounts":[]}`, rr.Body.String())
	})

	s.Run("unknown account", func() {
		s.service.EXPECT().GetAccount(gomock.Any(), ownerID, "01999999").
			Return(ledger.Account{}, &ledger.NotFoundError{Entity: ledger.EntityAccount, Key: "01999999"})

		rr := testutil.DoRequest(s.router, s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/v1/accounts/01999999")))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("update type", func() {
		s.service.EXPECT().UpdateAccount(gomock.Any(), ownerID, "01000001", gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string, patch ledger.AccountPatch) (ledger.Account, error) {
				s.Require().NotNil(patch.Type)
				s.Equal(ledger.AccountTypeSavings, *patch.Type)
				acct := sampleAccount()
				acct.Type = *patch.Type
				return acct, nil
			})

		req := s.authed(testutil.NewRequestWithBody(s.T(), http.MethodPatch, "/v1/accounts/01000001", `{"accountType":"SAVINGS"}`))
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusOK)
	})

	s.Run("delete", func() {
		s.service.EXPECT().DeleteAccount(gomock.Any(), ownerID, "01000001").Return(nil)
		req := s.authed(testutil.NewRequest(s.T(), http.MethodDelete, "/v1/accounts/01000001"))
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusNoContent)
	})
}

func (s *BankHandlerSuite) TestTransactions() {
	path := "/v1/accounts/01000001/transactions"

	s.Run("post", func() {
		s.service.EXPECT().PostTransaction(gomock.Any(), ownerID, "01000001", gomock.Any()).
			DoAndReturn(func(_ context.Context, userID, _ string, req ledger.TransactionRequest) (ledger.Transaction, error) {
				s.True(req.Amount.Equal(decimal.RequireFromString("25.10")))
				s.Equal(ledger.TransactionTypeDeposit, req.Type)
				return ledger.Transaction{
					ID: "tan-Xyz789", UserID: userID, Amount: req.Amount, Currency: "GBP", Type: req.Type,
				}, nil
			})

		req := s.authed(testutil.NewRequestWithBody(s.T(), http.MethodPost, path, `{"amount":"25.10","currency":"GBP","type":"deposit"}`))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		s.Equal(path+"/tan-Xyz789", rr.Header().Get("Location"))
		resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal("25.1", (*resp)["amount"])
		s.Equal("DEPOSIT", (*resp)["type"])
	})

	s.Run("insufficient funds is 422", func() {
		s.service.EXPECT().PostTransaction(gomock.Any(), ownerID, "01000001", gomock.Any()).
			Return(ledger.Transaction{}, &ledger.InsufficientFundsError{
				Account:   "01000001",
				Requested: decimal.RequireFromString("150"),
				Available: decimal.RequireFromString("100"),
			})

		req := s.authed(testutil.NewRequestWithBody(s.T(), http.MethodPost, path, `{"amount":"150","type":"WITHDRAWAL"}`))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, string(dErrors.CodeInsufficientFunds))
	})

	s.Run("unknown type never reaches the service", func() {
		req := s.authed(testutil.NewRequestWithBody(s.T(), http.MethodPost, path, `{"amount":"1","type":"TRANSFER"}`))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("list", func() {
		s.service.EXPECT().ListTransactions(gomock.Any(), ownerID, "01000001").Return([]ledger.Transaction{
			{ID: "tan-One111", Amount: decimal.RequireFromString("50"), Type: ledger.TransactionTypeDeposit},
			{ID: "tan-Two222", Amount: decimal.RequireFromString("30"), Type: ledger.TransactionTypeDeposit},
		}, nil)

		rr := testutil.DoRequest(s.router, s.authed(testutil.NewRequest(s.T(), http.MethodGet, path)))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[ListTransactionsResponse](s.T(), rr)
		s.Require().Len(resp.Transactions, 2)
		s.Equal("tan-One111", resp.Transactions[0].ID)
	})

	s.Run("get", func() {
		s.service.EXPECT().GetTransaction(gomock.Any(), ownerID, "01000001", "tan-One111").
			Return(ledger.Transaction{ID: "tan-One111", Type: ledger.TransactionTypeWithdrawal}, nil)

		rr := testutil.DoRequest(s.router, s.authed(testutil.NewRequest(s.T(), http.MethodGet, path+"/tan-One111")))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("malformed transaction id is not found without reaching the service", func() {
		rr := testutil.DoRequest(s.router, s.authed(testutil.NewRequest(s.T(), http.MethodGet, path+"/tan-1")))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("internal errors hide their detail", func() {
		s.service.EXPECT().GetTransaction(gomock.Any(), ownerID, "01000001", "tan-One111").
			Return(ledger.Transaction{}, dErrors.Wrap(errors.New("lock poisoned"), dErrors.CodeInternal, "failed to load transaction"))

		rr := testutil.DoRequest(s.router, s.authed(testutil.NewRequest(s.T(), http.MethodGet, path+"/tan-One111")))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
		s.NotContains(rr.Body.String(), "lock poisoned")
	})
}

func (s *BankHandlerSuite) TestStatement() {
	s.service.EXPECT().GetStatement(gomock.Any(), ownerID, "01000001").Return(sampleAccount(), []ledger.Transaction{
		{ID: "tan-One111", Amount: decimal.RequireFromString("100.50"), Type: ledger.TransactionTypeDeposit},
	}, nil)

	rr := testutil.DoRequest(s.router, s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/v1/accounts/01000001/statement")))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[StatementResponse](s.T(), rr)
	s.Equal("100.5", resp.Account.Balance.String())
	s.Require().Len(resp.Transactions, 1)
	s.Equal("tan-One111", resp.Transactions[0].ID)
}

func (s *BankHandlerSuite) TestAuditTrail() {
	s.Run("own trail", func() {
		s.service.EXPECT().ListAuditEvents(gomock.Any(), ownerID).Return([]audit.Event{
			{UserID: ownerID, Action: audit.ActionAccountCreated, Subject: "01000001", Decision: audit.DecisionAllowed},
		}, nil)

		rr := testutil.DoRequest(s.router, s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/v1/users/"+ownerID+"/audit")))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[ListAuditEventsResponse](s.T(), rr)
		s.Require().Len(resp.Events, 1)
		s.Equal("account_created", resp.Events[0].Action)
		s.Equal("01000001", resp.Events[0].Subject)
	})

	s.Run("another user's trail", func() {
		rr := testutil.DoRequest(s.router, s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/v1/users/usr-Other1/audit")))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})
}
