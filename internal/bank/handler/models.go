package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"bankcore/internal/audit"
	"bankcore/internal/bank/service"
	"bankcore/internal/ledger"
)

type addressPayload struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	Line3    string `json:"line3,omitempty"`
	Town     string `json:"town"`
	County   string `json:"county"`
	Postcode string `json:"postcode"`
}

func (a addressPayload) toAddress() ledger.Address {
	return ledger.Address(a)
}

func addressFrom(a ledger.Address) addressPayload {
	return addressPayload(a)
}

type CreateUserRequest struct {
	Name        string         `json:"name"`
	Address     addressPayload `json:"address"`
	PhoneNumber string         `json:"phoneNumber"`
	Email       string         `json:"email"`
}

func (r CreateUserRequest) toProfile() ledger.UserProfile {
	return ledger.UserProfile{
		Name:        r.Name,
		Address:     r.Address.toAddress(),
		PhoneNumber: r.PhoneNumber,
		Email:       r.Email,
	}
}

// UpdateUserRequest leaves omitted fields unchanged.
type UpdateUserRequest struct {
	Name        *string         `json:"name"`
	Address     *addressPayload `json:"address"`
	PhoneNumber *string         `json:"phoneNumber"`
	Email       *string         `json:"email"`
}

func (r UpdateUserRequest) toPatch() ledger.UserPatch {
	patch := ledger.UserPatch{
		Name:        r.Name,
		PhoneNumber: r.PhoneNumber,
		Email:       r.Email,
	}
	if r.Address != nil {
		addr := r.Address.toAddress()
		patch.Address = &addr
	}
	return patch
}

type UserResponse struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Address          addressPayload `json:"address"`
	PhoneNumber      string         `json:"phoneNumber"`
	Email            string         `json:"email"`
	CreatedTimestamp time.Time      `json:"createdTimestamp"`
	UpdatedTimestamp time.Time      `json:"updatedTimestamp"`
}

func toUserResponse(u ledger.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Name:             u.Name,
		Address:          addressFrom(u.Address),
		PhoneNumber:      u.PhoneNumber,
		Email:            u.Email,
		CreatedTimestamp: u.CreatedAt,
		UpdatedTimestamp: u.UpdatedAt,
	}
}

// CreateUserResponse is the new user plus the bearer token for later calls.
type CreateUserResponse struct {
	UserResponse
	Token          string    `json:"token"`
	TokenExpiresAt time.Time `json:"tokenExpiresAt"`
}

func toCreateUserResponse(reg service.Registration) CreateUserResponse {
	return CreateUserResponse{
		UserResponse:   toUserResponse(reg.User),
		Token:          reg.Token.Value,
		TokenExpiresAt: reg.Token.ExpiresAt,
	}
}

type CreateAccountRequest struct {
	Name        string `json:"name"`
	AccountType string `json:"accountType"`
}

type UpdateAccountRequest struct {
	Name        *string `json:"name"`
	AccountType *string `json:"accountType"`
}

func (r UpdateAccountRequest) toPatch() (ledger.AccountPatch, error) {
	patch := ledger.AccountPatch{Name: r.Name}
	if r.AccountType != nil {
		t, err := ledger.ParseAccountType(*r.AccountType)
		if err != nil {
			return ledger.AccountPatch{}, err
		}
		patch.Type = &t
	}
	return patch, nil
}

type AccountResponse struct {
	AccountNumber    string          `json:"accountNumber"`
	SortCode         string          `json:"sortCode"`
	Name             string          `json:"name"`
	AccountType      string          `json:"accountType"`
	Balance          decimal.Decimal `json:"balance"`
	Currency         string          `json:"currency"`
	CreatedTimestamp time.Time       `json:"createdTimestamp"`
	UpdatedTimestamp time.Time       `json:"updatedTimestamp"`
}

func toAccountResponse(a ledger.Account) AccountResponse {
	return AccountResponse{
		AccountNumber:    a.Number,
		SortCode:         a.SortCode,
		Name:             a.Name,
		AccountType:      string(a.Type),
		Balance:          a.Balance,
		Currency:         a.Currency,
		CreatedTimestamp: a.CreatedAt,
		UpdatedTimestamp: a.UpdatedAt,
	}
}

type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

type CreateTransactionRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Type      string          `json:"type"`
	Reference string          `json:"reference,omitempty"`
}

func (r CreateTransactionRequest) toRequest() (ledger.TransactionRequest, error) {
	t, err := ledger.ParseTransactionType(r.Type)
	if err != nil {
		return ledger.TransactionRequest{}, err
	}
	return ledger.TransactionRequest{
		Amount:    r.Amount,
		Currency:  r.Currency,
		Type:      t,
		Reference: r.Reference,
	}, nil
}

type TransactionResponse struct {
	ID               string          `json:"id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Type             string          `json:"type"`
	Reference        string          `json:"reference,omitempty"`
	UserID           string          `json:"userId"`
	CreatedTimestamp time.Time       `json:"createdTimestamp"`
}

func toTransactionResponse(t ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:               t.ID,
		Amount:           t.Amount,
		Currency:         t.Currency,
		Type:             string(t.Type),
		Reference:        t.Reference,
		UserID:           t.UserID,
		CreatedTimestamp: t.CreatedAt,
	}
}

type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

func toTransactionResponses(txns []ledger.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

// StatementResponse is an account and its history read at the same instant.
type StatementResponse struct {
	Account      AccountResponse       `json:"account"`
	Transactions []TransactionResponse `json:"transactions"`
}

type AuditEventResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
}

type ListAuditEventsResponse struct {
	Events []AuditEventResponse `json:"events"`
}

func toAuditEventsResponse(events []audit.Event) ListAuditEventsResponse {
	resp := ListAuditEventsResponse{Events: make([]AuditEventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, AuditEventResponse{
			Timestamp: e.Timestamp,
			Action:    string(e.Action),
			Subject:   e.Subject,
			Decision:  e.Decision,
			Reason:    e.Reason,
			RequestID: e.RequestID,
		})
	}
	return resp
}
