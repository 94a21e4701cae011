package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies a bank account.
type AccountType string

const (
	AccountTypePersonal AccountType = "PERSONAL"
	AccountTypeSavings  AccountType = "SAVINGS"
)

func (t AccountType) IsValid() bool {
	return t == AccountTypePersonal || t == AccountTypeSavings
}

// ParseAccountType accepts any letter case and surrounding whitespace.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", &ValidationError{Field: "accountType", Reason: fmt.Sprintf("unsupported account type %q", s)}
	}
	return t, nil
}

// TransactionType is the direction of a balance movement.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdrawal
}

func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("unsupported transaction type %q", s)}
	}
	return t, nil
}

// Transaction is an immutable balance movement. Amount is always positive;
// the sign is implied by Type.
type Transaction struct {
	ID        string
	UserID    string
	Amount    decimal.Decimal
	Currency  string
	Type      TransactionType
	Reference string
	CreatedAt time.Time
}

// signed returns the amount as it applies to the balance.
func (t Transaction) signed() decimal.Decimal {
	if t.Type == TransactionTypeWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Account is a point-in-time snapshot of an account's state.
type Account struct {
	Number    string
	SortCode  string
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Address is a postal address. Line2 and Line3 are optional.
type Address struct {
	Line1    string
	Line2    string
	Line3    string
	Town     string
	County   string
	Postcode string
}

// User is a bank customer. Accounts are held in the user's AccountStore.
type User struct {
	ID          string
	Name        string
	Address     Address
	PhoneNumber string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
