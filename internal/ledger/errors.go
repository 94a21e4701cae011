package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	dErrors "bankcore/pkg/domain-errors"
)

// Entity names used in NotFoundError.
const (
	EntityUser        = "user"
	EntityAccount     = "account"
	EntityTransaction = "transaction"
)

// NotFoundError reports a lookup miss.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func (e *NotFoundError) ErrorCode() dErrors.Code { return dErrors.CodeNotFound }

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) ErrorCode() dErrors.Code { return dErrors.CodeValidation }

// InsufficientFundsError is returned when a withdrawal exceeds the balance.
// Available is the balance observed under the account lock.
type InsufficientFundsError struct {
	Account   string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in account %s: requested %s, available %s",
		e.Account, e.Requested.String(), e.Available.String())
}

func (e *InsufficientFundsError) ErrorCode() dErrors.Code { return dErrors.CodeInsufficientFunds }

// IdentifierCollisionError means the retry budget for a fresh identifier was
// exhausted. It indicates a broken random source and is never a client error.
type IdentifierCollisionError struct {
	Prefix   string
	Attempts int
}

func (e *IdentifierCollisionError) Error() string {
	return fmt.Sprintf("no unique %s identifier after %d attempts", e.Prefix, e.Attempts)
}

func (e *IdentifierCollisionError) ErrorCode() dErrors.Code { return dErrors.CodeInternal }

func blank(field string) error {
	return &ValidationError{Field: field, Reason: "must not be blank"}
}
