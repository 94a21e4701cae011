package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"bankcore/internal/audit"
	"bankcore/internal/ledger"
	"bankcore/pkg/requestcontext"
)

func (s *Service) CreateAccount(ctx context.Context, userID, name string, accountType ledger.AccountType) (acct ledger.Account, err error) {
	ctx, span := s.startSpan(ctx, "CreateAccount")
	defer func() { finishSpan(span, err) }()

	store, err := s.accountStore(userID)
	if err != nil {
		return ledger.Account{}, s.fail(ctx, err, "load accounts")
	}
	acct, err = store.Create(name, accountType)
	if err != nil {
		return ledger.Account{}, s.fail(ctx, err, "create account")
	}

	span.SetAttributes(attribute.String("account.number", acct.Number))
	s.metrics.IncrementAccountsCreated()
	s.emitAudit(ctx, audit.Event{UserID: userID, Action: audit.ActionAccountCreated, Subject: acct.Number, Decision: audit.DecisionAllowed})
	s.logger.InfoContext(ctx, "account created",
		"user_id", userID,
		"account_number", acct.Number,
		"account_type", acct.Type,
		"request_id", requestcontext.RequestID(ctx),
	)
	return acct, nil
}

func (s *Service) ListAccounts(ctx context.Context, userID string) (accts []ledger.Account, err error) {
	ctx, span := s.startSpan(ctx, "ListAccounts")
	defer func() { finishSpan(span, err) }()

	store, err := s.accountStore(userID)
	if err != nil {
		return nil, s.fail(ctx, err, "load accounts")
	}
	return store.List(), nil
}

func (s *Service) GetAccount(ctx context.Context, userID, number string) (acct ledger.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccount", attribute.String("account.number", number))
	defer func() { finishSpan(span, err) }()

	store, err := s.accountStore(userID)
	if err != nil {
		return ledger.Account{}, s.fail(ctx, err, "load accounts")
	}
	acct, err = store.Get(number)
	if err != nil {
		return ledger.Account{}, s.fail(ctx, err, "load account")
	}
	return acct, nil
}

func (s *Service) UpdateAccount(ctx context.Context, userID, number string, patch ledger.AccountPatch) (acct ledger.Account, err error) {
	ctx, span := s.startSpan(ctx, "UpdateAccount", attribute.String("account.number", number))
	defer func() { finishSpan(span, err) }()

	store, err := s.accountStore(userID)
	if err != nil {
		return ledger.Account{}, s.fail(ctx, err, "load accounts")
	}
	acct, err = store.Update(number, patch)
	if err != nil {
		return ledger.Account{}, s.fail(ctx, err, "update account")
	}
	s.emitAudit(ctx, audit.Event{UserID: userID, Action: audit.ActionAccountUpdated, Subject: number, Decision: audit.DecisionAllowed})
	return acct, nil
}

// DeleteAccount closes the account whatever its balance. A non-zero balance
// is discarded with the account and logged.
func (s *Service) DeleteAccount(ctx context.Context, userID, number string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteAccount", attribute.String("account.number", number))
	defer func() { finishSpan(span, err) }()

	store, err := s.accountStore(userID)
	if err != nil {
		return s.fail(ctx, err, "load accounts")
	}
	before, err := store.Get(number)
	if err != nil {
		return s.fail(ctx, err, "load account")
	}
	if err := store.Delete(number); err != nil {
		return s.fail(ctx, err, "delete account")
	}

	if !before.Balance.IsZero() {
		s.logger.WarnContext(ctx, "account deleted with non-zero balance",
			"user_id", userID,
			"account_number", number,
			"balance", before.Balance.String(),
			"currency", before.Currency,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	s.metrics.IncrementAccountsDeleted()
	s.emitAudit(ctx, audit.Event{UserID: userID, Action: audit.ActionAccountDeleted, Subject: number, Decision: audit.DecisionAllowed})
	return nil
}
