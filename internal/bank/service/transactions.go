package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"bankcore/internal/audit"
	"bankcore/internal/ledger"
	dErrors "bankcore/pkg/domain-errors"
	"bankcore/pkg/requestcontext"
)

// PostTransaction applies a deposit or withdrawal to one of the user's accounts.
func (s *Service) PostTransaction(ctx context.Context, userID, number string, req ledger.TransactionRequest) (txn ledger.Transaction, err error) {
	ctx, span := s.startSpan(ctx, "PostTransaction",
		attribute.String("account.number", number),
		attribute.String("transaction.type", string(req.Type)),
	)
	defer func() { finishSpan(span, err) }()

	l, err := s.ledgerFor(userID, number)
	if err != nil {
		return ledger.Transaction{}, s.fail(ctx, err, "load account")
	}

	start := time.Now()
	txn, err = s.engine.Apply(l, req)
	s.metrics.ObserveApply(start)
	if err != nil {
		s.rejected(ctx, userID, number, req, err)
		return ledger.Transaction{}, s.fail(ctx, err, "apply transaction")
	}

	span.SetAttributes(attribute.String("transaction.id", txn.ID))
	s.metrics.IncrementTransactionApplied(string(txn.Type))
	s.emitAudit(ctx, audit.Event{UserID: userID, Action: audit.ActionTransactionPosted, Subject: txn.ID, Decision: audit.DecisionAllowed})
	s.logger.InfoContext(ctx, "transaction posted",
		"user_id", userID,
		"account_number", number,
		"transaction_id", txn.ID,
		"type", txn.Type,
		"amount", txn.Amount.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return txn, nil
}

func (s *Service) rejected(ctx context.Context, userID, number string, req ledger.TransactionRequest, err error) {
	reason := string(dErrors.CodeOf(err))
	s.metrics.IncrementTransactionRejected(reason)
	if !dErrors.HasCode(err, dErrors.CodeInsufficientFunds) {
		return
	}
	s.emitAudit(ctx, audit.Event{
		UserID:   userID,
		Action:   audit.ActionTransactionRejected,
		Subject:  number,
		Decision: audit.DecisionDenied,
		Reason:   reason,
	})
	s.logger.InfoContext(ctx, "withdrawal rejected",
		"user_id", userID,
		"account_number", number,
		"amount", req.Amount.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (s *Service) ListTransactions(ctx context.Context, userID, number string) (txns []ledger.Transaction, err error) {
	ctx, span := s.startSpan(ctx, "ListTransactions", attribute.String("account.number", number))
	defer func() { finishSpan(span, err) }()

	l, err := s.ledgerFor(userID, number)
	if err != nil {
		return nil, s.fail(ctx, err, "load account")
	}
	txns, err = s.engine.List(l)
	if err != nil {
		return nil, s.fail(ctx, err, "list transactions")
	}
	return txns, nil
}

// GetStatement returns the account together with its history, both taken
// from the same instant.
func (s *Service) GetStatement(ctx context.Context, userID, number string) (acct ledger.Account, txns []ledger.Transaction, err error) {
	ctx, span := s.startSpan(ctx, "GetStatement", attribute.String("account.number", number))
	defer func() { finishSpan(span, err) }()

	l, err := s.ledgerFor(userID, number)
	if err != nil {
		return ledger.Account{}, nil, s.fail(ctx, err, "load account")
	}
	acct, txns, err = l.Statement()
	if err != nil {
		return ledger.Account{}, nil, s.fail(ctx, err, "load statement")
	}
	return acct, txns, nil
}

func (s *Service) GetTransaction(ctx context.Context, userID, number, transactionID string) (txn ledger.Transaction, err error) {
	ctx, span := s.startSpan(ctx, "GetTransaction",
		attribute.String("account.number", number),
		attribute.String("transaction.id", transactionID),
	)
	defer func() { finishSpan(span, err) }()

	l, err := s.ledgerFor(userID, number)
	if err != nil {
		return ledger.Transaction{}, s.fail(ctx, err, "load account")
	}
	txn, err = s.engine.Get(l, transactionID)
	if err != nil {
		return ledger.Transaction{}, s.fail(ctx, err, "load transaction")
	}
	return txn, nil
}
