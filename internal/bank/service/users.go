package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"bankcore/internal/audit"
	"bankcore/internal/ledger"
	"bankcore/pkg/requestcontext"
)

// CreateUser registers a user and issues its first access token.
func (s *Service) CreateUser(ctx context.Context, profile ledger.UserProfile) (reg Registration, err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { finishSpan(span, err) }()

	user, err := s.users.Create(profile)
	if err != nil {
		return Registration{}, s.fail(ctx, err, "create user")
	}

	issued, err := s.tokens.GenerateAccessToken(user.ID, s.tokenTTL)
	if err != nil {
		// Without a token the caller cannot reach the new user; roll it back.
		_ = s.users.Delete(user.ID)
		return Registration{}, s.fail(ctx, err, "issue access token")
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	s.metrics.IncrementUsersCreated()
	s.metrics.SetUsers(s.users.Count())
	s.emitAudit(ctx, audit.Event{UserID: user.ID, Action: audit.ActionUserCreated, Subject: user.ID, Decision: audit.DecisionAllowed})
	s.logger.InfoContext(ctx, "user created",
		"user_id", user.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return Registration{User: user, Token: issued}, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (user ledger.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUser")
	defer func() { finishSpan(span, err) }()

	user, err = s.users.Get(userID)
	if err != nil {
		return ledger.User{}, s.fail(ctx, err, "load user")
	}
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, userID string, patch ledger.UserPatch) (user ledger.User, err error) {
	ctx, span := s.startSpan(ctx, "UpdateUser")
	defer func() { finishSpan(span, err) }()

	user, err = s.users.Update(userID, patch)
	if err != nil {
		return ledger.User{}, s.fail(ctx, err, "update user")
	}
	s.emitAudit(ctx, audit.Event{UserID: userID, Action: audit.ActionUserUpdated, Subject: userID, Decision: audit.DecisionAllowed})
	return user, nil
}

// DeleteUser removes the user with all its accounts and revokes the token
// that made the request.
func (s *Service) DeleteUser(ctx context.Context, userID string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteUser")
	defer func() { finishSpan(span, err) }()

	if err := s.users.Delete(userID); err != nil {
		return s.fail(ctx, err, "delete user")
	}
	s.metrics.SetUsers(s.users.Count())
	s.emitAudit(ctx, audit.Event{UserID: userID, Action: audit.ActionUserDeleted, Subject: userID, Decision: audit.DecisionAllowed})
	s.logger.InfoContext(ctx, "user deleted",
		"user_id", userID,
		"request_id", requestcontext.RequestID(ctx),
	)

	s.revokePresentedToken(ctx, userID)
	return nil
}

func (s *Service) revokePresentedToken(ctx context.Context, userID string) {
	if s.revoker == nil || requestcontext.UserID(ctx) != userID {
		return
	}
	jti := requestcontext.TokenID(ctx)
	ttl := time.Until(requestcontext.TokenExpiry(ctx))
	if jti == "" || ttl <= 0 {
		return
	}
	if err := s.revoker.RevokeToken(ctx, jti, ttl); err != nil {
		// The user is already gone; a surviving token can only reach 404s.
		s.logger.ErrorContext(ctx, "failed to revoke token of deleted user",
			"user_id", userID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// ListAuditEvents returns the retained audit trail of the user, oldest first.
func (s *Service) ListAuditEvents(ctx context.Context, userID string) (events []audit.Event, err error) {
	ctx, span := s.startSpan(ctx, "ListAuditEvents")
	defer func() { finishSpan(span, err) }()

	if _, err := s.users.Get(userID); err != nil {
		return nil, s.fail(ctx, err, "load user")
	}
	if s.auditReader == nil {
		return []audit.Event{}, nil
	}
	events, err = s.auditReader.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, err, "list audit events")
	}
	return events, nil
}
