package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bankcore/internal/audit"
	"bankcore/internal/auth/token"
	"bankcore/internal/ledger"
	"bankcore/internal/platform/metrics"
	dErrors "bankcore/pkg/domain-errors"
	"bankcore/pkg/requestcontext"
)

const tracerName = "bankcore/internal/bank/service"

type UserDirectory interface {
	Create(profile ledger.UserProfile) (ledger.User, error)
	Get(id string) (ledger.User, error)
	Update(id string, patch ledger.UserPatch) (ledger.User, error)
	Delete(id string) error
	Accounts(id string) (*ledger.AccountStore, error)
	Count() int
}

type TransactionEngine interface {
	Apply(l *ledger.AccountLedger, req ledger.TransactionRequest) (ledger.Transaction, error)
	Get(l *ledger.AccountLedger, id string) (ledger.Transaction, error)
	List(l *ledger.AccountLedger) ([]ledger.Transaction, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID string, expiresIn time.Duration) (token.IssuedToken, error)
}

type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

type AuditReader interface {
	ListByUser(ctx context.Context, userID string) ([]audit.Event, error)
}

// Registration is a newly created user together with its first access token.
type Registration struct {
	User  ledger.User
	Token token.IssuedToken
}

// Service orchestrates users, accounts and transactions on top of the ledger.
type Service struct {
	users          UserDirectory
	engine         TransactionEngine
	tokens         TokenIssuer
	tokenTTL       time.Duration
	revoker        TokenRevoker
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	auditReader    AuditReader
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithAuditReader serves the caller's own audit trail back to them.
func WithAuditReader(reader AuditReader) Option {
	return func(s *Service) {
		s.auditReader = reader
	}
}

// WithTokenRevoker enables revoking the caller's token when its user is deleted.
func WithTokenRevoker(revoker TokenRevoker) Option {
	return func(s *Service) {
		s.revoker = revoker
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(users UserDirectory, engine TransactionEngine, tokens TokenIssuer, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		users:    users,
		engine:   engine,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if userID := requestcontext.UserID(ctx); userID != "" {
		attrs = append(attrs, attribute.String("user.id", userID))
	}
	return s.tracer.Start(ctx, "bank."+name, trace.WithAttributes(attrs...))
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

// fail logs unexpected errors and hides their detail behind an internal
// error. Domain errors pass through unchanged.
func (s *Service) fail(ctx context.Context, err error, op string) error {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	s.logger.ErrorContext(ctx, "failed to "+op,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+op)
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
			"request_id", event.RequestID,
		)
	}
}

func (s *Service) accountStore(userID string) (*ledger.AccountStore, error) {
	return s.users.Accounts(userID)
}

func (s *Service) ledgerFor(userID, number string) (*ledger.AccountLedger, error) {
	store, err := s.accountStore(userID)
	if err != nil {
		return nil, err
	}
	return store.Ledger(number)
}
