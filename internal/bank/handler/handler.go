package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"bankcore/internal/audit"
	"bankcore/internal/bank/service"
	"bankcore/internal/ledger"
	"bankcore/internal/platform/metrics"
	"bankcore/internal/platform/middleware"
	dErrors "bankcore/pkg/domain-errors"
	"bankcore/pkg/platform/httputil"
	"bankcore/pkg/requestcontext"
)

const defaultRequestTimeout = 30 * time.Second

// Service defines the banking operations exposed over HTTP.
type Service interface {
	CreateUser(ctx context.Context, profile ledger.UserProfile) (service.Registration, error)
	GetUser(ctx context.Context, userID string) (ledger.User, error)
	UpdateUser(ctx context.Context, userID string, patch ledger.UserPatch) (ledger.User, error)
	DeleteUser(ctx context.Context, userID string) error
	ListAuditEvents(ctx context.Context, userID string) ([]audit.Event, error)

	CreateAccount(ctx context.Context, userID, name string, accountType ledger.AccountType) (ledger.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]ledger.Account, error)
	GetAccount(ctx context.Context, userID, number string) (ledger.Account, error)
	UpdateAccount(ctx context.Context, userID, number string, patch ledger.AccountPatch) (ledger.Account, error)
	DeleteAccount(ctx context.Context, userID, number string) error

	PostTransaction(ctx context.Context, userID, number string, req ledger.TransactionRequest) (ledger.Transaction, error)
	ListTransactions(ctx context.Context, userID, number string) ([]ledger.Transaction, error)
	GetTransaction(ctx context.Context, userID, number, transactionID string) (ledger.Transaction, error)
	GetStatement(ctx context.Context, userID, number string) (ledger.Account, []ledger.Transaction, error)
}

// Handler serves the /v1 banking API.
type Handler struct {
	bank           Service
	logger         *slog.Logger
	metrics        *metrics.Metrics
	jwtValidator   middleware.JWTValidator
	revocations    middleware.TokenRevocationChecker
	requestTimeout time.Duration
	signupLimit    func(http.Handler) http.Handler
	trustedProxies []netip.Prefix
}

type Option func(*Handler)

// WithSignupLimit throttles the public sign-up route.
func WithSignupLimit(limit func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		if limit != nil {
			h.signupLimit = limit
		}
	}
}

// WithTrustedProxies lets the listed peers name the client through
// X-Forwarded-For. Without it the connection address is used.
func WithTrustedProxies(prefixes []netip.Prefix) Option {
	return func(h *Handler) {
		h.trustedProxies = prefixes
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.requestTimeout = d
		}
	}
}

// New creates a new bank Handler. revocations may be nil.
func New(
	bank Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	revocations middleware.TokenRevocationChecker,
	opts ...Option,
) *Handler {
	h := &Handler{
		bank:           bank,
		logger:         logger,
		metrics:        metrics,
		jwtValidator:   jwtValidator,
		revocations:    revocations,
		requestTimeout: defaultRequestTimeout,
		signupLimit:    func(next http.Handler) http.Handler { return next },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the banking routes under /v1.
func (h *Handler) Register(r chi.Router) {
	bankRouter := chi.NewRouter()
	bankRouter.Use(middleware.Recovery(h.logger))
	bankRouter.Use(middleware.RequestID)
	bankRouter.Use(middleware.RequestTime)
	bankRouter.Use(middleware.ClientIP(h.trustedProxies))
	bankRouter.Use(middleware.Logger(h.logger))
	bankRouter.Use(chimw.Timeout(h.requestTimeout))
	bankRouter.Use(middleware.ContentTypeJSON)
	bankRouter.Use(middleware.LatencyMiddleware(h.metrics))

	bankRouter.With(h.signupLimit).Post("/users", h.handleCreateUser)

	bankRouter.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.revocations, h.logger))

		r.Route("/users/{userId}", func(r chi.Router) {
			r.Get("/", h.handleGetUser)
			r.Patch("/", h.handleUpdateUser)
			r.Delete("/", h.handleDeleteUser)
			r.Get("/audit", h.handleListAuditEvents)
		})

		r.Post("/accounts", h.handleCreateAccount)
		r.Get("/accounts", h.handleListAccounts)
		r.Route("/accounts/{accountNumber}", func(r chi.Router) {
			r.Get("/", h.handleGetAccount)
			r.Patch("/", h.handleUpdateAccount)
			r.Delete("/", h.handleDeleteAccount)
			r.Post("/transactions", h.handlePostTransaction)
			r.Get("/transactions", h.handleListTransactions)
			r.Get("/transactions/{transactionId}", h.handleGetTransaction)
			r.Get("/statement", h.handleGetStatement)
		})
	})

	r.Mount("/v1", bankRouter)
}

// callerID returns the authenticated user, writing a 500 when the auth
// middleware did not run.
func (h *Handler) callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	return userID, true
}

// writeError logs client errors at WARN and everything else at ERROR.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.HTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
