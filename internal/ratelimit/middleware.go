package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"bankcore/internal/platform/metrics"
	dErrors "bankcore/pkg/domain-errors"
	"bankcore/pkg/platform/httputil"
	"bankcore/pkg/requestcontext"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Middleware rejects callers that exceed the limiter with 429.
type Middleware struct {
	limiter Limiter
	scope   string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewMiddleware builds a per-client-IP throttle. scope names the protected
// surface in logs and metrics.
func NewMiddleware(limiter Limiter, scope string, logger *slog.Logger, m *metrics.Metrics) *Middleware {
	return &Middleware{limiter: limiter, scope: scope, logger: logger, metrics: m}
}

// PerClientIP keys the limiter on requestcontext.ClientIP; the ClientIP
// middleware must run first.
func (m *Middleware) PerClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)

		result, err := m.limiter.Allow(ctx, m.scope+":"+ip)
		if err != nil {
			// Fail open; throttling is not worth an outage.
			m.logger.ErrorContext(ctx, "failed to check rate limit",
				"scope", m.scope,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if !result.Allowed {
			m.metrics.IncrementRateLimited(m.scope)
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"scope", m.scope,
				"client_ip", ip,
				"request_id", requestcontext.RequestID(ctx),
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, try again later"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
