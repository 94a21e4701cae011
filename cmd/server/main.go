package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"bankcore/internal/audit"
	"bankcore/internal/auth/revocation"
	"bankcore/internal/auth/token"
	bankHandler "bankcore/internal/bank/handler"
	bankService "bankcore/internal/bank/service"
	"bankcore/internal/ledger"
	"bankcore/internal/platform/config"
	"bankcore/internal/platform/httpserver"
	"bankcore/internal/platform/logger"
	"bankcore/internal/platform/metrics"
	"bankcore/internal/platform/middleware"
	"bankcore/internal/platform/redis"
	"bankcore/internal/ratelimit"
	dErrors "bankcore/pkg/domain-errors"
	"bankcore/pkg/platform/httputil"
)

const auditQueueSize = 1024

// revocationList is what both the auth middleware and the bank service need.
type revocationList interface {
	middleware.TokenRevocationChecker
	bankService.TokenRevoker
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// run wires the ledger, auth and HTTP layers and blocks until ctx is done.
func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New(prometheus.DefaultRegisterer)

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var trl revocationList = revocation.NewInMemoryTRL()
	if redisClient != nil {
		defer redisClient.Close()
		trl = revocation.NewRedisTRL(redisClient.Client)
		log.Info("token revocation backed by redis")
	}

	ids := ledger.NewRandomIDGenerator()
	ledgerOpts := []ledger.Option{
		ledger.WithSortCode(cfg.Bank.SortCode),
		ledger.WithCurrency(cfg.Bank.Currency),
		ledger.WithIDAttempts(cfg.Bank.IDAttempts),
	}
	directory := ledger.NewDirectory(ids, ledgerOpts...)
	engine := ledger.NewEngine(ids, ledgerOpts...)

	publisher, inbox := audit.NewQueuePublisher(auditQueueSize)
	auditStore := audit.NewInMemoryStore(audit.WithRetention(cfg.Audit.Retention))
	auditWorker := audit.NewWorker(auditStore, inbox)

	jwt := token.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	svc := bankService.New(directory, engine, jwt, cfg.Auth.TokenTTL,
		bankService.WithLogger(log),
		bankService.WithMetrics(m),
		bankService.WithAuditPublisher(publisher),
		bankService.WithAuditReader(auditStore),
		bankService.WithTokenRevoker(trl),
	)

	handlerOpts := []bankHandler.Option{
		bankHandler.WithRequestTimeout(cfg.Server.RequestTimeout),
		bankHandler.WithTrustedProxies(cfg.Server.TrustedProxies),
	}
	if cfg.RateLimit.SignupLimit > 0 {
		signups := ratelimit.NewSlidingWindow(cfg.RateLimit.SignupLimit, cfg.RateLimit.SignupWindow)
		handlerOpts = append(handlerOpts,
			bankHandler.WithSignupLimit(ratelimit.NewMiddleware(signups, "signup", log, m).PerClientIP))
	}

	r := chi.NewRouter()
	r.Get("/healthz", healthHandler(redisClient))
	r.Handle("/metrics", promhttp.Handler())
	bankHandler.New(svc, log, m, token.NewMiddlewareValidator(jwt), trl, handlerOpts...).Register(r)

	srv := httpserver.New(cfg.Server, r)

	// The audit worker outlives the server so in-flight requests can still emit.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting bankcore", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return auditWorker.Run(workerCtx)
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopWorker()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func healthHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "redis unavailable"))
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
