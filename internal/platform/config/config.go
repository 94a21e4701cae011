package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	Server    Server
	Auth      Auth
	Bank      Bank
	Redis     RedisConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
}

// AuditConfig bounds the in-process audit trail.
type AuditConfig struct {
	Retention int
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	// TrustedProxies are the peers whose forwarding headers name the client.
	TrustedProxies []netip.Prefix
}

// Auth configures access token issuance.
type Auth struct {
	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration
}

// Bank holds deployment-wide ledger settings.
type Bank struct {
	SortCode   string
	Currency   string
	IDAttempts int
}

// RedisConfig configures the optional Redis connection. An empty URL keeps
// token revocation in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RateLimitConfig throttles the public sign-up route per client IP. A
// non-positive SignupLimit disables it.
type RateLimitConfig struct {
	SignupLimit  int
	SignupWindow time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	defaultAddr             = ":8080"
	defaultSigningKey       = "dev-secret-key-change-in-production"
	defaultIssuer           = "bankcore"
	defaultTokenTTL         = time.Hour
	defaultSortCode         = "01-01-01"
	defaultCurrency         = "GBP"
	defaultIDAttempts       = 8
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultRequestTimeout   = 30 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultRedisPoolSize    = 10
	defaultRedisIdleConns   = 2
	defaultRedisDialTimeout = 5 * time.Second
	defaultRedisIOTimeout   = 3 * time.Second
	defaultSignupLimit      = 10
	defaultSignupWindow     = time.Minute
	defaultAuditRetention   = 10000
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
)

// FromEnv builds the configuration from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []error
	duration := func(key string, fallback time.Duration) time.Duration {
		d, err := parseDuration(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	trustedProxies, err := parsePrefixes("TRUSTED_PROXIES")
	if err != nil {
		errs = append(errs, err)
	}

	cfg := Config{
		Server: Server{
			Addr:            valueOrDefault("BANK_ADDR", defaultAddr),
			ReadTimeout:     duration("SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    duration("SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			RequestTimeout:  duration("SERVER_REQUEST_TIMEOUT", defaultRequestTimeout),
			ShutdownTimeout: duration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
			TrustedProxies:  trustedProxies,
		},
		Auth: Auth{
			// Use a default for development - should be overridden in production
			JWTSigningKey: valueOrDefault("JWT_SIGNING_KEY", defaultSigningKey),
			JWTIssuer:     valueOrDefault("JWT_ISSUER", defaultIssuer),
			TokenTTL:      duration("TOKEN_TTL", defaultTokenTTL),
		},
		Bank: Bank{
			SortCode:   valueOrDefault("BANK_SORT_CODE", defaultSortCode),
			Currency:   strings.ToUpper(valueOrDefault("BANK_CURRENCY", defaultCurrency)),
			IDAttempts: parseIntWithDefault("BANK_ID_ATTEMPTS", defaultIDAttempts),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     parseIntWithDefault("REDIS_POOL_SIZE", defaultRedisPoolSize),
			MinIdleConns: parseIntWithDefault("REDIS_MIN_IDLE_CONNS", defaultRedisIdleConns),
			DialTimeout:  duration("REDIS_DIAL_TIMEOUT", defaultRedisDialTimeout),
			ReadTimeout:  duration("REDIS_READ_TIMEOUT", defaultRedisIOTimeout),
			WriteTimeout: duration("REDIS_WRITE_TIMEOUT", defaultRedisIOTimeout),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		RateLimit: RateLimitConfig{
			SignupLimit:  parseIntWithDefault("SIGNUP_RATE_LIMIT", defaultSignupLimit),
			SignupWindow: duration("SIGNUP_RATE_WINDOW", defaultSignupWindow),
		},
		Audit: AuditConfig{
			Retention: parseIntWithDefault("AUDIT_RETENTION", defaultAuditRetention),
		},
	}

	if cfg.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.Auth.TokenTTL))
	}
	if cfg.RateLimit.SignupLimit > 0 && cfg.RateLimit.SignupWindow <= 0 {
		errs = append(errs, fmt.Errorf("SIGNUP_RATE_WINDOW must be positive, got %s", cfg.RateLimit.SignupWindow))
	}
	if cfg.Audit.Retention <= 0 {
		errs = append(errs, fmt.Errorf("AUDIT_RETENTION must be positive, got %d", cfg.Audit.Retention))
	}
	if len(cfg.Bank.Currency) != 3 {
		errs = append(errs, fmt.Errorf("BANK_CURRENCY must be a three-letter code, got %q", cfg.Bank.Currency))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// parsePrefixes reads a comma-separated list of CIDR ranges or bare addresses.
func parsePrefixes(key string) ([]netip.Prefix, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	var out []netip.Prefix
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(item); err == nil {
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q", key, item)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
