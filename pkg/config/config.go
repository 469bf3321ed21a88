package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"staybook/pkg/client"
	"staybook/pkg/logger"
	"staybook/pkg/retry"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	JWTSecret string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	ReservationsBaseURL    string
	ReservationCallTimeout time.Duration
	ReservationMaxAttempts int
	ReservationBaseDelay   time.Duration
	ReservationMaxDelay    time.Duration

	ReconcileInterval time.Duration
	StalePendingAfter time.Duration
	ReconcileBatch    int

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		ReservationsBaseURL:    getEnvStr(EnvReservationsBaseURL, DefaultReservationsBaseURL),
		ReservationCallTimeout: getEnvDuration(EnvReservationCallTimeout, DefaultReservationCallTimeout),
		ReservationMaxAttempts: getEnvNum(EnvReservationMaxAttempts, DefaultReservationMaxAttempts),
		ReservationBaseDelay:   getEnvDuration(EnvReservationBaseDelay, DefaultReservationBaseDelay),
		ReservationMaxDelay:    getEnvDuration(EnvReservationMaxDelay, DefaultReservationMaxDelay),

		ReconcileInterval: getEnvDuration(EnvReconcileInterval, DefaultReconcileInterval),
		StalePendingAfter: getEnvDuration(EnvStalePendingAfter, DefaultStalePendingAfter),
		ReconcileBatch:    getEnvNum(EnvReconcileBatch, DefaultReconcileBatch),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// ReservationPolicy is the retry policy applied to every call the booking
// service makes to the reservations service.
func (cfg *Config) ReservationPolicy() retry.Policy {
	return retry.Policy{
		Timeout:     cfg.ReservationCallTimeout,
		MaxAttempts: cfg.ReservationMaxAttempts,
		BaseDelay:   cfg.ReservationBaseDelay,
		MaxDelay:    cfg.ReservationMaxDelay,
	}
}

// SagaBudget is the longest a booking can stay PENDING while its saga is
// still running: hold, confirm and a compensating release, each taking its
// full retry budget.
func (cfg *Config) SagaBudget() time.Duration {
	return 3 * cfg.ReservationPolicy().Budget()
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if u, err := url.Parse(cfg.ReservationsBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("ReservationsBaseURL must be an absolute URL, got: %s", cfg.ReservationsBaseURL))
	}
	if cfg.ReservationCallTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReservationCallTimeout must be positive, got: %s", cfg.ReservationCallTimeout))
	}
	if cfg.ReservationMaxAttempts < 1 {
		errors = append(errors, fmt.Sprintf("ReservationMaxAttempts must be at least 1, got: %d", cfg.ReservationMaxAttempts))
	}
	if cfg.ReservationBaseDelay < 0 {
		errors = append(errors, fmt.Sprintf("ReservationBaseDelay cannot be negative, got: %s", cfg.ReservationBaseDelay))
	}
	if cfg.ReservationMaxDelay < cfg.ReservationBaseDelay {
		errors = append(errors, fmt.Sprintf("ReservationMaxDelay (%s) must be >= ReservationBaseDelay (%s)", cfg.ReservationMaxDelay, cfg.ReservationBaseDelay))
	}

	if cfg.ReconcileInterval <= 0 {
		errors = append(errors, fmt.Sprintf("ReconcileInterval must be positive, got: %s", cfg.ReconcileInterval))
	}
	if cfg.StalePendingAfter <= 0 {
		errors = append(errors, fmt.Sprintf("StalePendingAfter must be positive, got: %s", cfg.StalePendingAfter))
	} else if budget := cfg.SagaBudget(); cfg.StalePendingAfter <= budget {
		errors = append(errors, fmt.Sprintf("StalePendingAfter (%s) must exceed the saga budget (%s)", cfg.StalePendingAfter, budget))
	}
	if cfg.ReconcileBatch <= 0 {
		errors = append(errors, fmt.Sprintf("ReconcileBatch must be positive, got: %d", cfg.ReconcileBatch))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"reservations_base_url", cfg.ReservationsBaseURL,
		"reservation_call_timeout", cfg.ReservationCallTimeout,
		"reservation_max_attempts", cfg.ReservationMaxAttempts,
		"reservation_base_delay", cfg.ReservationBaseDelay,
		"reservation_max_delay", cfg.ReservationMaxDelay,
		"reconcile_interval", cfg.ReconcileInterval,
		"stale_pending_after", cfg.StalePendingAfter,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultPaginationLimitMin
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
