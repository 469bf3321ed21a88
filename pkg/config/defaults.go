package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "staybook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 35 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultReservationsBaseURL    = "http://localhost:8081"
	DefaultReservationCallTimeout = 2 * time.Second
	DefaultReservationMaxAttempts = 3
	DefaultReservationBaseDelay   = 300 * time.Millisecond
	DefaultReservationMaxDelay    = 2 * time.Second

	DefaultReconcileInterval = 1 * time.Minute
	DefaultStalePendingAfter = 5 * time.Minute
	DefaultReconcileBatch    = 50

	DefaultPaginationLimit    = 100
	DefaultPaginationLimitMin = 10
)
