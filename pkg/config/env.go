package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret = "JWT_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvReservationsBaseURL    = "RESERVATIONS_BASE_URL"
	EnvReservationCallTimeout = "RESERVATION_CALL_TIMEOUT"
	EnvReservationMaxAttempts = "RESERVATION_MAX_ATTEMPTS"
	EnvReservationBaseDelay   = "RESERVATION_BASE_DELAY"
	EnvReservationMaxDelay    = "RESERVATION_MAX_DELAY"

	EnvReconcileInterval = "RECONCILE_INTERVAL"
	EnvStalePendingAfter = "STALE_PENDING_AFTER"
	EnvReconcileBatch    = "RECONCILE_BATCH"
)
