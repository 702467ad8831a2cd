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
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvDefaultOpeningTime     = "DEFAULT_OPENING_TIME"
	EnvDefaultClosingTime     = "DEFAULT_CLOSING_TIME"
	EnvDefaultSlotDurationMin = "DEFAULT_SLOT_DURATION_MIN"
	EnvSlotHorizonDays        = "SLOT_HORIZON_DAYS"

	EnvEventsEnabled      = "EVENTS_ENABLED"
	EnvEventsTopic        = "EVENTS_TOPIC"
	EnvInconsistencyTopic = "INCONSISTENCY_TOPIC"
	EnvReconcilerGroupID  = "RECONCILER_GROUP_ID"

	EnvReconcileInterval    = "RECONCILE_INTERVAL"
	EnvReconcileGracePeriod = "RECONCILE_GRACE_PERIOD"
	EnvReconcileBatchSize   = "RECONCILE_BATCH_SIZE"
)
