package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "futsal"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultOpeningTime     = "06:00"
	DefaultClosingTime     = "23:00"
	DefaultSlotDurationMin = 60
	DefaultSlotHorizonDays = 30

	DefaultEventsEnabled      = false
	DefaultEventsTopic        = "futsal.events"
	DefaultInconsistencyTopic = "futsal.inconsistencies"
	DefaultReconcilerGroupID  = "futsal-reconciler"

	DefaultReconcileInterval    = 5 * time.Minute
	DefaultReconcileGracePeriod = 2 * time.Minute
	DefaultReconcileBatchSize   = 200

	DefaultPaginationLimit = 100
)
