package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"futsal/pkg/auth"
	"futsal/pkg/client"
	"futsal/pkg/logger"
)

var (
	timeOfDayRegex  = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	mongoURIRegex   = regexp.MustCompile(`^mongodb(\+srv)?://`)
	credentialRegex = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
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
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DefaultOpeningTime     string
	DefaultClosingTime     string
	DefaultSlotDurationMin int
	SlotHorizonDays        int

	EventsEnabled      bool
	EventsTopic        string
	InconsistencyTopic string
	ReconcilerGroupID  string

	ReconcileInterval    time.Duration
	ReconcileGracePeriod time.Duration
	ReconcileBatchSize   int

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
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		DefaultOpeningTime:     getEnvStr(EnvDefaultOpeningTime, DefaultOpeningTime),
		DefaultClosingTime:     getEnvStr(EnvDefaultClosingTime, DefaultClosingTime),
		DefaultSlotDurationMin: getEnvNum(EnvDefaultSlotDurationMin, DefaultSlotDurationMin),
		SlotHorizonDays:        getEnvNum(EnvSlotHorizonDays, DefaultSlotHorizonDays),

		EventsEnabled:      getEnvBool(EnvEventsEnabled, DefaultEventsEnabled),
		EventsTopic:        getEnvStr(EnvEventsTopic, DefaultEventsTopic),
		InconsistencyTopic: getEnvStr(EnvInconsistencyTopic, DefaultInconsistencyTopic),
		ReconcilerGroupID:  getEnvStr(EnvReconcilerGroupID, DefaultReconcilerGroupID),

		ReconcileInterval:    getEnvDuration(EnvReconcileInterval, DefaultReconcileInterval),
		ReconcileGracePeriod: getEnvDuration(EnvReconcileGracePeriod, DefaultReconcileGracePeriod),
		ReconcileBatchSize:   getEnvNum(EnvReconcileBatchSize, DefaultReconcileBatchSize),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// ValidateAuth checks the settings of services that verify bearer tokens.
func (cfg *Config) ValidateAuth() error {
	if len(cfg.JWTSecret) < auth.MinSecretLength {
		return fmt.Errorf("configuration validation failed: JWTSecret must be at least %d bytes, got %d", auth.MinSecretLength, len(cfg.JWTSecret))
	}
	return nil
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !mongoURIRegex.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	positiveDurations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"ReconcileInterval", cfg.ReconcileInterval},
	}
	for _, d := range positiveDurations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}
	if cfg.ReconcileGracePeriod < 0 {
		errors = append(errors, fmt.Sprintf("ReconcileGracePeriod cannot be negative, got: %s", cfg.ReconcileGracePeriod))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReconcileBatchSize <= 0 {
		errors = append(errors, fmt.Sprintf("ReconcileBatchSize must be positive, got: %d", cfg.ReconcileBatchSize))
	}

	if !timeOfDayRegex.MatchString(cfg.DefaultOpeningTime) {
		errors = append(errors, fmt.Sprintf("DefaultOpeningTime must be in HH:MM format (00:00-23:59), got: %s", cfg.DefaultOpeningTime))
	}
	if !timeOfDayRegex.MatchString(cfg.DefaultClosingTime) {
		errors = append(errors, fmt.Sprintf("DefaultClosingTime must be in HH:MM format (00:00-23:59), got: %s", cfg.DefaultClosingTime))
	}
	if cfg.DefaultOpeningTime >= cfg.DefaultClosingTime {
		errors = append(errors, fmt.Sprintf("DefaultOpeningTime (%s) must be before DefaultClosingTime (%s)", cfg.DefaultOpeningTime, cfg.DefaultClosingTime))
	}
	if cfg.DefaultSlotDurationMin <= 0 || cfg.DefaultSlotDurationMin > 24*60 {
		errors = append(errors, fmt.Sprintf("DefaultSlotDurationMin must be between 1 and 1440, got: %d", cfg.DefaultSlotDurationMin))
	}
	if cfg.SlotHorizonDays <= 0 || cfg.SlotHorizonDays > 366 {
		errors = append(errors, fmt.Sprintf("SlotHorizonDays must be between 1 and 366, got: %d", cfg.SlotHorizonDays))
	}

	if cfg.EventsEnabled {
		if cfg.EventsTopic == "" {
			errors = append(errors, "EventsTopic cannot be empty when events are enabled")
		}
		if cfg.InconsistencyTopic == "" {
			errors = append(errors, "InconsistencyTopic cannot be empty when events are enabled")
		}
	}

	if len(errors) > 0 {
		var b strings.Builder
		b.WriteString("Configuration validation failed:\n")
		for i, e := range errors {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", b.String())
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
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"default_opening_time", cfg.DefaultOpeningTime,
		"default_closing_time", cfg.DefaultClosingTime,
		"default_slot_duration_min", cfg.DefaultSlotDurationMin,
		"slot_horizon_days", cfg.SlotHorizonDays,
		"events_enabled", cfg.EventsEnabled,
		"events_topic", cfg.EventsTopic,
		"inconsistency_topic", cfg.InconsistencyTopic,
		"reconcile_interval", cfg.ReconcileInterval,
		"reconcile_grace_period", cfg.ReconcileGracePeriod,
	)
}

func redactMongoURI(uri string) string {
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

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
