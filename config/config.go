package config

import (
	"os"
	"strconv"
	"time"
)

const (
	SnapshotBackendFile  = "file"
	SnapshotBackendRedis = "redis"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubChannel      string

	// Snapshot configuration
	SnapshotBackend  string
	SnapshotPath     string
	SnapshotRedisKey string

	// Lock configuration
	LockKey           string
	LockTTL           time.Duration
	LockRetryInterval time.Duration
	LockWaitTimeout   time.Duration

	// Selection configuration
	SelectionCron   string
	HistoryPageSize int

	// Submission rate limit, 0 disables it
	SubmitRateLimit  int
	SubmitRateWindow time.Duration

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubChannel:      getEnv("PUBNUB_CHANNEL", "album-selection"),

		// Snapshot
		SnapshotBackend:  getEnv("SNAPSHOT_BACKEND", SnapshotBackendFile),
		SnapshotPath:     getEnv("SNAPSHOT_PATH", "data/upcoming.json"),
		SnapshotRedisKey: getEnv("SNAPSHOT_REDIS_KEY", "queue:snapshot"),

		// Lock
		LockKey:           getEnv("LOCK_KEY", "lock:queue:snapshot"),
		LockTTL:           getEnvAsDuration("LOCK_TTL", "10s"),
		LockRetryInterval: getEnvAsDuration("LOCK_RETRY_INTERVAL", "50ms"),
		LockWaitTimeout:   getEnvAsDuration("LOCK_WAIT_TIMEOUT", "5s"),

		// Selection
		SelectionCron:   getEnv("SELECTION_CRON", "0 9 * * *"),
		HistoryPageSize: getEnvAsInt("HISTORY_PAGE_SIZE", 20),

		// Rate limit
		SubmitRateLimit:  getEnvAsInt("SUBMIT_RATE_LIMIT", 0),
		SubmitRateWindow: getEnvAsDuration("SUBMIT_RATE_WINDOW", "1h"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

// NeedsRedis reports whether any component uses Redis.
func (c *Config) NeedsRedis() bool {
	return c.SnapshotBackend == SnapshotBackendRedis || c.SubmitRateLimit > 0
}

// PubNubEnabled reports whether selections should be published.
func (c *Config) PubNubEnabled() bool {
	return c.PubNubPublishKey != "" && c.PubNubSubscribeKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
