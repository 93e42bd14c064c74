package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StorageQuotaBytes int
	StateTTL          time.Duration
	PersistTimeout    time.Duration
	PersistRetryAfter time.Duration

	LeadEndpoint  string
	SubmitTimeout time.Duration
	LeadDBDriver  string
	LeadDBDSN     string

	SendGridAPIKey string
	LeadNotifyFrom string
	LeadNotifyTo   string

	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration
	Currency             string
}

func Load() Config {
	return Config{
		HTTPAddr: env("HTTP_ADDR", ":8080"),
		GRPCAddr: env("GRPC_ADDR", ":50051"),

		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPassword: env("REDIS_PASSWORD", ""),
		RedisDB:       intEnv("REDIS_DB", 0),

		StorageQuotaBytes: intEnv("STORAGE_QUOTA_BYTES", 5<<20),
		StateTTL:          durationEnv("STATE_TTL", 720*time.Hour),
		PersistTimeout:    durationEnv("PERSIST_TIMEOUT", 500*time.Millisecond),
		PersistRetryAfter: durationEnv("PERSIST_RETRY_AFTER", 30*time.Second),

		LeadEndpoint:  env("LEAD_ENDPOINT", "http://localhost:8080/api/leads"),
		SubmitTimeout: durationEnv("SUBMIT_TIMEOUT", 10*time.Second),
		LeadDBDriver:  env("LEAD_DB_DRIVER", "mysql"),
		LeadDBDSN:     env("LEAD_DB_DSN", ""),

		SendGridAPIKey: env("SENDGRID_API_KEY", ""),
		LeadNotifyFrom: env("LEAD_NOTIFY_FROM", ""),
		LeadNotifyTo:   env("LEAD_NOTIFY_TO", ""),

		SessionIdleTimeout:   durationEnv("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		SessionSweepInterval: durationEnv("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		Currency:             strings.ToUpper(env("CURRENCY", "USD")),
	}
}

func env(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
