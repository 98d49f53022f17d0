// Package config centralises configuration parsing for the fitcoach API.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration values for the fitcoach API.
type Config struct {
	HTTPAddress        string
	MongoURI           string
	MongoDatabase      string
	RedisAddr          string
	RedisPassword      string
	CacheOpTimeout     time.Duration // Upper bound for a single cache round trip; past it the op fails open.
	KafkaBrokers       []string
	NotificationTopic  string
	NotifyPollInterval time.Duration
	NotifyBatchSize    int
	JWTSecret          string
	JWTIssuer          string
	SuggestionURL      string
	SuggestionToken    string
	SuggestionTimeout  time.Duration
}

// Load reads environment variables into Config, applying sensible defaults for local dev.
func Load() Config {
	cfg := Config{
		HTTPAddress:        getEnv("HTTP_ADDRESS", ":8080"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:      getEnv("MONGO_DATABASE", "fitcoach"),
		RedisAddr:          getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		CacheOpTimeout:     getDurationEnv("CACHE_OP_TIMEOUT", 500*time.Millisecond),
		NotificationTopic:  getEnv("NOTIFICATION_TOPIC", "fitcoach.notifications"),
		NotifyPollInterval: getDurationEnv("NOTIFY_POLL_INTERVAL", 2*time.Second),
		NotifyBatchSize:    getIntEnv("NOTIFY_BATCH_SIZE", 25),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:          getEnv("JWT_ISSUER", "fitcoach.identity"),
		SuggestionURL:      getEnv("SUGGESTION_URL", ""),
		SuggestionToken:    getEnv("SUGGESTION_TOKEN", ""),
		SuggestionTimeout:  getDurationEnv("SUGGESTION_TIMEOUT", 20*time.Second),
	}

	brokers := getEnv("KAFKA_BROKERS", "kafka:9092")
	cfg.KafkaBrokers = splitAndTrim(brokers)
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
