package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPAddress != ":8080" {
		t.Fatalf("unexpected default address %s", cfg.HTTPAddress)
	}
	if cfg.CacheOpTimeout != 500*time.Millisecond {
		t.Fatalf("unexpected cache timeout %s", cfg.CacheOpTimeout)
	}
	if cfg.NotifyBatchSize != 25 {
		t.Fatalf("unexpected batch size %d", cfg.NotifyBatchSize)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "kafka:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":9999")
	t.Setenv("CACHE_OP_TIMEOUT", "250ms")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092 ,")
	t.Setenv("NOTIFY_BATCH_SIZE", "not-a-number")

	cfg := Load()

	if cfg.HTTPAddress != ":9999" {
		t.Fatalf("override ignored: %s", cfg.HTTPAddress)
	}
	if cfg.CacheOpTimeout != 250*time.Millisecond {
		t.Fatalf("duration override ignored: %s", cfg.CacheOpTimeout)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Fatalf("broker list mis-parsed: %v", cfg.KafkaBrokers)
	}
	if cfg.NotifyBatchSize != 25 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.NotifyBatchSize)
	}
}
