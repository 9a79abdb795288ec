package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "KAFKA_BROKERS", "SERVICE_NAME", "SEED_ENABLED", "RESERVE_ATTEMPTS"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.HTTPAddr != ":8081" {
		t.Errorf("expected default http addr :8081, got %s", cfg.HTTPAddr)
	}
	if cfg.ServiceName != "order-api" {
		t.Errorf("expected default service name order-api, got %s", cfg.ServiceName)
	}
	if !cfg.SeedEnabled {
		t.Error("expected seeding enabled by default")
	}
	if cfg.ReserveAttempts != 3 {
		t.Errorf("expected default 3 reserve attempts, got %d", cfg.ReserveAttempts)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "kafka:9092" {
		t.Errorf("expected default broker list, got %v", cfg.KafkaBrokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092 ,")
	t.Setenv("SEED_ENABLED", "false")
	t.Setenv("RESERVE_ATTEMPTS", "5")

	cfg := Load()

	if cfg.HTTPAddr != ":9000" {
		t.Errorf("expected :9000, got %s", cfg.HTTPAddr)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "b1:9092" || cfg.KafkaBrokers[1] != "b2:9092" {
		t.Errorf("expected trimmed broker list, got %v", cfg.KafkaBrokers)
	}
	if cfg.SeedEnabled {
		t.Error("expected seeding disabled")
	}
	if cfg.ReserveAttempts != 5 {
		t.Errorf("expected 5 reserve attempts, got %d", cfg.ReserveAttempts)
	}
}

func TestLoadRejectsGarbageInts(t *testing.T) {
	t.Setenv("RESERVE_ATTEMPTS", "zero")
	if got := Load().ReserveAttempts; got != 3 {
		t.Errorf("expected fallback to 3, got %d", got)
	}

	t.Setenv("RESERVE_ATTEMPTS", "-2")
	if got := Load().ReserveAttempts; got != 3 {
		t.Errorf("expected fallback to 3, got %d", got)
	}
}
