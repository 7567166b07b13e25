package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "CONFIRM_STORE", "NIGHT_TZ", "AMQP_URL"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("Port: expected 8080, got %d", cfg.Port)
	}
	if cfg.ConfirmStore != ConfirmStoreMySQL {
		t.Errorf("ConfirmStore: expected %s, got %s", ConfirmStoreMySQL, cfg.ConfirmStore)
	}
	if cfg.NightTZ != time.UTC {
		t.Errorf("NightTZ: expected UTC, got %v", cfg.NightTZ)
	}
	if cfg.AMQPURL != "" {
		t.Errorf("AMQPURL: expected publishing off by default, got %q", cfg.AMQPURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CONFIRM_STORE", "redis")
	t.Setenv("CONFIRM_MAX_ATTEMPTS", "7")
	t.Setenv("CELL_SIZE_DEG", "0.01")
	t.Setenv("BBOX_DELTA_DEG", "-1")
	t.Setenv("NIGHT_TZ", "Europe/Zurich")

	cfg := Load()
	if cfg.Port != 9090 || cfg.ConfirmMaxAttempts != 7 {
		t.Errorf("Expected port 9090 and 7 attempts, got %d and %d", cfg.Port, cfg.ConfirmMaxAttempts)
	}
	if cfg.ConfirmStore != ConfirmStoreRedis {
		t.Errorf("ConfirmStore: expected redis, got %s", cfg.ConfirmStore)
	}
	if cfg.CellSizeDeg != 0.01 {
		t.Errorf("CellSizeDeg: expected 0.01, got %f", cfg.CellSizeDeg)
	}
	if cfg.BBoxDeltaDeg != 0.002 {
		t.Errorf("BBoxDeltaDeg: bad value should keep the default, got %f", cfg.BBoxDeltaDeg)
	}
	if cfg.NightTZ.String() != "Europe/Zurich" {
		t.Errorf("NightTZ: expected Europe/Zurich, got %v", cfg.NightTZ)
	}
}

func TestLoadUnknownStore(t *testing.T) {
	t.Setenv("CONFIRM_STORE", "etcd")
	if cfg := Load(); cfg.ConfirmStore != ConfirmStoreMySQL {
		t.Errorf("ConfirmStore: expected fallback to mysql, got %s", cfg.ConfirmStore)
	}
}
