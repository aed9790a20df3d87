package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HTTPAddr != ":8084" {
		t.Fatalf("unexpected default HTTP_ADDR %s", cfg.HTTPAddr)
	}
	if cfg.UpdateChannel != "scheduleUpdate" {
		t.Fatalf("unexpected default UPDATE_CHANNEL %s", cfg.UpdateChannel)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("unexpected default REQUEST_TIMEOUT %s", cfg.RequestTimeout)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("unexpected default SESSION_TTL %s", cfg.SessionTTL)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":18084")
	t.Setenv("INSTITUTE_BASE_URL", "http://institute.test")
	t.Setenv("REDIS_ADDR", "redis.test:6379")
	t.Setenv("UPDATE_CHANNEL", "scheduleUpdateTest")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("SESSION_SWEEP_INTERVAL", "30s")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.HTTPAddr != ":18084" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.InstituteBaseURL != "http://institute.test" {
		t.Fatalf("expected INSTITUTE_BASE_URL override, got %s", cfg.InstituteBaseURL)
	}
	if cfg.RedisAddr != "redis.test:6379" {
		t.Fatalf("expected REDIS_ADDR override, got %s", cfg.RedisAddr)
	}
	if cfg.UpdateChannel != "scheduleUpdateTest" {
		t.Fatalf("expected UPDATE_CHANNEL override, got %s", cfg.UpdateChannel)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("expected REQUEST_TIMEOUT 3s, got %s", cfg.RequestTimeout)
	}
	if cfg.SessionTTL != 5*time.Minute {
		t.Fatalf("expected SESSION_TTL 5m, got %s", cfg.SessionTTL)
	}
	if cfg.SessionSweepInterval != 30*time.Second {
		t.Fatalf("expected SESSION_SWEEP_INTERVAL 30s, got %s", cfg.SessionSweepInterval)
	}
	if cfg.Env != "production" || cfg.LogLevel != "debug" {
		t.Fatalf("expected ENV/LOG_LEVEL overrides, got %s/%s", cfg.Env, cfg.LogLevel)
	}
}
