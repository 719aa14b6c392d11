package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/gids?sslmode=disable")
	t.Setenv("JWT_ACCESS_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.MatchMaxFanout != 5 {
		t.Errorf("MatchMaxFanout = %d, want 5", cfg.MatchMaxFanout)
	}
	if cfg.MatchOfferTTL != 24*time.Hour {
		t.Errorf("MatchOfferTTL = %v, want 24h", cfg.MatchOfferTTL)
	}
	if cfg.MatchMinPostcodeProviders != 3 {
		t.Errorf("MatchMinPostcodeProviders = %d, want 3", cfg.MatchMinPostcodeProviders)
	}
	if cfg.SweepInterval != 5*time.Minute {
		t.Errorf("SweepInterval = %v, want 5m", cfg.SweepInterval)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ACCESS_SECRET", "test-secret")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should fail without DATABASE_URL")
	}
}

func TestWildcardOriginForcesAllowAll(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.CORSAllowAll {
		t.Fatalf("wildcard origin should enable CORSAllowAll")
	}
}

func TestAllowAllWithCredentialsRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ALLOW_ALL", "true")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject allow-all CORS with credentials")
	}
}

func TestInvalidFanoutRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MATCH_MAX_FANOUT", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject a zero fanout")
	}
}
