package config

import (
	"testing"
	"time"
)

func setBase(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
}

func TestLoadDefaults(t *testing.T) {
	setBase(t)
	t.Setenv("API_BASE_URL", "")
	t.Setenv("WARNING_TTL", "")
	t.Setenv("API_TIMEOUT", "")
	t.Setenv("INSTRUCTOR_IDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "http://localhost:5000" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.WarningTTL != 6*time.Second {
		t.Fatalf("WarningTTL = %s", cfg.WarningTTL)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Fatalf("APITimeout = %s", cfg.APITimeout)
	}
	if cfg.HTTPAddr != ":8080" || cfg.Env != "dev" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	setBase(t)
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("WARNING_TTL", "2s")
	t.Setenv("INSTRUCTOR_IDS", "10, 20 30")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.APIBaseURL)
	}
	if cfg.WarningTTL != 2*time.Second {
		t.Fatalf("WarningTTL = %s", cfg.WarningTTL)
	}
	if !cfg.IsInstructor(20) || !cfg.IsInstructor(30) || cfg.IsInstructor(40) {
		t.Fatalf("InstructorIDs = %v", cfg.InstructorIDs)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing_token", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "")
		t.Setenv("DATABASE_URL", "x")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for empty BOT_TOKEN")
		}
	})
	t.Run("bad_ids", func(t *testing.T) {
		setBase(t)
		t.Setenv("INSTRUCTOR_IDS", "1,abc")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for bad id")
		}
	})
	t.Run("negative_ttl", func(t *testing.T) {
		setBase(t)
		t.Setenv("INSTRUCTOR_IDS", "")
		t.Setenv("WARNING_TTL", "-1s")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for negative ttl")
		}
	})
}
