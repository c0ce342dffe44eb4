package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "3000")
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("GeminiModel = %q, want default model", cfg.GeminiModel)
	}
	if cfg.GenerateTimeout != 30*time.Second {
		t.Errorf("GenerateTimeout = %v, want 30s", cfg.GenerateTimeout)
	}
	if cfg.IsProduction() {
		t.Error("IsProduction() = true for default env")
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("Load() expected error when GEMINI_API_KEY is unset")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PORT", "8081")
	t.Setenv("APP_ENV", "production")
	t.Setenv("GENERATE_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8081" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8081")
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}
	if cfg.GenerateTimeout != 5*time.Second {
		t.Errorf("GenerateTimeout = %v, want 5s", cfg.GenerateTimeout)
	}
}

func TestGetDurationEnv_Invalid(t *testing.T) {
	t.Setenv("GENERATE_TIMEOUT_SECONDS", "not-a-number")

	if got := getDurationEnv("GENERATE_TIMEOUT_SECONDS", 30*time.Second); got != 30*time.Second {
		t.Errorf("getDurationEnv() = %v, want fallback 30s", got)
	}
}
