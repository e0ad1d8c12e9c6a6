package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultIsValidWithKey(t *testing.T) {
	cfg := Default()
	cfg.LLMAPIKey = "test-key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %T", err)
	}
	if cerr.Key != "OPENAI_API_KEY" {
		t.Fatalf("expected OPENAI_API_KEY, got %s", cerr.Key)
	}
}

func TestValidateRejectsNegativeRounds(t *testing.T) {
	cfg := Default()
	cfg.LLMAPIKey = "k"
	cfg.MaxDebateRounds = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative debate rounds")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MAX_DEBATE_ROUNDS", "5")
	t.Setenv("AGORA_CACHE_TTL", "90s")
	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.MaxDebateRounds != 5 {
		t.Fatalf("expected 5 debate rounds, got %d", cfg.MaxDebateRounds)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Fatalf("expected 90s cache TTL, got %v", cfg.CacheTTL)
	}
	if cfg.LLMAPIKey != "env-key" {
		t.Fatalf("expected env-key, got %s", cfg.LLMAPIKey)
	}
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("MAX_DEBATE_ROUNDS", "lots")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("expected error for malformed MAX_DEBATE_ROUNDS")
	}
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %T", err)
	}
}
