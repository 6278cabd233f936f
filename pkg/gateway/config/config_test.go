package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("FLOW_OPENROUTER_KEY", "or-test")
	t.Setenv("FLOW_DEEPGRAM_API_KEY", "dg-test")
	t.Setenv("FLOW_MURF_API_KEY", "mk-test")
}

func TestLoadFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.LLMProvider != LLMProviderOpenRouter {
		t.Errorf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.EarlyMediaFrames != 32 {
		t.Errorf("EarlyMediaFrames = %d", cfg.EarlyMediaFrames)
	}
	if cfg.GenerateTimeout != 15*time.Second {
		t.Errorf("GenerateTimeout = %v", cfg.GenerateTimeout)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("FLOW_ADDR", ":9090")
	t.Setenv("FLOW_TWILIO_PHONE_NUMBER", "+15550100000")
	t.Setenv("FLOW_EARLY_MEDIA_FRAMES", "64")
	t.Setenv("FLOW_GENERATE_TIMEOUT", "5s")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.PhoneNumber != "+15550100000" {
		t.Errorf("PhoneNumber = %q", cfg.PhoneNumber)
	}
	if cfg.EarlyMediaFrames != 64 {
		t.Errorf("EarlyMediaFrames = %d", cfg.EarlyMediaFrames)
	}
	if cfg.GenerateTimeout != 5*time.Second {
		t.Errorf("GenerateTimeout = %v", cfg.GenerateTimeout)
	}
}

func TestLoadFromEnvMissingKeys(t *testing.T) {
	t.Setenv("FLOW_DEEPGRAM_API_KEY", "dg-test")
	t.Setenv("FLOW_MURF_API_KEY", "mk-test")
	t.Setenv("FLOW_OPENROUTER_KEY", "")

	if _, err := LoadFromEnv(); err == nil || !strings.Contains(err.Error(), "FLOW_OPENROUTER_KEY") {
		t.Fatalf("err = %v, want mention of FLOW_OPENROUTER_KEY", err)
	}
}

func TestLoadFromEnvGeminiProvider(t *testing.T) {
	t.Setenv("FLOW_DEEPGRAM_API_KEY", "dg-test")
	t.Setenv("FLOW_MURF_API_KEY", "mk-test")
	t.Setenv("FLOW_LLM_PROVIDER", "gemini")

	if _, err := LoadFromEnv(); err == nil || !strings.Contains(err.Error(), "FLOW_GEMINI_API_KEY") {
		t.Fatalf("err = %v, want mention of FLOW_GEMINI_API_KEY", err)
	}

	t.Setenv("FLOW_GEMINI_API_KEY", "gm-test")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.LLMProvider != LLMProviderGemini {
		t.Errorf("LLMProvider = %q", cfg.LLMProvider)
	}
}

func TestLoadFromEnvRejectsUnknownProvider(t *testing.T) {
	setRequired(t)
	t.Setenv("FLOW_LLM_PROVIDER", "mystery")

	if _, err := LoadFromEnv(); err == nil || !strings.Contains(err.Error(), "FLOW_LLM_PROVIDER") {
		t.Fatalf("err = %v, want mention of FLOW_LLM_PROVIDER", err)
	}
}
