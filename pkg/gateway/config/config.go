// Package config loads gateway configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LLMProvider selects which backend generates agent replies.
type LLMProvider string

const (
	LLMProviderOpenRouter LLMProvider = "openrouter"
	LLMProviderGemini     LLMProvider = "gemini"
)

type Config struct {
	Addr string

	// PublicHost is the externally reachable host used when building the
	// media stream URL handed to the telephony provider. Empty means use
	// the incoming request's Host header.
	PublicHost string

	// PhoneNumber is the inbound number this deployment answers; it keys
	// the agent lookup and is shown in the web UI.
	PhoneNumber string

	LLMProvider     LLMProvider
	OpenRouterKey   string
	OpenRouterModel string
	GeminiAPIKey    string
	GeminiModel     string

	DeepgramAPIKey  string
	DeepgramBaseURL string
	MurfAPIKey      string
	MurfWSBaseURL   string

	// DatabaseURL enables the Postgres agent store; empty keeps agents
	// in memory.
	DatabaseURL string

	EarlyMediaFrames int
	GenerateTimeout  time.Duration
	WSWriteTimeout   time.Duration

	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("FLOW_ADDR", ":8080"),
		PublicHost:          strings.TrimSpace(os.Getenv("FLOW_PUBLIC_HOST")),
		PhoneNumber:         strings.TrimSpace(os.Getenv("FLOW_TWILIO_PHONE_NUMBER")),
		LLMProvider:         LLMProvider(envOr("FLOW_LLM_PROVIDER", string(LLMProviderOpenRouter))),
		OpenRouterKey:       strings.TrimSpace(os.Getenv("FLOW_OPENROUTER_KEY")),
		OpenRouterModel:     strings.TrimSpace(os.Getenv("FLOW_OPENROUTER_MODEL")),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("FLOW_GEMINI_API_KEY")),
		GeminiModel:         strings.TrimSpace(os.Getenv("FLOW_GEMINI_MODEL")),
		DeepgramAPIKey:      strings.TrimSpace(os.Getenv("FLOW_DEEPGRAM_API_KEY")),
		DeepgramBaseURL:     strings.TrimSpace(os.Getenv("FLOW_DEEPGRAM_BASE_URL")),
		MurfAPIKey:          strings.TrimSpace(os.Getenv("FLOW_MURF_API_KEY")),
		MurfWSBaseURL:       strings.TrimSpace(os.Getenv("FLOW_MURF_WS_BASE_URL")),
		DatabaseURL:         strings.TrimSpace(os.Getenv("FLOW_DATABASE_URL")),
		EarlyMediaFrames:    envIntOr("FLOW_EARLY_MEDIA_FRAMES", 32),
		GenerateTimeout:     envDurationOr("FLOW_GENERATE_TIMEOUT", 15*time.Second),
		WSWriteTimeout:      envDurationOr("FLOW_WS_WRITE_TIMEOUT", 5*time.Second),
		ReadHeaderTimeout:   envDurationOr("FLOW_READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownGracePeriod: envDurationOr("FLOW_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	switch cfg.LLMProvider {
	case LLMProviderOpenRouter, LLMProviderGemini:
	default:
		return Config{}, fmt.Errorf("FLOW_LLM_PROVIDER must be one of openrouter|gemini")
	}
	if cfg.LLMProvider == LLMProviderOpenRouter && cfg.OpenRouterKey == "" {
		return Config{}, fmt.Errorf("FLOW_OPENROUTER_KEY must be set when FLOW_LLM_PROVIDER=openrouter")
	}
	if cfg.LLMProvider == LLMProviderGemini && cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("FLOW_GEMINI_API_KEY must be set when FLOW_LLM_PROVIDER=gemini")
	}
	if cfg.DeepgramAPIKey == "" {
		return Config{}, fmt.Errorf("FLOW_DEEPGRAM_API_KEY must be set")
	}
	if cfg.MurfAPIKey == "" {
		return Config{}, fmt.Errorf("FLOW_MURF_API_KEY must be set")
	}
	if cfg.EarlyMediaFrames <= 0 {
		return Config{}, fmt.Errorf("FLOW_EARLY_MEDIA_FRAMES must be > 0")
	}
	if cfg.GenerateTimeout <= 0 {
		return Config{}, fmt.Errorf("FLOW_GENERATE_TIMEOUT must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("FLOW_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("FLOW_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("FLOW_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
