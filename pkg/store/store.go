// Package store persists per-number agent configuration. One phone number
// maps to one agent: its system prompt, synthesis voice, and recognizer
// variant.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when no agent is saved for a number.
var ErrNotFound = errors.New("agent not found")

// AgentConfig is the saved configuration for one phone number.
type AgentConfig struct {
	PhoneNumber  string    `json:"phoneNumber"`
	SystemPrompt string    `json:"systemPrompt"`
	VoiceID      string    `json:"voiceId"`
	Transcriber  string    `json:"transcriber"`
	CreatedAt    time.Time `json:"created"`
}

// DefaultAgent is what a call gets when nothing is saved for its number.
func DefaultAgent(phoneNumber string) AgentConfig {
	return AgentConfig{
		PhoneNumber:  phoneNumber,
		SystemPrompt: "You are a helpful assistant.",
		VoiceID:      "Ken",
		Transcriber:  "flux",
	}
}

// Store saves and loads agent configuration. Put overwrites any existing
// agent for the same number.
type Store interface {
	Put(ctx context.Context, cfg AgentConfig) error
	Get(ctx context.Context, phoneNumber string) (AgentConfig, error)
	Close()
}

// NormalizeNumber reduces a phone number to its digits so "+1 (555) 010-0000"
// and "15550100000" key the same agent.
func NormalizeNumber(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fillDefaults backstops blank fields on a loaded or saved config.
func fillDefaults(cfg AgentConfig) AgentConfig {
	def := DefaultAgent(cfg.PhoneNumber)
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = def.SystemPrompt
	}
	if strings.TrimSpace(cfg.VoiceID) == "" {
		cfg.VoiceID = def.VoiceID
	}
	if strings.TrimSpace(cfg.Transcriber) == "" {
		cfg.Transcriber = def.Transcriber
	}
	return cfg
}
