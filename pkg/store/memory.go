package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process store for deployments without a database, and for
// tests.
type Memory struct {
	mu     sync.RWMutex
	agents map[string]AgentConfig
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{agents: make(map[string]AgentConfig)}
}

func (m *Memory) Put(_ context.Context, cfg AgentConfig) error {
	key := NormalizeNumber(cfg.PhoneNumber)
	cfg = fillDefaults(cfg)
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	m.agents[key] = cfg
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, phoneNumber string) (AgentConfig, error) {
	m.mu.RLock()
	cfg, ok := m.agents[NormalizeNumber(phoneNumber)]
	m.mu.RUnlock()
	if !ok {
		return AgentConfig{}, ErrNotFound
	}
	return cfg, nil
}

func (m *Memory) Close() {}
