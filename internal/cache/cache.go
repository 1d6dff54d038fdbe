// Package cache keeps the latest reward snapshot per session.
// It is best effort: the session row stays authoritative.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/balkashynov/listeningroom/internal/config"
	"github.com/balkashynov/listeningroom/internal/models"
)

// Cache stores snapshots keyed by session id
type Cache interface {
	Put(ctx context.Context, snap models.Snapshot) error
	Get(ctx context.Context, sessionID string) (models.Snapshot, bool, error)
	Close() error
}

// New returns a Redis cache when configured and reachable, memory otherwise
func New(cfg *config.Config, logger *slog.Logger) Cache {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory snapshot cache")
		return NewMemory(cfg.CacheTTL)
	}

	r, err := NewRedis(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.CacheTTL)
	if err != nil {
		logger.Warn("redis connection failed, falling back to in-memory snapshot cache",
			"addr", cfg.RedisAddr, "error", err)
		return NewMemory(cfg.CacheTTL)
	}
	logger.Info("using redis snapshot cache", "addr", cfg.RedisAddr)
	return r
}

type memoryEntry struct {
	snap      models.Snapshot
	expiresAt time.Time
}

// Memory is an in-process cache
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an in-process cache; ttl <= 0 keeps entries forever
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Put(_ context.Context, snap models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{snap: snap}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.entries[snap.SessionID] = e
	return nil
}

func (m *Memory) Get(_ context.Context, sessionID string) (models.Snapshot, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[sessionID]
	m.mu.RUnlock()
	if !ok {
		return models.Snapshot{}, false, nil
	}

	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, sessionID)
		m.mu.Unlock()
		return models.Snapshot{}, false, nil
	}
	return e.snap, true, nil
}

func (m *Memory) Close() error {
	return nil
}
