package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catat-worker/internal/models"
)

const DefaultContextTTL = 10 * time.Minute

// PendingContext a partial text message waiting for a follow-up image
type PendingContext struct {
	Feature models.Feature `json:"feature"`
	Text    string         `json:"text"`
	SavedAt time.Time      `json:"savedAt"`
}

// ContextCache per-tenant short-lived pending context
type ContextCache struct {
	kv  KV
	ttl time.Duration
}

func NewContextCache(kv KV, ttl time.Duration) *ContextCache {
	if ttl <= 0 {
		ttl = DefaultContextTTL
	}
	return &ContextCache{kv: kv, ttl: ttl}
}

func contextKey(tenant string) string {
	return "catat:context:" + tenant
}

func (c *ContextCache) Save(ctx context.Context, tenant string, pc PendingContext) error {
	raw, err := json.Marshal(pc)
	if err != nil {
		return fmt.Errorf("marshal pending context: %w", err)
	}
	return c.kv.Set(ctx, contextKey(tenant), string(raw), c.ttl)
}

// Get returns nil when no context is pending
func (c *ContextCache) Get(ctx context.Context, tenant string) (*PendingContext, error) {
	raw, err := c.kv.Get(ctx, contextKey(tenant))
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("load pending context: %w", err)
	}
	var pc PendingContext
	if err := json.Unmarshal([]byte(raw), &pc); err != nil {
		return nil, fmt.Errorf("decode pending context: %w", err)
	}
	return &pc, nil
}

func (c *ContextCache) Clear(ctx context.Context, tenant string) error {
	return c.kv.Delete(ctx, contextKey(tenant))
}
