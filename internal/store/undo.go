package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catat-worker/internal/models"
)

const DefaultUndoTTL = 24 * time.Hour

// UndoBatch the most recent successful write for a tenant and domain
type UndoBatch struct {
	Feature   models.Feature       `json:"feature"`
	Rows      []models.LedgerEntry `json:"rows"`
	WrittenAt time.Time            `json:"writtenAt"`
}

// UndoCache keeps exactly one batch per tenant and domain; every write overwrites it
type UndoCache struct {
	kv  KV
	ttl time.Duration
}

func NewUndoCache(kv KV, ttl time.Duration) *UndoCache {
	if ttl <= 0 {
		ttl = DefaultUndoTTL
	}
	return &UndoCache{kv: kv, ttl: ttl}
}

func undoKey(tenant string, f models.Feature) string {
	return fmt.Sprintf("catat:last_transactions:%s:%s", f, tenant)
}

// Record overwrites the cached batch for tenant
func (c *UndoCache) Record(ctx context.Context, tenant string, batch UndoBatch) error {
	raw, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal undo batch: %w", err)
	}
	if err := c.kv.Set(ctx, undoKey(tenant, batch.Feature), string(raw), c.ttl); err != nil {
		return fmt.Errorf("store undo batch: %w", err)
	}
	return nil
}

// Get returns the cached batch, or nil when absent or expired
func (c *UndoCache) Get(ctx context.Context, tenant string, f models.Feature) (*UndoBatch, error) {
	raw, err := c.kv.Get(ctx, undoKey(tenant, f))
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("load undo batch: %w", err)
	}
	var batch UndoBatch
	if err := json.Unmarshal([]byte(raw), &batch); err != nil {
		return nil, fmt.Errorf("decode undo batch: %w", err)
	}
	if len(batch.Rows) == 0 {
		return nil, nil
	}
	return &batch, nil
}

// Clear removes the cached batch
func (c *UndoCache) Clear(ctx context.Context, tenant string, f models.Feature) error {
	return c.kv.Delete(ctx, undoKey(tenant, f))
}
