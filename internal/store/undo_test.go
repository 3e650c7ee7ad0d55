package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catat-worker/internal/models"
)

func newMiniredisKV(t *testing.T) (*miniredis.Miniredis, KV) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisKV(client)
}

func TestUndoCache_RoundTripAndOverwrite(t *testing.T) {
	mr, kv := newMiniredisKV(t)
	cache := NewUndoCache(kv, 0)
	ctx := context.Background()

	first := UndoBatch{
		Feature: models.FeaturePreciousMetal,
		Rows: []models.LedgerEntry{{
			Location: models.Location{LedgerID: "l1", Sheet: "Tracker", Range: "N:R"},
			Transaction: models.Transaction{
				Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Category: "Antam",
				Amount: 5_000_000, Quantity: 1, Weight: decimal.NewFromInt(5), Goal: "Dana Darurat",
			},
		}},
	}
	require.NoError(t, cache.Record(ctx, "628111", first))

	second := first
	second.Rows = append([]models.LedgerEntry(nil), first.Rows...)
	second.Rows[0].Transaction.Amount = 7_000_000
	require.NoError(t, cache.Record(ctx, "628111", second))

	got, err := cache.Get(ctx, "628111", models.FeaturePreciousMetal)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, int64(7_000_000), got.Rows[0].Transaction.Amount)
	assert.True(t, got.Rows[0].Transaction.Weight.Equal(decimal.NewFromInt(5)))

	ttl := mr.TTL("catat:last_transactions:precious_metal:628111")
	assert.Equal(t, 24*time.Hour, ttl)

	other, err := cache.Get(ctx, "628111", models.FeatureGeneralExpense)
	require.NoError(t, err)
	assert.Nil(t, other, "batches are scoped per domain")
}

func TestUndoCache_ExpiredIsAbsent(t *testing.T) {
	mr, kv := newMiniredisKV(t)
	cache := NewUndoCache(kv, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Record(ctx, "628111", UndoBatch{
		Feature: models.FeatureGeneralExpense,
		Rows:    []models.LedgerEntry{{Transaction: models.Transaction{Category: "Makan", Amount: 30000}}},
	}))
	mr.FastForward(2 * time.Hour)

	got, err := cache.Get(ctx, "628111", models.FeatureGeneralExpense)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUndoCache_Clear(t *testing.T) {
	kv := NewMemoryKV()
	cache := NewUndoCache(kv, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Record(ctx, "628111", UndoBatch{
		Feature: models.FeatureGeneralExpense,
		Rows:    []models.LedgerEntry{{Transaction: models.Transaction{Category: "Makan", Amount: 30000}}},
	}))
	require.NoError(t, cache.Clear(ctx, "628111", models.FeatureGeneralExpense))

	got, err := cache.Get(ctx, "628111", models.FeatureGeneralExpense)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestContextCache(t *testing.T) {
	mr, kv := newMiniredisKV(t)
	cache := NewContextCache(kv, 0)
	ctx := context.Background()

	got, err := cache.Get(ctx, "628111")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.Save(ctx, "628111", PendingContext{Feature: models.FeaturePreciousMetal, Text: "Antam 5g"}))
	got, err = cache.Get(ctx, "628111")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Antam 5g", got.Text)
	assert.Equal(t, DefaultContextTTL, mr.TTL("catat:context:628111"))

	require.NoError(t, cache.Clear(ctx, "628111"))
	got, err = cache.Get(ctx, "628111")
	require.NoError(t, err)
	assert.Nil(t, got)
}
