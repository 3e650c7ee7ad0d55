package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catat-worker/internal/models"
)

func TestMemoryDirectory_CompareAndSwap(t *testing.T) {
	repo := NewMemoryDirectoryRepository("628000")
	ctx := context.Background()

	a, err := repo.Load(ctx)
	require.NoError(t, err)
	b, err := repo.Load(ctx)
	require.NoError(t, err)

	a.Customers = append(a.Customers, models.Tenant{PhoneNumber: "628111"})
	require.NoError(t, repo.Save(ctx, a))
	assert.Equal(t, int64(1), a.Version)

	b.Customers = append(b.Customers, models.Tenant{PhoneNumber: "628222"})
	assert.ErrorIs(t, repo.Save(ctx, b), ErrVersionConflict)

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, got.Find("628111"))
	assert.Nil(t, got.Find("628222"))
	assert.Equal(t, "628000", got.Admin.PhoneNumber)
}

func TestMemoryDirectory_LoadReturnsCopies(t *testing.T) {
	repo := NewMemoryDirectoryRepository("628000")
	ctx := context.Background()

	d, _ := repo.Load(ctx)
	d.Customers = append(d.Customers, models.Tenant{PhoneNumber: "628111", Whitelisted: true})
	require.NoError(t, repo.Save(ctx, d))

	d.Find("628111").Whitelisted = false
	again, _ := repo.Load(ctx)
	assert.True(t, again.Find("628111").Whitelisted)
}
