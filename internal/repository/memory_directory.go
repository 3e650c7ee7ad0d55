package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"catat-worker/internal/models"
)

// MemoryDirectoryRepository keeps the directory in-process when DB is disabled.
// Documents are stored serialized so callers never share pointers with the store.
type MemoryDirectoryRepository struct {
	mu           sync.RWMutex
	doc          []byte
	version      int64
	defaultAdmin string
}

func NewMemoryDirectoryRepository(defaultAdmin string) *MemoryDirectoryRepository {
	return &MemoryDirectoryRepository{defaultAdmin: defaultAdmin}
}

var _ DirectoryRepository = (*MemoryDirectoryRepository)(nil)

func (r *MemoryDirectoryRepository) Load(_ context.Context) (*models.Directory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.doc == nil {
		return emptyDirectory(r.defaultAdmin), nil
	}
	var dir models.Directory
	if err := json.Unmarshal(r.doc, &dir); err != nil {
		return nil, fmt.Errorf("failed to decode directory: %w", err)
	}
	dir.Version = r.version
	applyDefaultAdmin(&dir, r.defaultAdmin)
	return &dir, nil
}

func (r *MemoryDirectoryRepository) Save(_ context.Context, dir *models.Directory) error {
	raw, err := json.Marshal(dir)
	if err != nil {
		return fmt.Errorf("failed to encode directory: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if dir.Version != r.version {
		return ErrVersionConflict
	}
	r.doc = raw
	r.version++
	dir.Version = r.version
	return nil
}
