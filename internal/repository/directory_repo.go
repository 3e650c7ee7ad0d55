package repository

import (
	"context"
	"errors"

	"catat-worker/internal/models"
)

// ErrVersionConflict Save lost a race against another writer; reload and retry
var ErrVersionConflict = errors.New("directory version conflict")

// DirectoryRepository full-document tenant directory store.
// Save is compare-and-swap on Directory.Version and bumps it on success.
type DirectoryRepository interface {
	Load(ctx context.Context) (*models.Directory, error)
	Save(ctx context.Context, dir *models.Directory) error
}

func emptyDirectory(admin string) *models.Directory {
	return &models.Directory{Admin: models.Admin{PhoneNumber: admin}, Customers: []models.Tenant{}}
}

// applyDefaultAdmin fills the admin identity when the stored document has none
func applyDefaultAdmin(dir *models.Directory, admin string) {
	if dir.Admin.PhoneNumber == "" {
		dir.Admin.PhoneNumber = admin
	}
	if dir.Customers == nil {
		dir.Customers = []models.Tenant{}
	}
}
