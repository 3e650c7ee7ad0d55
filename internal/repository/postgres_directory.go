package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"catat-worker/internal/models"
)

const directorySchema = `
	CREATE TABLE IF NOT EXISTS tenant_directory (
		directory_id TEXT PRIMARY KEY,
		document     JSONB NOT NULL,
		version      BIGINT NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// PostgresDirectoryRepository stores the directory as one JSONB row with a version column
type PostgresDirectoryRepository struct {
	db           *sql.DB
	directoryID  string
	defaultAdmin string
}

func NewPostgresDirectoryRepository(db *sql.DB, directoryID, defaultAdmin string) *PostgresDirectoryRepository {
	if directoryID == "" {
		directoryID = "default"
	}
	return &PostgresDirectoryRepository{db: db, directoryID: directoryID, defaultAdmin: defaultAdmin}
}

var _ DirectoryRepository = (*PostgresDirectoryRepository)(nil)

// EnsureSchema creates the table when missing
func (r *PostgresDirectoryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, directorySchema); err != nil {
		return fmt.Errorf("failed to create tenant_directory: %w", err)
	}
	return nil
}

// Load returns the stored directory; a missing row yields an empty directory at version 0
func (r *PostgresDirectoryRepository) Load(ctx context.Context) (*models.Directory, error) {
	query := `
		SELECT document, version
		FROM tenant_directory
		WHERE directory_id = $1
	`
	var raw []byte
	var version int64
	err := r.db.QueryRowContext(ctx, query, r.directoryID).Scan(&raw, &version)
	if err != nil {
		if err == sql.ErrNoRows {
			return emptyDirectory(r.defaultAdmin), nil
		}
		return nil, fmt.Errorf("failed to load directory: %w", err)
	}

	var dir models.Directory
	if err := json.Unmarshal(raw, &dir); err != nil {
		return nil, fmt.Errorf("failed to decode directory: %w", err)
	}
	dir.Version = version
	applyDefaultAdmin(&dir, r.defaultAdmin)
	return &dir, nil
}

// Save writes the full document if nobody saved since dir was loaded
func (r *PostgresDirectoryRepository) Save(ctx context.Context, dir *models.Directory) error {
	raw, err := json.Marshal(dir)
	if err != nil {
		return fmt.Errorf("failed to encode directory: %w", err)
	}

	var res sql.Result
	if dir.Version == 0 {
		res, err = r.db.ExecContext(ctx, `
			INSERT INTO tenant_directory (directory_id, document, version, updated_at)
			VALUES ($1, $2, 1, now())
			ON CONFLICT (directory_id) DO NOTHING
		`, r.directoryID, raw)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE tenant_directory
			SET document = $2, version = version + 1, updated_at = now()
			WHERE directory_id = $1 AND version = $3
		`, r.directoryID, raw, dir.Version)
	}
	if err != nil {
		return fmt.Errorf("failed to save directory: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save directory: %w", err)
	}
	if n == 0 {
		return ErrVersionConflict
	}
	dir.Version++
	return nil
}
