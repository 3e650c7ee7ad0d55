package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"catat-worker/internal/apperr"
	"catat-worker/internal/models"
	"catat-worker/internal/repository"
)

// maxMutateAttempts reload-and-reapply rounds before a version conflict is reported
const maxMutateAttempts = 3

// DirectoryService read-modify-write access to the tenant directory
type DirectoryService struct {
	repo   repository.DirectoryRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewDirectoryService(repo repository.DirectoryRepository, now func() time.Time, logger *zap.Logger) *DirectoryService {
	if now == nil {
		now = time.Now
	}
	return &DirectoryService{repo: repo, now: now, logger: logger}
}

// Load returns a snapshot; failures are ConfigPersistence errors
func (s *DirectoryService) Load(ctx context.Context) (*models.Directory, error) {
	dir, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to load directory", zap.Error(err))
		return nil, apperr.ConfigPersistence(err)
	}
	return dir, nil
}

// Mutate applies fn to a fresh copy and saves it with compare-and-swap.
// On a version conflict the directory is reloaded and fn runs again.
// An error returned by fn aborts without saving and is passed through.
func (s *DirectoryService) Mutate(ctx context.Context, fn func(*models.Directory) error) (*models.Directory, error) {
	for attempt := 1; attempt <= maxMutateAttempts; attempt++ {
		current, err := s.Load(ctx)
		if err != nil {
			return nil, err
		}
		next := current.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}

		err = s.repo.Save(ctx, next)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			s.logger.Error("Failed to save directory", zap.Error(err))
			return nil, apperr.ConfigPersistence(err)
		}
		s.logger.Warn("Directory version conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Int64("version", current.Version),
		)
	}
	return nil, apperr.ConfigPersistence(fmt.Errorf("gave up after %d attempts: %w", maxMutateAttempts, repository.ErrVersionConflict))
}

// Touch records activity for phone; unknown numbers are left alone
func (s *DirectoryService) Touch(ctx context.Context, phone string) error {
	_, err := s.Mutate(ctx, func(dir *models.Directory) error {
		if t := dir.Find(phone); t != nil {
			t.LastActive = s.now()
		}
		return nil
	})
	return err
}
