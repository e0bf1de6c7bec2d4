package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	appErrors "github.com/cometicitcare/dba-backend-sub002/pkg/errors"
)

type referenceStore interface {
	ListByKind(ctx context.Context, kind models.ReferenceKind) ([]models.ReferenceItem, error)
	GetByCode(ctx context.Context, kind models.ReferenceKind, code string) (*models.ReferenceItem, error)
}

// ReferenceService serves the administrative-division and nikaya code tables
// through a read-through Redis cache. The tables change rarely, so a cache
// miss falls back to the database and repopulates with the configured TTL.
type ReferenceService struct {
	repo   referenceStore
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewReferenceService constructs the service.
func NewReferenceService(repo referenceStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReferenceService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func referenceCacheKey(kind models.ReferenceKind) string {
	return fmt.Sprintf("reference:%s", kind)
}

// List returns all active entries of a reference table.
func (s *ReferenceService) List(ctx context.Context, kind models.ReferenceKind) ([]models.ReferenceItem, error) {
	var cached []models.ReferenceItem
	if hit, err := s.cache.Get(ctx, referenceCacheKey(kind), &cached); err == nil && hit {
		return cached, nil
	}

	items, err := s.repo.ListByKind(ctx, kind)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, fmt.Sprintf("failed to list %s reference data", kind))
	}
	if err := s.cache.Set(ctx, referenceCacheKey(kind), items, s.ttl); err != nil {
		s.logger.Warn("failed to cache reference data", zap.String("kind", string(kind)), zap.Error(err))
	}
	return items, nil
}

// Get resolves one coded entry, reading through the cached list.
func (s *ReferenceService) Get(ctx context.Context, kind models.ReferenceKind, code string) (*models.ReferenceItem, error) {
	items, err := s.List(ctx, kind)
	if err == nil {
		for i := range items {
			if items[i].Code == code {
				return &items[i], nil
			}
		}
	}
	item, err := s.repo.GetByCode(ctx, kind, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s code %s not found", kind, code))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to resolve reference code")
	}
	return item, nil
}

// Invalidate drops all cached reference lists, used after data loads.
func (s *ReferenceService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, "reference:*")
}
