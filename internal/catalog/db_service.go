package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/rkuzmin/streamhub/internal/database"
	"github.com/rkuzmin/streamhub/internal/models"
	"github.com/rkuzmin/streamhub/pkg/logger"
)

// DBService is the database-backed catalog, with an optional redis
// read-through cache on point lookups.
type DBService struct {
	repo  *database.CatalogRepository
	cache *EntryCache
}

func NewDBService(repo *database.CatalogRepository, cache *EntryCache) *DBService {
	return &DBService{repo: repo, cache: cache}
}

func (s *DBService) Insert(ctx context.Context, entry *models.CatalogEntry) error {
	start := time.Now()
	err := s.repo.Insert(ctx, entry)
	logger.LogCatalogOperation(ctx, "insert", entry.ID, time.Since(start), err)
	return err
}

func (s *DBService) Get(ctx context.Context, id string) (*models.CatalogEntry, error) {
	if cached, err := s.cache.Get(ctx, id); err != nil {
		// cache trouble must never fail a read
		logger.Logger.Warn("Catalog cache read failed", "video_id", id, "error", err.Error())
	} else if cached != nil {
		return cached, nil
	}

	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.cache.Set(ctx, entry); err != nil {
		logger.Logger.Warn("Catalog cache write failed", "video_id", id, "error", err.Error())
	}
	return entry, nil
}

func (s *DBService) List(ctx context.Context, opts ListOptions) ([]models.CatalogEntry, error) {
	entries, err := s.fetch(ctx, opts)
	if err != nil {
		return nil, err
	}
	return applyOptions(entries, opts), nil
}

func (s *DBService) Search(ctx context.Context, query string, opts ListOptions) ([]models.CatalogEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	entries, err := s.repo.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return applyOptions(entries, opts), nil
}

func (s *DBService) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.repo.Delete(ctx, id)
	logger.LogCatalogOperation(ctx, "delete", id, time.Since(start), err)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *DBService) AddView(ctx context.Context, id string) error {
	return s.bump(ctx, id, s.repo.AddView)
}

func (s *DBService) AddLike(ctx context.Context, id string) error {
	return s.bump(ctx, id, s.repo.AddLike)
}

func (s *DBService) bump(ctx context.Context, id string, op func(context.Context, string) error) error {
	if err := op(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *DBService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, id); err != nil {
		logger.Logger.Warn("Catalog cache invalidation failed", "video_id", id, "error", err.Error())
	}
}

// fetch narrows the database scan when a single-column filter allows
// it; tag filtering always happens in applyOptions.
func (s *DBService) fetch(ctx context.Context, opts ListOptions) ([]models.CatalogEntry, error) {
	switch {
	case opts.Category != "":
		return s.repo.ListByCategory(ctx, opts.Category)
	case opts.Creator != "":
		return s.repo.ListByCreator(ctx, opts.Creator)
	default:
		return s.repo.List(ctx)
	}
}
