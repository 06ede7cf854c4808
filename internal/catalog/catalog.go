// Package catalog presents the video collection to users. The Service
// interface has two implementations: a database-backed one for real
// deployments and an in-memory one for tests and demo seeding.
package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/rkuzmin/streamhub/internal/models"
)

var ErrNotFound = errors.New("catalog entry not found")

type SortOrder string

const (
	SortRecent SortOrder = "recent"
	SortViews  SortOrder = "views"
	SortLikes  SortOrder = "likes"
)

// ListOptions narrows and orders catalog listings. Zero values mean
// no filtering, recent-first, default limit.
type ListOptions struct {
	Category string
	Tag      string
	Creator  string
	Sort     SortOrder
	Limit    int
}

const defaultLimit = 50

type Service interface {
	Insert(ctx context.Context, entry *models.CatalogEntry) error
	Get(ctx context.Context, id string) (*models.CatalogEntry, error)
	List(ctx context.Context, opts ListOptions) ([]models.CatalogEntry, error)
	Search(ctx context.Context, query string, opts ListOptions) ([]models.CatalogEntry, error)
	Delete(ctx context.Context, id string) error
	AddView(ctx context.Context, id string) error
	AddLike(ctx context.Context, id string) error
}

// applyOptions filters, sorts and truncates entries in place according
// to opts. Shared by both implementations so their observable behavior
// matches.
func applyOptions(entries []models.CatalogEntry, opts ListOptions) []models.CatalogEntry {
	filtered := entries[:0]
	for _, e := range entries {
		if opts.Category != "" && e.Category != opts.Category {
			continue
		}
		if opts.Tag != "" && !e.HasTag(opts.Tag) {
			continue
		}
		if opts.Creator != "" && e.Creator.Name != opts.Creator {
			continue
		}
		filtered = append(filtered, e)
	}

	sortEntries(filtered, opts.Sort)

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

func sortEntries(entries []models.CatalogEntry, order SortOrder) {
	less := func(a, b *models.CatalogEntry) bool {
		return a.UploadTime.After(b.UploadTime)
	}
	switch order {
	case SortViews:
		less = func(a, b *models.CatalogEntry) bool { return a.Views > b.Views }
	case SortLikes:
		less = func(a, b *models.CatalogEntry) bool { return a.Likes > b.Likes }
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return less(&entries[i], &entries[j])
	})
}
