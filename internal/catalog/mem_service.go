package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rkuzmin/streamhub/internal/models"
)

// MemService keeps the catalog in memory. It backs tests and demo
// deployments; the contract matches DBService exactly.
type MemService struct {
	mu      sync.RWMutex
	entries map[string]*models.CatalogEntry
}

func NewMemService() *MemService {
	return &MemService{
		entries: make(map[string]*models.CatalogEntry),
	}
}

// NewSeededMemService returns an in-memory catalog preloaded with the
// demo entries.
func NewSeededMemService() *MemService {
	s := NewMemService()
	for _, entry := range seedEntries() {
		s.entries[entry.ID] = entry
	}
	return s
}

func (s *MemService) Insert(ctx context.Context, entry *models.CatalogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *entry
	s.entries[entry.ID] = &copied
	return nil
}

func (s *MemService) Get(ctx context.Context, id string) (*models.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

func (s *MemService) List(ctx context.Context, opts ListOptions) ([]models.CatalogEntry, error) {
	return applyOptions(s.snapshot(), opts), nil
}

func (s *MemService) Search(ctx context.Context, query string, opts ListOptions) ([]models.CatalogEntry, error) {
	entries := s.snapshot()
	if query != "" {
		q := strings.ToLower(query)
		matched := entries[:0]
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.Title), q) ||
				strings.Contains(strings.ToLower(e.Description), q) ||
				e.HasTag(query) {
				matched = append(matched, e)
			}
		}
		entries = matched
	}
	return applyOptions(entries, opts), nil
}

func (s *MemService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *MemService) AddView(ctx context.Context, id string) error {
	return s.bump(id, func(e *models.CatalogEntry) { e.Views++ })
}

func (s *MemService) AddLike(ctx context.Context, id string) error {
	return s.bump(id, func(e *models.CatalogEntry) { e.Likes++ })
}

func (s *MemService) bump(id string, apply func(*models.CatalogEntry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	apply(entry)
	return nil
}

func (s *MemService) snapshot() []models.CatalogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.CatalogEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, *e)
	}
	return entries
}

func seedEntries() []*models.CatalogEntry {
	now := time.Now()
	mk := func(title, description, category string, tags []string, views, likes int64, age time.Duration) *models.CatalogEntry {
		return &models.CatalogEntry{
			ID:          uuid.New().String(),
			Title:       title,
			Description: description,
			Thumbnail:   "https://picsum.photos/seed/" + strings.ReplaceAll(strings.ToLower(title), " ", "-") + "/640/360",
			PlaybackRef: "https://storage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
			Duration:    596,
			Views:       views,
			Likes:       likes,
			UploadTime:  now.Add(-age),
			Tags:        tags,
			Category:    category,
			Qualities:   []string{"360p", "720p", "1080p"},
			Creator: models.Creator{
				Name:        "StreamHub Originals",
				AvatarRef:   "https://picsum.photos/seed/avatar/80/80",
				Subscribers: 12400,
			},
		}
	}

	return []*models.CatalogEntry{
		mk("Big Buck Bunny", "A giant rabbit takes revenge on three bullying rodents.", "animation",
			[]string{"short", "blender", "classic"}, 120489, 9203, 96*time.Hour),
		mk("Coastal Timelapse", "Sunrise to sunset over the northern coastline.", "nature",
			[]string{"timelapse", "relaxing"}, 48211, 3170, 48*time.Hour),
		mk("Intro to Goroutines", "Concurrency patterns explained with live coding.", "education",
			[]string{"go", "programming", "tutorial"}, 9932, 1210, 24*time.Hour),
		mk("City Drone Tour", "A drone flight through downtown at dusk.", "travel",
			[]string{"drone", "4k"}, 30555, 2044, 12*time.Hour),
	}
}
