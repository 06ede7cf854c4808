// Package userdata keeps small per-user lists (wishlist, watch
// history) in redis. These were free-form localStorage blobs in the
// original client; here they live behind one typed service.
package userdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rkuzmin/streamhub/internal/models"
)

const historyLimit = 100

type Service struct {
	rdb *redis.Client
}

func NewService(rdb *redis.Client) *Service {
	return &Service{rdb: rdb}
}

func wishlistKey(userID string) string {
	return "user:" + userID + ":wishlist"
}

func historyKey(userID string) string {
	return "user:" + userID + ":history"
}

// AddToWishlist records a video id on the user's wishlist. Adding an
// id twice is a no-op.
func (s *Service) AddToWishlist(ctx context.Context, userID, videoID string) error {
	if err := s.rdb.SAdd(ctx, wishlistKey(userID), videoID).Err(); err != nil {
		return fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return nil
}

func (s *Service) RemoveFromWishlist(ctx context.Context, userID, videoID string) error {
	if err := s.rdb.SRem(ctx, wishlistKey(userID), videoID).Err(); err != nil {
		return fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	return nil
}

func (s *Service) Wishlist(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, wishlistKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read wishlist: %w", err)
	}
	return ids, nil
}

func (s *Service) InWishlist(ctx context.Context, userID, videoID string) (bool, error) {
	ok, err := s.rdb.SIsMember(ctx, wishlistKey(userID), videoID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return ok, nil
}

// AppendHistory pushes a watch event onto the user's history, trimming
// it to the most recent entries.
func (s *Service) AppendHistory(ctx context.Context, userID string, entry models.HistoryEntry) error {
	if entry.WatchedAt.IsZero() {
		entry.WatchedAt = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode history entry: %w", err)
	}

	key := historyKey(userID)
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, historyLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// RecentHistory returns up to limit entries, most recent first.
func (s *Service) RecentHistory(ctx context.Context, userID string, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}

	raw, err := s.rdb.LRange(ctx, historyKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]models.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
