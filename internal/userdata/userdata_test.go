package userdata

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rkuzmin/streamhub/internal/models"
)

// These tests need a running redis; set REDIS_ADDR to enable them.
func setupService(t *testing.T) (*Service, string) {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping redis integration tests")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("Failed to ping redis: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	// unique user per test run keeps keys from colliding
	return NewService(rdb), "test-user-" + uuid.New().String()
}

func TestWishlist(t *testing.T) {
	svc, userID := setupService(t)
	ctx := context.Background()

	ids, err := svc.Wishlist(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to read empty wishlist: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected empty wishlist, got %v", ids)
	}

	if err := svc.AddToWishlist(ctx, userID, "video-1"); err != nil {
		t.Fatalf("Failed to add: %v", err)
	}
	if err := svc.AddToWishlist(ctx, userID, "video-1"); err != nil {
		t.Fatalf("Duplicate add must be a no-op: %v", err)
	}
	if err := svc.AddToWishlist(ctx, userID, "video-2"); err != nil {
		t.Fatalf("Failed to add: %v", err)
	}

	ids, err = svc.Wishlist(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to read wishlist: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(ids))
	}

	ok, err := svc.InWishlist(ctx, userID, "video-1")
	if err != nil {
		t.Fatalf("Failed to check membership: %v", err)
	}
	if !ok {
		t.Error("Expected video-1 in wishlist")
	}

	if err := svc.RemoveFromWishlist(ctx, userID, "video-1"); err != nil {
		t.Fatalf("Failed to remove: %v", err)
	}
	ok, err = svc.InWishlist(ctx, userID, "video-1")
	if err != nil {
		t.Fatalf("Failed to check membership: %v", err)
	}
	if ok {
		t.Error("Expected video-1 removed from wishlist")
	}
}

func TestHistory(t *testing.T) {
	svc, userID := setupService(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		err := svc.AppendHistory(ctx, userID, models.HistoryEntry{
			VideoID:   fmt.Sprintf("video-%d", i),
			WatchedAt: base.Add(time.Duration(i) * time.Minute),
			Progress:  float64(i) * 0.2,
		})
		if err != nil {
			t.Fatalf("Failed to append history: %v", err)
		}
	}

	entries, err := svc.RecentHistory(ctx, userID, 3)
	if err != nil {
		t.Fatalf("Failed to read history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].VideoID != "video-4" {
		t.Errorf("Expected most recent first, got %s", entries[0].VideoID)
	}
}
