package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rkuzmin/streamhub/internal/models"
)

func TestStoredVideoRepository_Insert(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewStoredVideoRepository(db)
	ctx := context.Background()

	video := models.NewStoredVideo("Test Video", "A test video", "abc.mp4", "video/mp4", 1024)
	video.Duration = 12.5
	video.Thumbnail = "abc.jpg"

	if err := repo.Insert(ctx, video); err != nil {
		t.Fatalf("Failed to insert video: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, video.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve video: %v", err)
	}

	if retrieved.Title != video.Title {
		t.Errorf("Expected title %s, got %s", video.Title, retrieved.Title)
	}
	if retrieved.ObjectKey != video.ObjectKey {
		t.Errorf("Expected object key %s, got %s", video.ObjectKey, retrieved.ObjectKey)
	}
	if retrieved.Size != video.Size {
		t.Errorf("Expected size %d, got %d", video.Size, retrieved.Size)
	}
	if retrieved.Duration != video.Duration {
		t.Errorf("Expected duration %f, got %f", video.Duration, retrieved.Duration)
	}
}

func TestStoredVideoRepository_GetByID_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewStoredVideoRepository(db)

	_, err := repo.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStoredVideoRepository_List(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewStoredVideoRepository(db)
	ctx := context.Background()

	video1 := models.NewStoredVideo("Video 1", "First video", "v1.mp4", "video/mp4", 1024)
	video2 := models.NewStoredVideo("Video 2", "Second video", "v2.mp4", "video/mp4", 2048)
	video2.UploadTime = video1.UploadTime.Add(10 * time.Millisecond)

	if err := repo.Insert(ctx, video1); err != nil {
		t.Fatalf("Failed to insert video1: %v", err)
	}
	if err := repo.Insert(ctx, video2); err != nil {
		t.Fatalf("Failed to insert video2: %v", err)
	}

	videos, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list videos: %v", err)
	}

	if len(videos) != 2 {
		t.Fatalf("Expected 2 videos, got %d", len(videos))
	}

	if videos[0].ID != video2.ID {
		t.Errorf("Expected first video to be most recent (video2), got %s", videos[0].ID)
	}
}

func TestStoredVideoRepository_Delete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewStoredVideoRepository(db)
	ctx := context.Background()

	video := models.NewStoredVideo("Doomed", "", "doomed.mp4", "video/mp4", 512)
	if err := repo.Insert(ctx, video); err != nil {
		t.Fatalf("Failed to insert video: %v", err)
	}

	if err := repo.Delete(ctx, video.ID); err != nil {
		t.Fatalf("Failed to delete video: %v", err)
	}

	if _, err := repo.GetByID(ctx, video.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	if err := repo.Delete(ctx, video.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on double delete, got %v", err)
	}
}

func TestStoredVideoRepository_Usage(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewStoredVideoRepository(db)
	ctx := context.Background()

	count, total, err := repo.Usage(ctx)
	if err != nil {
		t.Fatalf("Failed to read usage: %v", err)
	}
	if count != 0 || total != 0 {
		t.Errorf("Expected empty usage, got count=%d total=%d", count, total)
	}

	for i, size := range []int64{100, 200, 300} {
		v := models.NewStoredVideo("Video", "", "key.mp4", "video/mp4", size)
		if err := repo.Insert(ctx, v); err != nil {
			t.Fatalf("Failed to insert video %d: %v", i, err)
		}
	}

	count, total, err = repo.Usage(ctx)
	if err != nil {
		t.Fatalf("Failed to read usage: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected count 3, got %d", count)
	}
	if total != 600 {
		t.Errorf("Expected total 600, got %d", total)
	}
}
