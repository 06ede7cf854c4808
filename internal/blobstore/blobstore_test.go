package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rkuzmin/streamhub/internal/database"
	"github.com/rkuzmin/streamhub/internal/storage"
)

func setupStore(t *testing.T, quota int64) (*Store, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	objects, err := storage.NewLocalStorage(filepath.Join(tmpDir, "objects"))
	if err != nil {
		t.Fatalf("Failed to create local storage: %v", err)
	}

	db, err := database.NewDB(database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(tmpDir, "test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}

	repo := database.NewStoredVideoRepository(db)
	signer := NewURLSigner("test-secret", time.Hour)
	store := New(objects, repo, signer, quota)

	return store, func() { db.Close() }
}

func putVideo(t *testing.T, store *Store, title string, content []byte) string {
	t.Helper()

	id, err := store.Put(context.Background(), bytes.NewReader(content), PutRequest{
		Title:       title,
		Filename:    "test.mp4",
		ContentType: "video/mp4",
		Size:        int64(len(content)),
		Duration:    10,
		Thumbnail:   "thumb.jpg",
	})
	if err != nil {
		t.Fatalf("Failed to put video: %v", err)
	}
	return id
}

func TestStore_PutGet(t *testing.T) {
	store, cleanup := setupStore(t, 0)
	defer cleanup()
	ctx := context.Background()

	content := []byte("test video content")
	id := putVideo(t, store, "Test", content)

	video, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get video: %v", err)
	}

	if video.Size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d", len(content), video.Size)
	}
	if video.Title != "Test" {
		t.Errorf("Expected title Test, got %s", video.Title)
	}

	// the payload byte length must equal the recorded size
	rc, meta, err := store.Open(ctx, id)
	if err != nil {
		t.Fatalf("Failed to open video: %v", err)
	}
	defer rc.Close()

	payload, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("Failed to read payload: %v", err)
	}
	if int64(len(payload)) != meta.Size {
		t.Errorf("Payload length %d does not match recorded size %d", len(payload), meta.Size)
	}
}

func TestStore_Get_NotFound(t *testing.T) {
	store, cleanup := setupStore(t, 0)
	defer cleanup()

	_, err := store.Get(context.Background(), "missing-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_Put_InvalidInput(t *testing.T) {
	store, cleanup := setupStore(t, 0)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Put(ctx, bytes.NewReader([]byte("x")), PutRequest{
		Title: "",
		Size:  1,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing title, got %v", err)
	}

	_, err = store.Put(ctx, bytes.NewReader(nil), PutRequest{
		Title: "Zero",
		Size:  0,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero size, got %v", err)
	}
}

func TestStore_QuotaExceeded(t *testing.T) {
	store, cleanup := setupStore(t, 1000)
	defer cleanup()
	ctx := context.Background()

	// 901 > 90% of the 1000-byte quota
	content := bytes.Repeat([]byte("a"), 901)
	_, err := store.Put(ctx, bytes.NewReader(content), PutRequest{
		Title:       "Too Big",
		Filename:    "big.mp4",
		ContentType: "video/mp4",
		Size:        int64(len(content)),
	})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Expected ErrQuotaExceeded, got %v", err)
	}

	// the rejected write must not have touched the store
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if stats.Count != 0 {
		t.Errorf("Expected empty store after rejected put, got count %d", stats.Count)
	}

	// a payload within the window is accepted
	small := bytes.Repeat([]byte("a"), 800)
	if _, err := store.Put(ctx, bytes.NewReader(small), PutRequest{
		Title:       "Fits",
		Filename:    "ok.mp4",
		ContentType: "video/mp4",
		Size:        int64(len(small)),
	}); err != nil {
		t.Fatalf("Expected put within quota to succeed: %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	store, cleanup := setupStore(t, 0)
	defer cleanup()
	ctx := context.Background()

	id := putVideo(t, store, "Doomed", []byte("content"))

	before, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	after, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if after.Count != before.Count-1 {
		t.Errorf("Expected count to drop by one, before=%d after=%d", before.Count, after.Count)
	}

	if err := store.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on double delete, got %v", err)
	}
}

func TestStore_RecoversAfterBackendOutage(t *testing.T) {
	tmpDir := t.TempDir()
	objects, err := storage.NewLocalStorage(filepath.Join(tmpDir, "objects"))
	if err != nil {
		t.Fatalf("Failed to create local storage: %v", err)
	}

	db, err := database.NewDB(database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(tmpDir, "test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	store := New(objects, database.NewStoredVideoRepository(db), NewURLSigner("test-secret", time.Hour), 0)
	ctx := context.Background()

	// take the backend away before the store's first operation
	if _, err := db.Conn().Exec(`ALTER TABLE stored_videos RENAME TO stored_videos_hidden`); err != nil {
		t.Fatalf("Failed to hide table: %v", err)
	}
	if _, err := store.Stats(ctx); !errors.Is(err, ErrStorage) {
		t.Fatalf("Expected ErrStorage while backend is down, got %v", err)
	}

	// once the backend is back, the next operation must succeed
	if _, err := db.Conn().Exec(`ALTER TABLE stored_videos_hidden RENAME TO stored_videos`); err != nil {
		t.Fatalf("Failed to restore table: %v", err)
	}
	if _, err := store.Stats(ctx); err != nil {
		t.Fatalf("Expected store to recover after backend came back, got %v", err)
	}

	putVideo(t, store, "After Recovery", []byte("content"))
}

func TestStore_StatsMatchesGetAll(t *testing.T) {
	store, cleanup := setupStore(t, 0)
	defer cleanup()
	ctx := context.Background()

	for _, title := range []string{"One", "Two", "Three"} {
		putVideo(t, store, title, []byte("payload for "+title))
	}

	videos, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("Failed to get all: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}

	if stats.Count != int64(len(videos)) {
		t.Errorf("Stats count %d does not match GetAll cardinality %d", stats.Count, len(videos))
	}

	var total int64
	for _, v := range videos {
		total += v.Size
	}
	if stats.TotalBytes != total {
		t.Errorf("Stats total %d does not match summed sizes %d", stats.TotalBytes, total)
	}
}

func TestStore_ResolvePlayback(t *testing.T) {
	store, cleanup := setupStore(t, 0)
	defer cleanup()
	ctx := context.Background()

	id := putVideo(t, store, "Playable", []byte("content"))

	url, err := store.ResolvePlayback(ctx, id)
	if err != nil {
		t.Fatalf("Failed to resolve playback: %v", err)
	}
	if !strings.HasPrefix(url, "/media/"+id+"?") {
		t.Errorf("Unexpected playback url: %s", url)
	}
	if !strings.Contains(url, "exp=") || !strings.Contains(url, "sig=") {
		t.Errorf("Playback url missing signature parameters: %s", url)
	}

	// a nonexistent id resolves to absent, never panics
	if _, err := store.ResolvePlayback(ctx, "missing-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing id, got %v", err)
	}
}
