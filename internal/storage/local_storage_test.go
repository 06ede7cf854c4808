package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorage(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewLocalStorage(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	ctx := context.Background()

	t.Run("Save", func(t *testing.T) {
		content := []byte("test video content")

		info := FileInfo{
			Filename:    "test.mp4",
			ContentType: "video/mp4",
			Size:        int64(len(content)),
		}

		key, err := store.Save(ctx, bytes.NewReader(content), info)
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if filepath.Ext(key) != ".mp4" {
			t.Errorf("Expected .mp4 extension, got %s", filepath.Ext(key))
		}

		savedPath := filepath.Join(tmpDir, key)
		if _, err := os.Stat(savedPath); os.IsNotExist(err) {
			t.Errorf("File was not saved to expected location: %s", savedPath)
		}
	})

	t.Run("Open", func(t *testing.T) {
		content := []byte("test video content")
		testKey := "test-file.mp4"
		fullPath := filepath.Join(tmpDir, testKey)

		if err := os.WriteFile(fullPath, content, 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		file, err := store.Open(ctx, testKey)
		if err != nil {
			t.Fatalf("Failed to open file: %v", err)
		}
		defer file.Close()

		buf := make([]byte, len(content))
		n, err := file.Read(buf)
		if err != nil {
			t.Fatalf("Failed to read file: %v", err)
		}

		if n != len(content) || !bytes.Equal(buf, content) {
			t.Errorf("File content mismatch")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		testKey := "delete-test.mp4"
		fullPath := filepath.Join(tmpDir, testKey)

		if err := os.WriteFile(fullPath, []byte("test"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		if err := store.Delete(ctx, testKey); err != nil {
			t.Fatalf("Failed to delete file: %v", err)
		}

		if _, err := os.Stat(fullPath); !os.IsNotExist(err) {
			t.Errorf("File was not deleted")
		}
	})

	t.Run("Exists", func(t *testing.T) {
		testKey := "exists-test.mp4"
		fullPath := filepath.Join(tmpDir, testKey)

		ok, err := store.Exists(ctx, testKey)
		if err != nil {
			t.Fatalf("Exists failed: %v", err)
		}
		if ok {
			t.Errorf("Expected missing file to not exist")
		}

		if err := os.WriteFile(fullPath, []byte("test"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		ok, err = store.Exists(ctx, testKey)
		if err != nil {
			t.Fatalf("Exists failed: %v", err)
		}
		if !ok {
			t.Errorf("Expected file to exist")
		}
	})

	t.Run("PathTraversalPrevention", func(t *testing.T) {
		_, err := store.Open(ctx, "../../../etc/passwd")
		if err == nil {
			t.Errorf("Path traversal was not prevented")
		}

		err = store.Delete(ctx, "../../../etc/passwd")
		if err == nil {
			t.Errorf("Path traversal was not prevented in delete")
		}
	})
}
