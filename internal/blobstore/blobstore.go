// Package blobstore owns uploaded video binaries and their metadata.
// Binaries live in an object storage backend, metadata in the shared
// database; everything else in the system holds only stored://
// references that resolve through this package.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rkuzmin/streamhub/internal/database"
	"github.com/rkuzmin/streamhub/internal/models"
	"github.com/rkuzmin/streamhub/internal/storage"
	"github.com/rkuzmin/streamhub/pkg/logger"
)

var (
	ErrNotFound      = errors.New("video not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrStorage       = errors.New("storage failure")
	ErrInvalidInput  = errors.New("invalid input")
)

// storageErr wraps an engine failure with the operation that hit it.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

type PutRequest struct {
	Title       string
	Description string
	Filename    string
	ContentType string
	Size        int64
	Duration    float64
	Thumbnail   string
}

type Stats struct {
	Count      int64 `json:"count"`
	TotalBytes int64 `json:"totalBytes"`
	QuotaBytes int64 `json:"quotaBytes"`
	UsedBytes  int64 `json:"usedBytes"`
}

// Store is the durable home of uploaded video binaries. All methods
// are safe for concurrent use; the database serializes conflicting
// writes, so no additional locking is needed here.
type Store struct {
	objects storage.Storage
	repo    *database.StoredVideoRepository
	signer  *URLSigner
	quota   int64

	initMu      sync.Mutex
	initialized bool
}

func New(objects storage.Storage, repo *database.StoredVideoRepository, signer *URLSigner, quotaBytes int64) *Store {
	return &Store{
		objects: objects,
		repo:    repo,
		signer:  signer,
		quota:   quotaBytes,
	}
}

// ensure lazily verifies the backing stores are reachable. Every
// operation goes through it, and success only latches once it is
// reached: a store whose backend was down at first use heals itself
// on the next operation after the backend recovers.
func (s *Store) ensure(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.initialized {
		return nil
	}
	if _, _, err := s.repo.Usage(ctx); err != nil {
		return storageErr("init", err)
	}
	s.initialized = true
	return nil
}

// Put writes the payload and its metadata, returning the generated id.
// The quota is checked before any byte is written: a payload larger
// than 90% of the remaining free space is rejected.
func (s *Store) Put(ctx context.Context, r io.Reader, req PutRequest) (string, error) {
	start := time.Now()

	if err := s.ensure(ctx); err != nil {
		return "", err
	}
	if req.Title == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if req.Size <= 0 {
		return "", fmt.Errorf("%w: size must be positive", ErrInvalidInput)
	}

	if err := s.checkQuota(ctx, req.Size); err != nil {
		return "", err
	}

	key, err := s.objects.Save(ctx, r, storage.FileInfo{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Size:        req.Size,
	})
	if err != nil {
		return "", storageErr("put", err)
	}

	video := models.NewStoredVideo(req.Title, req.Description, key, req.ContentType, req.Size)
	video.Duration = req.Duration
	video.Thumbnail = req.Thumbnail

	if err := s.repo.Insert(ctx, video); err != nil {
		// no orphaned binaries
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			logger.Logger.Warn("Failed to remove orphaned object",
				"object_key", key,
				"error", delErr.Error(),
			)
		}
		return "", storageErr("put", err)
	}

	logger.LogStoreOperation(ctx, "put", video.ID, req.Size, time.Since(start), nil)
	return video.ID, nil
}

// Get returns the metadata record for id.
func (s *Store) Get(ctx context.Context, id string) (*models.StoredVideo, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	video, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get", err)
	}
	return video, nil
}

// GetAll returns every stored record, most recent first.
func (s *Store) GetAll(ctx context.Context) ([]models.StoredVideo, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	videos, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageErr("getAll", err)
	}
	return videos, nil
}

// Delete removes the record and its binary payload.
func (s *Store) Delete(ctx context.Context, id string) error {
	start := time.Now()

	if err := s.ensure(ctx); err != nil {
		return err
	}

	video, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return storageErr("delete", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return storageErr("delete", err)
	}

	// Metadata is authoritative; a failed object removal leaves only
	// an unreferenced file, so log it rather than failing the delete.
	if err := s.objects.Delete(ctx, video.ObjectKey); err != nil {
		logger.Logger.Warn("Failed to remove object for deleted video",
			"video_id", id,
			"object_key", video.ObjectKey,
			"error", err.Error(),
		)
	}

	logger.LogStoreOperation(ctx, "delete", id, video.Size, time.Since(start), nil)
	return nil
}

// Open returns a seekable reader over the payload together with its
// metadata, for range-request streaming.
func (s *Store) Open(ctx context.Context, id string) (io.ReadSeekCloser, *models.StoredVideo, error) {
	video, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.objects.Open(ctx, video.ObjectKey)
	if err != nil {
		return nil, nil, storageErr("open", err)
	}
	return rc, video, nil
}

// ResolvePlayback returns a short-lived signed URL for streaming the
// stored binary. The URL expires and must never be persisted; callers
// re-resolve whenever they need to play the video again.
func (s *Store) ResolvePlayback(ctx context.Context, id string) (string, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return "", err
	}
	return s.signer.Sign("/media/" + id), nil
}

// Stats reports record count and byte usage against the quota.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	if err := s.ensure(ctx); err != nil {
		return Stats{}, err
	}

	count, total, err := s.repo.Usage(ctx)
	if err != nil {
		return Stats{}, storageErr("stats", err)
	}

	return Stats{
		Count:      count,
		TotalBytes: total,
		QuotaBytes: s.quota,
		UsedBytes:  total,
	}, nil
}

func (s *Store) checkQuota(ctx context.Context, incoming int64) error {
	if s.quota <= 0 {
		// quota not queryable, accept the write
		return nil
	}

	_, used, err := s.repo.Usage(ctx)
	if err != nil {
		return storageErr("quota", err)
	}

	free := s.quota - used
	if free < 0 {
		free = 0
	}
	if incoming > free*9/10 {
		return fmt.Errorf("%w: %d bytes requested, %d bytes free", ErrQuotaExceeded, incoming, free)
	}
	return nil
}
