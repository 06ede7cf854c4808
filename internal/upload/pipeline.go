// Package upload turns a raw user-selected file into a validated,
// enriched record in the blob store and the catalog.
package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rkuzmin/streamhub/internal/blobstore"
	"github.com/rkuzmin/streamhub/internal/catalog"
	"github.com/rkuzmin/streamhub/internal/events"
	"github.com/rkuzmin/streamhub/internal/media"
	"github.com/rkuzmin/streamhub/internal/models"
	"github.com/rkuzmin/streamhub/pkg/logger"
)

var (
	ErrInvalidType  = errors.New("unsupported file type")
	ErrTooLarge     = errors.New("file exceeds the upload limit")
	ErrMissingTitle = errors.New("title is required")
)

// State tracks a request through the pipeline:
// Idle -> Validating -> (Rejected | DerivingMetadata) -> Persisting -> Cataloged | Failed
type State string

const (
	StateIdle             State = "idle"
	StateValidating       State = "validating"
	StateRejected         State = "rejected"
	StateDerivingMetadata State = "deriving_metadata"
	StatePersisting       State = "persisting"
	StateCataloged        State = "cataloged"
	StateFailed           State = "failed"
)

type Request struct {
	File        io.Reader
	Filename    string
	ContentType string
	Size        int64
	Title       string
	Description string

	// ThumbnailImage, when set, is used instead of sampling a frame.
	ThumbnailImage []byte

	Tags     []string
	Category string
	Creator  models.Creator
}

type Result struct {
	VideoID string
	State   State
	Entry   *models.CatalogEntry
}

const (
	// frame sampled for the thumbnail when none is supplied
	thumbnailOffsetSeconds = 1.0
	thumbnailSize          = 640

	placeholderWidth  = 320
	placeholderHeight = 180
)

type Pipeline struct {
	store        *blobstore.Store
	catalog      catalog.Service
	prober       media.Prober
	hub          *events.Hub
	maxBytes     int64
	probeTimeout time.Duration
}

// New builds a pipeline. prober may be nil, in which case duration
// stays zero and thumbnails fall back to the placeholder.
func New(store *blobstore.Store, cat catalog.Service, prober media.Prober, hub *events.Hub, maxBytes int64, probeTimeout time.Duration) *Pipeline {
	return &Pipeline{
		store:        store,
		catalog:      cat,
		prober:       prober,
		hub:          hub,
		maxBytes:     maxBytes,
		probeTimeout: probeTimeout,
	}
}

// Process runs the full pipeline. Validation failures are returned
// before any byte reaches the store; a store write that succeeds is
// never rolled back by a later catalog failure.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	result := &Result{State: StateValidating}

	contentType, err := p.validate(req)
	if err != nil {
		result.State = StateRejected
		logger.LogUploadStage(ctx, string(StateValidating), req.Title, err)
		return result, err
	}

	result.State = StateDerivingMetadata

	// Spool to a temp file: the prober needs a path and the store
	// needs a second read.
	tmpPath, size, err := p.spool(req)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			result.State = StateRejected
		} else {
			result.State = StateFailed
		}
		logger.LogUploadStage(ctx, string(StateDerivingMetadata), req.Title, err)
		return result, err
	}
	defer os.Remove(tmpPath)

	duration := p.deriveDuration(ctx, tmpPath)
	thumbnail := p.deriveThumbnail(ctx, tmpPath, req.ThumbnailImage)

	result.State = StatePersisting

	file, err := os.Open(tmpPath)
	if err != nil {
		result.State = StateFailed
		return result, fmt.Errorf("failed to reopen upload: %w", err)
	}
	defer file.Close()

	id, err := p.store.Put(ctx, file, blobstore.PutRequest{
		Title:       req.Title,
		Description: req.Description,
		Filename:    req.Filename,
		ContentType: contentType,
		Size:        size,
		Duration:    duration,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		result.State = StateFailed
		logger.LogUploadStage(ctx, string(StatePersisting), req.Title, err)
		return result, err
	}

	result.VideoID = id

	entry := &models.CatalogEntry{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   thumbnail,
		PlaybackRef: models.StoredRef(id),
		Duration:    duration,
		UploadTime:  time.Now(),
		Tags:        req.Tags,
		Category:    req.Category,
		Qualities:   []string{"source"},
		Creator:     req.Creator,
	}

	// Best effort after commit: the stored binary stays even if the
	// catalog insert fails.
	if err := p.catalog.Insert(ctx, entry); err != nil {
		logger.Logger.Warn("Catalog insert failed after successful store write",
			"video_id", id,
			"error", err.Error(),
		)
	} else {
		result.Entry = entry
	}

	result.State = StateCataloged
	p.hub.Publish(events.Event{Type: events.TypeCatalogChanged, VideoID: id})

	logger.LogUploadStage(ctx, string(StateCataloged), req.Title, nil)
	return result, nil
}

func (p *Pipeline) validate(req Request) (string, error) {
	if req.Title == "" {
		return "", ErrMissingTitle
	}

	contentType := req.ContentType
	if !strings.HasPrefix(contentType, "video/") {
		// octet-stream is accepted only for .mp4 files, which some
		// browsers upload without a proper MIME type
		ext := strings.ToLower(filepath.Ext(req.Filename))
		if contentType != "application/octet-stream" || ext != ".mp4" {
			return "", fmt.Errorf("%w: %s", ErrInvalidType, contentType)
		}
		contentType = "video/mp4"
	}

	if req.Size > p.maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, req.Size, p.maxBytes)
	}

	return contentType, nil
}

// spool copies the upload to a temp file, enforcing the size ceiling
// on the actual byte count, and returns the path and true size.
func (p *Pipeline) spool(req Request) (string, int64, error) {
	tmp, err := os.CreateTemp("", "streamhub-upload-*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmp.Close()

	written, err := io.Copy(tmp, io.LimitReader(req.File, p.maxBytes+1))
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("failed to spool upload: %w", err)
	}
	if written > p.maxBytes {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("%w: limit %d", ErrTooLarge, p.maxBytes)
	}

	return tmp.Name(), written, nil
}

func (p *Pipeline) deriveDuration(ctx context.Context, path string) float64 {
	if p.prober == nil {
		return 0
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	duration, err := p.prober.Duration(probeCtx, path)
	if err != nil {
		// unknown duration degrades to zero rather than failing the upload
		logger.Logger.Warn("Duration probe failed", "error", err.Error())
		return 0
	}
	return duration
}

func (p *Pipeline) deriveThumbnail(ctx context.Context, path string, supplied []byte) string {
	if len(supplied) > 0 {
		return dataURI(supplied)
	}

	if p.prober != nil {
		probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
		defer cancel()

		if frame, err := p.prober.Thumbnail(probeCtx, path, thumbnailOffsetSeconds, thumbnailSize); err == nil {
			return dataURI(frame)
		} else {
			logger.Logger.Warn("Thumbnail probe failed", "error", err.Error())
		}
	}

	placeholder, err := media.PlaceholderThumbnail(placeholderWidth, placeholderHeight)
	if err != nil {
		logger.Logger.Warn("Placeholder render failed", "error", err.Error())
		return ""
	}
	return dataURI(placeholder)
}

// dataURI inlines an image so the thumbnail survives independently of
// object storage.
func dataURI(img []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img)
}
