package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StoredVideo is the metadata record the blob store keeps alongside
// each binary payload. The store owns the payload exclusively; other
// components hold only stored:// references.
type StoredVideo struct {
	ID          string
	Title       string
	Description string
	ObjectKey   string
	ContentType string
	Size        int64
	Duration    float64
	Thumbnail   string
	UploadTime  time.Time
}

func NewStoredVideo(title, description, objectKey, contentType string, size int64) *StoredVideo {
	return &StoredVideo{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		ObjectKey:   objectKey,
		ContentType: contentType,
		Size:        size,
		UploadTime:  time.Now(),
	}
}

// PlaybackScheme prefixes catalog playback refs that resolve through
// the blob store rather than pointing at an external URL.
const PlaybackScheme = "stored://"

// StoredRef builds a catalog playback reference for a stored video id.
func StoredRef(id string) string {
	return PlaybackScheme + id
}

// ParseStoredRef extracts the video id from a stored:// reference.
// The second return is false for external URLs.
func ParseStoredRef(ref string) (string, bool) {
	if !strings.HasPrefix(ref, PlaybackScheme) {
		return "", false
	}
	return strings.TrimPrefix(ref, PlaybackScheme), true
}

// Creator identifies the channel a catalog entry belongs to.
type Creator struct {
	Name        string `json:"name"`
	AvatarRef   string `json:"avatar"`
	Subscribers int64  `json:"subscribers"`
}

// CatalogEntry is a video as presented to users. PlaybackRef is either
// a stored:// reference resolved by the blob store or an external URL.
type CatalogEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	PlaybackRef string    `json:"playbackRef"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	Likes       int64     `json:"likes"`
	UploadTime  time.Time `json:"uploadTime"`
	Tags        []string  `json:"tags"`
	Category    string    `json:"category"`
	Qualities   []string  `json:"qualities"`
	Creator     Creator   `json:"creator"`
}

// HasTag reports whether the entry carries the given tag, ignoring
// case. Tag order is irrelevant.
func (e *CatalogEntry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// FormatDuration renders a duration in seconds as m:ss or h:mm:ss.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
