package logger

import (
	"context"
	"log/slog"
	"os"
	"time"
)

var Logger *slog.Logger

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String("timestamp", a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	Logger = slog.New(handler)

	slog.SetDefault(Logger)
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID stores a request id for later log enrichment.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithContext returns a logger enriched with request context information.
func WithContext(ctx context.Context) *slog.Logger {
	if reqID, ok := ctx.Value(requestIDKey).(string); ok && reqID != "" {
		return Logger.With("request_id", reqID)
	}
	return Logger
}

// LogStoreOperation records the outcome of a blob store operation.
func LogStoreOperation(ctx context.Context, operation, videoID string, sizeBytes int64, duration time.Duration, err error) {
	l := WithContext(ctx).With(
		"service", "blobstore",
		"operation", operation,
		"video_id", videoID,
		"duration_ms", duration.Milliseconds(),
	)

	if sizeBytes > 0 {
		l = l.With("size_bytes", sizeBytes)
	}

	if err != nil {
		l.Error("Blob store operation failed",
			"error", err.Error(),
		)
	} else {
		l.Info("Blob store operation completed")
	}
}

// LogUploadStage records an upload pipeline stage transition.
func LogUploadStage(ctx context.Context, stage, title string, err error) {
	l := WithContext(ctx).With(
		"service", "upload",
		"stage", stage,
		"title", title,
	)

	if err != nil {
		l.Error("Upload stage failed",
			"error", err.Error(),
		)
	} else {
		l.Info("Upload stage completed")
	}
}

// LogCatalogOperation records the outcome of a catalog operation.
func LogCatalogOperation(ctx context.Context, operation, videoID string, duration time.Duration, err error) {
	l := WithContext(ctx).With(
		"service", "catalog",
		"operation", operation,
		"video_id", videoID,
		"duration_ms", duration.Milliseconds(),
	)

	if err != nil {
		l.Error("Catalog operation failed",
			"error", err.Error(),
		)
	} else {
		l.Debug("Catalog operation completed")
	}
}
