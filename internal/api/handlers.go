package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rkuzmin/streamhub/internal/catalog"
	"github.com/rkuzmin/streamhub/internal/events"
	"github.com/rkuzmin/streamhub/internal/models"
	"github.com/rkuzmin/streamhub/internal/upload"
)

func (app *App) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize+(1<<20))

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		respondError(w, http.StatusBadRequest, "video file is required")
		return
	}
	defer file.Close()

	req := upload.Request{
		File:        file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
	}

	if tags := r.FormValue("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				req.Tags = append(req.Tags, tag)
			}
		}
	}

	if thumbFile, _, err := r.FormFile("thumbnail"); err == nil {
		defer thumbFile.Close()
		if data, err := io.ReadAll(thumbFile); err == nil {
			req.ThumbnailImage = data
		}
	}

	result, err := app.Pipeline.Process(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":    result.VideoID,
		"state": result.State,
		"entry": result.Entry,
	})
}

func (app *App) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := app.Catalog.List(r.Context(), listOptionsFromQuery(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"videos": entries})
}

func (app *App) GetVideoHandler(w http.ResponseWriter, r *http.Request) {
	entry, err := app.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (app *App) DeleteVideoHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	entry, err := app.Catalog.Get(ctx, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := app.Catalog.Delete(ctx, id); err != nil {
		respondServiceError(w, err)
		return
	}

	// drop the binary only for videos this store owns
	if storedID, ok := models.ParseStoredRef(entry.PlaybackRef); ok {
		if err := app.Store.Delete(ctx, storedID); err != nil {
			respondServiceError(w, err)
			return
		}
	}

	app.Hub.Publish(events.Event{Type: events.TypeVideoDeleted, VideoID: id})
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (app *App) SearchHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := app.Catalog.Search(r.Context(), r.URL.Query().Get("q"), listOptionsFromQuery(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"videos": entries})
}

func (app *App) AddViewHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.Catalog.AddView(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *App) AddLikeHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.Catalog.AddLike(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PlaybackHandler resolves a stored:// reference to a short-lived
// signed streaming URL. Clients re-resolve instead of persisting it.
func (app *App) PlaybackHandler(w http.ResponseWriter, r *http.Request) {
	url, err := app.Store.ResolvePlayback(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// StreamVideoHandler serves the binary behind a signed URL. Range
// requests are handled by http.ServeContent.
func (app *App) StreamVideoHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	query := r.URL.Query()
	if err := app.Signer.Verify("/media/"+id, query.Get("exp"), query.Get("sig")); err != nil {
		respondError(w, http.StatusForbidden, "invalid or expired playback url")
		return
	}

	file, video, err := app.Store.Open(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", video.ContentType)
	http.ServeContent(w, r, video.ObjectKey, video.UploadTime, file)
}

func (app *App) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := app.Store.Stats(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func listOptionsFromQuery(r *http.Request) catalog.ListOptions {
	query := r.URL.Query()
	opts := catalog.ListOptions{
		Category: query.Get("category"),
		Tag:      query.Get("tag"),
		Creator:  query.Get("creator"),
	}
	switch query.Get("sort") {
	case "views":
		opts.Sort = catalog.SortViews
	case "likes":
		opts.Sort = catalog.SortLikes
	default:
		opts.Sort = catalog.SortRecent
	}
	return opts
}
