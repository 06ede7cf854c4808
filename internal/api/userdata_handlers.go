package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rkuzmin/streamhub/internal/auth"
	"github.com/rkuzmin/streamhub/internal/models"
)

// requireUserData reports 503 on the wishlist/history routes when no
// redis is configured.
func (app *App) requireUserData(w http.ResponseWriter, r *http.Request) (string, bool) {
	if app.UserData == nil {
		respondError(w, http.StatusServiceUnavailable, "user data storage is not configured")
		return "", false
	}
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing session token")
		return "", false
	}
	return userID, true
}

func (app *App) WishlistHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUserData(w, r)
	if !ok {
		return
	}

	ids, err := app.UserData.Wishlist(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"videos": ids})
}

func (app *App) AddWishlistHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUserData(w, r)
	if !ok {
		return
	}

	var req struct {
		VideoID string `json:"video_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
		respondError(w, http.StatusBadRequest, "video_id is required")
		return
	}

	if err := app.UserData.AddToWishlist(r.Context(), userID, req.VideoID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *App) RemoveWishlistHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUserData(w, r)
	if !ok {
		return
	}

	if err := app.UserData.RemoveFromWishlist(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *App) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUserData(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	entries, err := app.UserData.RecentHistory(r.Context(), userID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (app *App) AppendHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUserData(w, r)
	if !ok {
		return
	}

	var entry models.HistoryEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil || entry.VideoID == "" {
		respondError(w, http.StatusBadRequest, "video_id is required")
		return
	}

	if err := app.UserData.AppendHistory(r.Context(), userID, entry); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
