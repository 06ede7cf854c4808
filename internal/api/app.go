package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rkuzmin/streamhub/internal/auth"
	"github.com/rkuzmin/streamhub/internal/blobstore"
	"github.com/rkuzmin/streamhub/internal/catalog"
	"github.com/rkuzmin/streamhub/internal/events"
	"github.com/rkuzmin/streamhub/internal/upload"
	"github.com/rkuzmin/streamhub/internal/userdata"
)

// App bundles the services the handlers need. UserData is nil when no
// redis is configured; the wishlist/history endpoints report that.
type App struct {
	Store    *blobstore.Store
	Signer   *blobstore.URLSigner
	Catalog  catalog.Service
	Auth     *auth.Service
	Pipeline *upload.Pipeline
	UserData *userdata.Service
	Hub      *events.Hub

	MaxUploadSize int64
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service-layer errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, blobstore.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, blobstore.ErrQuotaExceeded):
		respondError(w, http.StatusInsufficientStorage, "storage quota exceeded")
	case errors.Is(err, upload.ErrTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, upload.ErrInvalidType),
		errors.Is(err, upload.ErrMissingTitle),
		errors.Is(err, blobstore.ErrInvalidInput),
		errors.Is(err, auth.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, auth.ErrUserExists):
		respondError(w, http.StatusConflict, "user already exists")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
