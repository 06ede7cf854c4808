package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/rkuzmin/streamhub/internal/events"
)

// NewRouter wires all routes. rdb is optional; when present it backs
// the rate limiter.
func NewRouter(app *App, rdb *redis.Client) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if rdb != nil {
		r.Use(RateLimitMiddleware(rdb, 100, time.Minute))
	}

	r.Get("/ping", PingHandler)

	// signature-checked, no session required: the signed URL is the
	// credential
	r.Get("/media/{id}", app.StreamVideoHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", app.RegisterHandler)
		r.Post("/auth/login", app.LoginHandler)
		r.Post("/auth/logout", app.LogoutHandler)

		r.Get("/videos", app.ListVideosHandler)
		r.Get("/videos/{id}", app.GetVideoHandler)
		r.Get("/videos/{id}/playback", app.PlaybackHandler)
		r.Get("/search", app.SearchHandler)
		r.Post("/videos/{id}/view", app.AddViewHandler)
		r.Get("/stats", app.StatsHandler)

		r.Get("/events", events.WebSocketHandler(app.Hub))

		// session required
		r.Group(func(r chi.Router) {
			r.Use(app.AuthMiddleware)

			r.Post("/videos", app.UploadHandler)
			r.Delete("/videos/{id}", app.DeleteVideoHandler)
			r.Post("/videos/{id}/like", app.AddLikeHandler)

			r.Get("/wishlist", app.WishlistHandler)
			r.Post("/wishlist", app.AddWishlistHandler)
			r.Delete("/wishlist/{id}", app.RemoveWishlistHandler)

			r.Get("/history", app.HistoryHandler)
			r.Post("/history", app.AppendHistoryHandler)
		})
	})

	return r
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
