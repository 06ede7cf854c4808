package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rkuzmin/streamhub/internal/auth"
)

const sessionCookie = "session_token"

// AuthMiddleware resolves the session token from the cookie or an
// Authorization bearer header and stores the user id on the context.
func (app *App) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			token = cookie.Value
		}
		if token == "" {
			if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing session token")
			return
		}

		userID, err := app.Auth.ValidateToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		ctx := auth.WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimitMiddleware caps requests per client IP inside a rolling
// window, counted in redis.
func RateLimitMiddleware(rdb *redis.Client, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := r.RemoteAddr
			if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
				ip = strings.Split(fwd, ",")[0]
			}

			key := "rate:" + ip

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				// a broken limiter must not take the API down
				next.ServeHTTP(w, r)
				return
			}

			if count == 1 {
				rdb.Expire(ctx, key, window)
			}

			if count > int64(limit) {
				respondError(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
