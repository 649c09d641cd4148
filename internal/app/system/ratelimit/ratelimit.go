// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net/http"
	"time"

	"github.com/dalemusser/shopkeep/internal/app/system/auth"
	"github.com/dalemusser/shopkeep/internal/app/system/respond"
	"github.com/go-chi/httprate"
)

// DefaultWindow is the counting window for PerIdentity.
const DefaultWindow = time.Minute

// Key buckets requests by the signed-in identity, falling back to the
// client IP for anonymous requests.
func Key(r *http.Request) (string, error) {
	if u, ok := auth.CurrentUser(r); ok && u.ID != "" {
		return "user:" + u.ID, nil
	}
	ip, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + ip, nil
}

// PerIdentity returns middleware allowing limit requests per window for
// each identity. A limit <= 0 disables limiting.
func PerIdentity(limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(Key),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respond.Errorf(w, http.StatusTooManyRequests, "Too many requests")
		}),
	)
}
