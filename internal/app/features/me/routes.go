// internal/app/features/me/routes.go
package me

import (
	"github.com/dalemusser/shopkeep/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts /, /permissions and /check. Both require an identity on the
// request; they do not require any particular capability.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeIdentity)
	r.Get("/permissions", h.ServePermissions)
	r.Get("/check", h.ServeCheck)
	return r
}
