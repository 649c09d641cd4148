// internal/app/features/permissions/routes.go
package permissions

import (
	"net/http"

	"github.com/dalemusser/shopkeep/internal/app/system/authz"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the catalog under the path where this router is mounted
// (typically "/api/rbac/permissions").
//
// Reads need users:read; writes are admin-only and pass through limit when
// it is non-nil.
func Routes(h *Handler, enf *authz.Enforcer, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(enf.RequirePermission(models.ResourceUsers, models.ActionRead))
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeGet)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(enf.RequireAdmin)
		if limit != nil {
			pr.Use(limit)
		}
		pr.Post("/", h.HandleCreate)
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
