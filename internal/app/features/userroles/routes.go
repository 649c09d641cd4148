// internal/app/features/userroles/routes.go
package userroles

import (
	"net/http"

	"github.com/dalemusser/shopkeep/internal/app/system/authz"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts assignment endpoints under the path where this router is
// mounted (typically "/api/rbac/users").
//
// Reading needs users:read or reports:read. Granting and revoking need
// both users:read and users:update.
func Routes(h *Handler, enf *authz.Enforcer, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.With(enf.RequireAnyPermission(
		models.Cap(models.ResourceUsers, models.ActionRead),
		models.Cap(models.ResourceReports, models.ActionRead),
	)).Get("/{id}/roles", h.ServeRoles)

	r.Group(func(pr chi.Router) {
		pr.Use(enf.RequireAllPermissions(
			models.Cap(models.ResourceUsers, models.ActionRead),
			models.Cap(models.ResourceUsers, models.ActionUpdate),
		))
		if limit != nil {
			pr.Use(limit)
		}
		pr.Post("/{id}/roles", h.HandleAssign)
		pr.Delete("/{id}/roles/{roleID}", h.HandleRevoke)
	})

	return r
}
