// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/shopkeep/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit trail endpoints under the path where this router
// is mounted (typically "/api/rbac/audit"). Access is restricted to admins.
func Routes(h *Handler, enf *authz.Enforcer) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(enf.RequireAdmin)

		pr.Get("/", h.ServeList)
		pr.Get("/denials", h.ServeDenials)
	})

	return r
}
