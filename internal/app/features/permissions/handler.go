// internal/app/features/permissions/handler.go
package permissions

import (
	"github.com/dalemusser/shopkeep/internal/app/system/auditlog"
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"go.uber.org/zap"
)

// Handler serves the permission catalog API.
type Handler struct {
	Catalog *rbac.Catalog
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

// NewHandler constructs a permissions Handler. audit may be nil.
func NewHandler(catalog *rbac.Catalog, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Catalog: catalog,
		Audit:   audit,
		Log:     logger,
	}
}
