// internal/app/features/roles/handler.go
package roles

import (
	"github.com/dalemusser/shopkeep/internal/app/system/auditlog"
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"go.uber.org/zap"
)

// Handler serves the role registry API.
type Handler struct {
	Registry *rbac.Registry
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs a roles Handler. audit may be nil.
func NewHandler(registry *rbac.Registry, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Registry: registry,
		Audit:    audit,
		Log:      logger,
	}
}
