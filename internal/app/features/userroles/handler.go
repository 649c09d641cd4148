// internal/app/features/userroles/handler.go
package userroles

import (
	"github.com/dalemusser/shopkeep/internal/app/system/auditlog"
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"go.uber.org/zap"
)

// Handler serves grant, revoke and lookup of a user's role.
type Handler struct {
	Ledger *rbac.Ledger
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

// NewHandler constructs a userroles Handler. audit may be nil.
func NewHandler(ledger *rbac.Ledger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Ledger: ledger,
		Audit:  audit,
		Log:    logger,
	}
}
