// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/shopkeep/internal/app/store/audit"
	"go.uber.org/zap"
)

type Handler struct {
	Store *audit.Store
	Log   *zap.Logger
}

// NewHandler constructs an Audit Log feature handler bound to the audit
// event store and logger.
func NewHandler(store *audit.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Store: store,
		Log:   logger,
	}
}
