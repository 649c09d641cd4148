// internal/app/features/me/handler.go
package me

import (
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"go.uber.org/zap"
)

// Handler answers permission questions about the calling identity.
type Handler struct {
	Engine *rbac.Engine
	Log    *zap.Logger
}

func NewHandler(engine *rbac.Engine, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Log: logger}
}
