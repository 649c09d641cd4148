package health

import (
	"context"
	"encoding/json"
	"net/http"

	metricsstore "github.com/dalemusser/shopkeep/internal/app/store/metrics"
	"github.com/dalemusser/shopkeep/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo database and logger.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:  db,
		Log: logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string      `json:"status"`
	Database string      `json:"database"`
	Message  string      `json:"message,omitempty"`
	Error    string      `json:"error,omitempty"`
	RBAC     *rbacStatus `json:"rbac,omitempty"`
}

// rbacStatus reports whether the access-control catalog has been seeded.
type rbacStatus struct {
	Permissions       int64 `json:"permissions"`
	Roles             int64 `json:"roles"`
	ActiveAssignments int64 `json:"active_assignments"`
	Seeded            bool  `json:"seeded"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "rbac":{"permissions":41,"roles":4,"active_assignments":3,"seeded":true} }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
//
// An empty catalog does not fail the check; rbac.seeded is false.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.DB.Client().Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	// Informational only.
	counts, err := metricsstore.FetchRBACCounts(ctx, h.DB)
	if err != nil {
		h.Log.Warn("health-check: rbac counts incomplete", zap.Error(err))
	} else {
		resp.RBAC = &rbacStatus{
			Permissions:       counts.Permissions,
			Roles:             counts.ActiveRoles,
			ActiveAssignments: counts.ActiveAssignments,
			Seeded:            counts.Seeded(),
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
