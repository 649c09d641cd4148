package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/shopkeep/internal/app/features/health"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"github.com/dalemusser/shopkeep/internal/testutil"
	"go.uber.org/zap"
)

type response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	RBAC     *struct {
		Permissions int64 `json:"permissions"`
		Roles       int64 `json:"roles"`
		Seeded      bool  `json:"seeded"`
	} `json:"rbac,omitempty"`
}

func serve(t *testing.T, h *health.Handler) response {
	t.Helper()
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var out response
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return out
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resp := serve(t, health.NewHandler(db, zap.NewNop()))

	if resp.Status != "ok" {
		t.Errorf("status: got %q, want %q", resp.Status, "ok")
	}
	if resp.Database != "connected" {
		t.Errorf("database: got %q, want %q", resp.Database, "connected")
	}
	if resp.RBAC == nil || resp.RBAC.Seeded {
		t.Errorf("empty database should report an unseeded catalog, got %+v", resp.RBAC)
	}
}

func TestServe_ReportsSeededCatalog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fx.CreatePermission(ctx, models.ResourceUsers, models.ActionRead)
	fx.CreateRole(ctx, "Viewer", p)

	resp := serve(t, health.NewHandler(db, zap.NewNop()))
	if resp.RBAC == nil || !resp.RBAC.Seeded || resp.RBAC.Permissions != 1 || resp.RBAC.Roles != 1 {
		t.Errorf("unexpected rbac status: %+v", resp.RBAC)
	}
}

func TestRoutes_AcceptsHead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := health.Routes(health.NewHandler(db, zap.NewNop()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("HEAD /health: got %d, want %d", rec.Code, http.StatusOK)
	}
}
