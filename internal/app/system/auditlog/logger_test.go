package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/shopkeep/internal/app/store/audit"
	"github.com/dalemusser/shopkeep/internal/app/system/auditlog"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"github.com/dalemusser/shopkeep/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.RoleAssigned(ctx, req, primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), nil)
	logger.AccessDenied(ctx, nil, primitive.NilObjectID, []string{"users:read"}, "missing")
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{RBAC: "off", Security: "off"})

	logger.RoleRevoked(ctx, nil, primitive.NilObjectID, userID, primitive.NewObjectID())

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_Log_ConfigLogOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{RBAC: "log"})

	logger.RoleRevoked(ctx, nil, primitive.NilObjectID, userID, primitive.NewObjectID())

	events, _ := store.GetByUser(ctx, userID, 10)
	if len(events) != 0 {
		t.Errorf("expected no stored events for 'log', got %d", len(events))
	}
}

func TestLogger_RoleAssigned(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actor := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	roleID := primitive.NewObjectID()
	prev := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{RBAC: "db"})

	req := httptest.NewRequest("POST", "/api/rbac/users/x/roles", nil)
	req.RemoteAddr = "10.0.0.5:12345"
	logger.RoleAssigned(ctx, req, actor, userID, roleID, []primitive.ObjectID{prev})

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.EventType != audit.EventRoleAssigned {
		t.Errorf("EventType: got %q, want %q", e.EventType, audit.EventRoleAssigned)
	}
	if e.ActorID == nil || *e.ActorID != actor {
		t.Errorf("ActorID: got %v, want %s", e.ActorID, actor.Hex())
	}
	if e.RoleID == nil || *e.RoleID != roleID {
		t.Errorf("RoleID: got %v, want %s", e.RoleID, roleID.Hex())
	}
	if e.Details["replaced_role_ids"] != prev.Hex() {
		t.Errorf("replaced_role_ids: got %q", e.Details["replaced_role_ids"])
	}
	if e.IP != "10.0.0.5" {
		t.Errorf("IP: got %q, want %q", e.IP, "10.0.0.5")
	}
}

func TestLogger_SystemActorStoredAsNil(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{RBAC: "db"})
	p := models.Permission{ID: primitive.NewObjectID(), Name: "orders:read", Resource: models.ResourceOrders, Action: models.ActionRead}
	logger.PermissionCreated(ctx, nil, primitive.NilObjectID, p)

	events, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ActorID != nil {
		t.Errorf("expected nil actor for system, got %v", events[0].ActorID)
	}
	if events[0].Details["capability"] != "orders:read" {
		t.Errorf("capability: got %q", events[0].Details["capability"])
	}
}

func TestLogger_AccessDenied_UsesSecuritySetting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{RBAC: "off", Security: "db"})

	req := httptest.NewRequest("DELETE", "/api/rbac/roles/abc", nil)
	logger.AccessDenied(ctx, req, userID, []string{"users:delete"}, "missing permission")
	logger.RoleRevoked(ctx, req, userID, userID, primitive.NewObjectID())

	events, _ := store.GetByUser(ctx, userID, 10)
	if len(events) != 1 {
		t.Fatalf("expected only the security event, got %d", len(events))
	}
	if events[0].Success {
		t.Error("expected denial to be recorded as unsuccessful")
	}
	if events[0].Details["path"] != "DELETE /api/rbac/roles/abc" {
		t.Errorf("path: got %q", events[0].Details["path"])
	}
}

func TestGetClientIP_XForwardedFor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{RBAC: "db"})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.195")
	req.Header.Set("X-Real-IP", "192.168.1.1")
	req.RemoteAddr = "127.0.0.1:12345"

	logger.RoleRevoked(ctx, req, primitive.NilObjectID, userID, primitive.NewObjectID())

	events, _ := store.GetByUser(ctx, userID, 10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].IP != "203.0.113.195" {
		t.Errorf("IP: got %q, want %q", events[0].IP, "203.0.113.195")
	}
}
