package permissions_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/shopkeep/internal/app/features/permissions"
	"github.com/dalemusser/shopkeep/internal/app/system/authz"
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"github.com/dalemusser/shopkeep/internal/app/system/respond"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"github.com/dalemusser/shopkeep/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*permissions.Handler, *rbac.Service, *mongo.Database) {
	t.Helper()
	db := testutil.SetupSchemaDB(t)
	svc := rbac.NewService(db, zap.NewNop(), nil)
	return permissions.NewHandler(svc.Catalog, nil, zap.NewNop()), svc, db
}

type listBody struct {
	Permissions []models.Permission `json:"permissions"`
	Count       int                 `json:"count"`
}

func TestServeList(t *testing.T) {
	h, _, db := newHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreatePermission(ctx, models.ResourceProducts, models.ActionRead)
	fx.CreatePermission(ctx, models.ResourceOrders, models.ActionRead)

	rec := httptest.NewRecorder()
	h.ServeList(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body listBody
	testutil.DecodeJSON(t, rec, &body)
	if body.Count != 2 || body.Permissions[0].Resource != models.ResourceOrders {
		t.Errorf("unexpected list: %+v", body)
	}

	rec = httptest.NewRecorder()
	h.ServeList(rec, httptest.NewRequest("GET", "/?resource=products", nil))
	testutil.DecodeJSON(t, rec, &body)
	if body.Count != 1 {
		t.Errorf("filtered count = %d, want 1", body.Count)
	}

	rec = httptest.NewRecorder()
	h.ServeList(rec, httptest.NewRequest("GET", "/?resource=widgets", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown resource status = %d, want 400", rec.Code)
	}
}

func TestHandleCreate(t *testing.T) {
	h, _, _ := newHandler(t)

	req := testutil.NewJSONRequest(t, "POST", "/", map[string]string{
		"name": "Manage Courier", "resource": "courier", "action": "manage",
	})
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var p models.Permission
	testutil.DecodeJSON(t, rec, &p)
	if p.ID.IsZero() || p.Action != models.ActionManage {
		t.Errorf("unexpected permission: %+v", p)
	}

	// Same capability again.
	req = testutil.NewJSONRequest(t, "POST", "/", map[string]string{
		"name": "Courier Admin", "resource": "courier", "action": "manage",
	})
	rec = httptest.NewRecorder()
	h.HandleCreate(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}
}

func TestHandleCreate_Invalid(t *testing.T) {
	h, _, _ := newHandler(t)

	tests := []struct {
		name string
		body any
	}{
		{"unknown resource", map[string]string{"name": "X", "resource": "widgets", "action": "read"}},
		{"missing name", map[string]string{"resource": "users", "action": "read"}},
		{"unknown field", map[string]string{"name": "X", "resource": "users", "action": "read", "scope": "org"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleCreate(rec, testutil.NewJSONRequest(t, "POST", "/", tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, testutil.NewJSONRequest(t, "POST", "/", map[string]string{"resource": "users", "action": "read"}))
	var prob respond.Problem
	testutil.DecodeJSON(t, rec, &prob)
	if len(prob.Fields) != 1 || prob.Fields[0].Field != "name" {
		t.Errorf("expected a name field error, got %+v", prob.Fields)
	}
}

func TestHandleUpdateAndDelete(t *testing.T) {
	h, _, db := newHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fx.CreatePermission(ctx, models.ResourceCoupons, models.ActionRead)
	fx.CreateRole(ctx, "Marketing", p)

	req := testutil.NewJSONRequest(t, "PATCH", "/", map[string]string{"description": "See coupons"})
	req = testutil.WithChiURLParam(req, "id", p.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = testutil.WithChiURLParam(testutil.NewRequest("DELETE", "/"), "id", p.ID.Hex())
	rec = httptest.NewRecorder()
	h.HandleDelete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	var body struct {
		Deleted      bool  `json:"deleted"`
		ReferencedBy int64 `json:"referenced_by"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if !body.Deleted || body.ReferencedBy != 1 {
		t.Errorf("unexpected delete body: %+v", body)
	}

	req = testutil.WithChiURLParam(testutil.NewRequest("GET", "/"), "id", p.ID.Hex())
	rec = httptest.NewRecorder()
	h.ServeGet(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}

	req = testutil.WithChiURLParam(testutil.NewRequest("GET", "/"), "id", "bogus")
	rec = httptest.NewRecorder()
	h.ServeGet(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed id = %d, want 400", rec.Code)
	}
}

func TestRoutes_Guards(t *testing.T) {
	h, svc, db := newHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	router := permissions.Routes(h, authz.New(svc.Engine, nil, zap.NewNop()), nil)

	// No identity.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous = %d, want 401", rec.Code)
	}

	// A client with users:read may list but not create.
	read := fx.CreatePermission(ctx, models.ResourceUsers, models.ActionRead)
	role := fx.CreateRole(ctx, "Support", read)
	client := fx.CreateClient(ctx, "Cli", "cli@example.com")
	fx.CreateAssignment(ctx, client.ID, role.ID, true)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(httptest.NewRequest("GET", "/", nil), testutil.UserFor(client.ID)))
	if rec.Code != http.StatusOK {
		t.Errorf("client list = %d, want 200", rec.Code)
	}

	req := testutil.NewJSONRequest(t, "POST", "/", map[string]string{"name": "X", "resource": "users", "action": "create"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, testutil.UserFor(client.ID)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("client create = %d, want 403", rec.Code)
	}

	// An admin identity may create.
	admin := fx.CreateAdmin(ctx, "Ada", "ada@example.com")
	req = testutil.NewJSONRequest(t, "POST", "/", map[string]string{"name": "Create Users", "resource": "users", "action": "create"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, testutil.UserFor(admin.ID)))
	if rec.Code != http.StatusCreated {
		t.Errorf("admin create = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}
