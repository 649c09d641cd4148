package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/shopkeep/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) createIdentity(ctx context.Context, coll, fullName, email string) models.Identity {
	f.t.Helper()

	id := models.Identity{
		ID:        primitive.NewObjectID(),
		Email:     email,
		FullName:  fullName,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection(coll).InsertOne(ctx, id); err != nil {
		f.t.Fatalf("failed to create test %s: %v", coll, err)
	}
	return id
}

// CreateAdmin inserts an identity into the admins store.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.Identity {
	f.t.Helper()
	return f.createIdentity(ctx, "admins", fullName, email)
}

// CreateClient inserts an identity into the clients store.
func (f *Fixtures) CreateClient(ctx context.Context, fullName, email string) models.Identity {
	f.t.Helper()
	return f.createIdentity(ctx, "clients", fullName, email)
}

// CreateUser inserts an identity into the generic users store.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.Identity {
	f.t.Helper()
	return f.createIdentity(ctx, "users", fullName, email)
}

// CreatePermission inserts a permission for (resource, action).
func (f *Fixtures) CreatePermission(ctx context.Context, resource models.Resource, action models.Action) models.Permission {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Permission{
		ID:        primitive.NewObjectID(),
		Name:      string(resource) + ":" + string(action),
		Resource:  resource,
		Action:    action,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("permissions").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test permission: %v", err)
	}
	return p
}

// CreateRole inserts an active role holding the given permissions.
func (f *Fixtures) CreateRole(ctx context.Context, name string, perms ...models.Permission) models.Role {
	f.t.Helper()

	ids := make([]primitive.ObjectID, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}

	now := time.Now().UTC()
	role := models.Role{
		ID:            primitive.NewObjectID(),
		Name:          name,
		NameCI:        text.Fold(name),
		PermissionIDs: ids,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("roles").InsertOne(ctx, role); err != nil {
		f.t.Fatalf("failed to create test role: %v", err)
	}
	return role
}

// CreateAssignment inserts an assignment row directly, bypassing the ledger.
func (f *Fixtures) CreateAssignment(ctx context.Context, userID, roleID primitive.ObjectID, active bool) models.UserRoleAssignment {
	f.t.Helper()

	a := models.UserRoleAssignment{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		RoleID:     roleID,
		AssignedAt: time.Now().UTC(),
		IsActive:   active,
	}
	if _, err := f.db.Collection("user_role_assignments").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test assignment: %v", err)
	}
	return a
}
