package rolestore_test

import (
	"errors"
	"testing"

	rolestore "github.com/dalemusser/shopkeep/internal/app/store/roles"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"github.com/dalemusser/shopkeep/internal/testutil"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupSchemaDB(t)
	store := rolestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Role{Name: "Editor", Description: "Content team"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if !created.IsActive {
		t.Error("expected new role to be active")
	}
	if created.NameCI != text.Fold("Editor") {
		t.Errorf("NameCI = %q, want %q", created.NameCI, text.Fold("Editor"))
	}
	if created.PermissionIDs == nil {
		t.Error("expected empty, non-nil permission set")
	}

	// Folded name collides.
	if _, err := store.Create(ctx, models.Role{Name: "EDITOR"}); !errors.Is(err, rolestore.ErrDuplicateRole) {
		t.Errorf("expected ErrDuplicateRole, got %v", err)
	}
}

func TestStore_GetByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := rolestore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	role := fx.CreateRole(ctx, "Super Admin")

	got, err := store.GetByName(ctx, "super admin")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if got.ID != role.ID {
		t.Errorf("got %s, want %s", got.ID.Hex(), role.ID.Hex())
	}
	if _, err := store.GetByName(ctx, "nobody"); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_Views_ResolvePermissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := rolestore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	read := fx.CreatePermission(ctx, models.ResourceProducts, models.ActionRead)
	upd := fx.CreatePermission(ctx, models.ResourceProducts, models.ActionUpdate)
	active := fx.CreateRole(ctx, "Manager", read, upd)
	inactive := fx.CreateRole(ctx, "Retired", read)
	if _, err := store.Deactivate(ctx, inactive.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	// Orphan a reference: the view must drop it.
	if _, err := db.Collection("permissions").DeleteOne(ctx, map[string]any{"_id": upd.ID}); err != nil {
		t.Fatalf("delete permission failed: %v", err)
	}

	v, err := store.GetViewByID(ctx, active.ID)
	if err != nil {
		t.Fatalf("GetViewByID failed: %v", err)
	}
	if len(v.Permissions) != 1 || v.Permissions[0].ID != read.ID {
		t.Errorf("expected only products:read resolved, got %+v", v.Permissions)
	}
	if len(v.PermissionIDs) != 2 {
		t.Errorf("expected raw permission_ids untouched, got %d", len(v.PermissionIDs))
	}

	list, err := store.ListActiveViews(ctx)
	if err != nil {
		t.Fatalf("ListActiveViews failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != active.ID {
		t.Errorf("expected only the active role, got %d roles", len(list))
	}

	byIDs, err := store.ListActiveViewsByIDs(ctx, []primitive.ObjectID{active.ID, inactive.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("ListActiveViewsByIDs failed: %v", err)
	}
	if len(byIDs) != 1 {
		t.Errorf("expected 1 active role, got %d", len(byIDs))
	}

	if _, err := store.GetViewByID(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_AddRemovePermissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := rolestore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreatePermission(ctx, models.ResourceOrders, models.ActionRead)
	b := fx.CreatePermission(ctx, models.ResourceOrders, models.ActionUpdate)
	role := fx.CreateRole(ctx, "Support", a)

	// Union is idempotent.
	got, err := store.AddPermissions(ctx, role.ID, []primitive.ObjectID{a.ID, b.ID, b.ID})
	if err != nil {
		t.Fatalf("AddPermissions failed: %v", err)
	}
	if len(got.PermissionIDs) != 2 {
		t.Errorf("expected 2 permissions after add, got %d", len(got.PermissionIDs))
	}

	got, err = store.RemovePermissions(ctx, role.ID, []primitive.ObjectID{a.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("RemovePermissions failed: %v", err)
	}
	if len(got.PermissionIDs) != 1 || got.PermissionIDs[0] != b.ID {
		t.Errorf("expected only orders:update left, got %v", got.PermissionIDs)
	}

	got, err = store.SetPermissions(ctx, role.ID, nil)
	if err != nil {
		t.Fatalf("SetPermissions failed: %v", err)
	}
	if len(got.PermissionIDs) != 0 {
		t.Errorf("expected empty set, got %v", got.PermissionIDs)
	}

	if _, err := store.AddPermissions(ctx, primitive.NewObjectID(), []primitive.ObjectID{a.ID}); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_Update_RenameDuplicate(t *testing.T) {
	db := testutil.SetupSchemaDB(t)
	store := rolestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	viewer, err := store.Create(ctx, models.Role{Name: "Viewer"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Role{Name: "Manager"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	name := "manager"
	if _, err := store.Update(ctx, viewer.ID, rolestore.Patch{Name: &name}); !errors.Is(err, rolestore.ErrDuplicateRole) {
		t.Errorf("expected ErrDuplicateRole, got %v", err)
	}

	desc := "Read-only"
	got, err := store.Update(ctx, viewer.ID, rolestore.Patch{Description: &desc})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Description != desc || got.Name != "Viewer" {
		t.Errorf("unexpected role after update: %+v", got)
	}
}

func TestStore_CountReferencing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := rolestore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fx.CreatePermission(ctx, models.ResourceUsers, models.ActionDelete)
	fx.CreateRole(ctx, "A", p)
	fx.CreateRole(ctx, "B", p)
	fx.CreateRole(ctx, "C")

	n, err := store.CountReferencing(ctx, p.ID)
	if err != nil {
		t.Fatalf("CountReferencing failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 roles, got %d", n)
	}
}
