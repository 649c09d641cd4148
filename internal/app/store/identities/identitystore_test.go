package identitystore_test

import (
	"testing"

	identitystore "github.com/dalemusser/shopkeep/internal/app/store/identities"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"github.com/dalemusser/shopkeep/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Kind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identitystore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Ada Admin", "ada@shop.test")
	user := fx.CreateUser(ctx, "Uma User", "uma@shop.test")
	client := fx.CreateClient(ctx, "Cal Client", "cal@shop.test")

	tests := []struct {
		name string
		id   primitive.ObjectID
		want models.IdentityKind
	}{
		{"admin", admin.ID, models.IdentityAdmin},
		{"user", user.ID, models.IdentityUser},
		{"client", client.ID, models.IdentityClient},
		{"unknown", primitive.NewObjectID(), models.IdentityNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Kind(ctx, tt.id)
			if err != nil {
				t.Fatalf("Kind failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Kind = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStore_IsAdministrative(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identitystore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Ada Admin", "ada@shop.test")
	user := fx.CreateUser(ctx, "Uma User", "uma@shop.test")
	client := fx.CreateClient(ctx, "Cal Client", "cal@shop.test")

	for id, want := range map[primitive.ObjectID]bool{
		admin.ID:               true,
		user.ID:                true,
		client.ID:              false,
		primitive.NewObjectID(): false,
	} {
		got, err := store.IsAdministrative(ctx, id)
		if err != nil {
			t.Fatalf("IsAdministrative failed: %v", err)
		}
		if got != want {
			t.Errorf("IsAdministrative(%s) = %v, want %v", id.Hex(), got, want)
		}
	}
}

func TestStore_ListAdmins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identitystore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAdmin(ctx, "One", "one@shop.test")
	fx.CreateAdmin(ctx, "Two", "two@shop.test")
	fx.CreateClient(ctx, "Client", "client@shop.test")

	admins, err := store.ListAdmins(ctx)
	if err != nil {
		t.Fatalf("ListAdmins failed: %v", err)
	}
	if len(admins) != 2 {
		t.Errorf("expected 2 admins, got %d", len(admins))
	}
}
