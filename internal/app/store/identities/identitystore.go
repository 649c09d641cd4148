// internal/app/store/identities/identitystore.go
package identitystore

import (
	"context"

	"github.com/dalemusser/shopkeep/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads the identity collections owned by the user-management
// service. It never writes to them.
type Store struct {
	admins  *mongo.Collection
	users   *mongo.Collection
	clients *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		admins:  db.Collection("admins"),
		users:   db.Collection("users"),
		clients: db.Collection("clients"),
	}
}

func exists(ctx context.Context, c *mongo.Collection, id primitive.ObjectID) (bool, error) {
	err := c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Kind returns which store holds id, checking admins, then users, then
// clients. IdentityNone means no store knows it.
func (s *Store) Kind(ctx context.Context, id primitive.ObjectID) (models.IdentityKind, error) {
	lookups := []struct {
		c    *mongo.Collection
		kind models.IdentityKind
	}{
		{s.admins, models.IdentityAdmin},
		{s.users, models.IdentityUser},
		{s.clients, models.IdentityClient},
	}
	for _, l := range lookups {
		ok, err := exists(ctx, l.c, id)
		if err != nil {
			return models.IdentityNone, err
		}
		if ok {
			return l.kind, nil
		}
	}
	return models.IdentityNone, nil
}

// IsAdministrative reports whether id is in the admin store or the
// generic user-management store. Clients are never administrative.
func (s *Store) IsAdministrative(ctx context.Context, id primitive.ObjectID) (bool, error) {
	if ok, err := exists(ctx, s.admins, id); err != nil || ok {
		return ok, err
	}
	return exists(ctx, s.users, id)
}

// ListAdmins returns every identity in the admin store, oldest first.
func (s *Store) ListAdmins(ctx context.Context) ([]models.Identity, error) {
	cur, err := s.admins.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Identity
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
