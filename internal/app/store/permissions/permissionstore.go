// internal/app/store/permissions/permissionstore.go
package permissionstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/shopkeep/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicatePermission is returned when the name or (resource, action)
// pair is already taken.
var ErrDuplicatePermission = errors.New("a permission with this name or capability already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("permissions")}
}

var catalogOrder = bson.D{{Key: "resource", Value: 1}, {Key: "action", Value: 1}}

func (s *Store) Create(ctx context.Context, p models.Permission) (models.Permission, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Permission{}, ErrDuplicatePermission
		}
		return models.Permission{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Permission, error) {
	var p models.Permission
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Permission{}, err
	}
	return p, nil
}

// FindByCapability returns the permission for (resource, action) or
// mongo.ErrNoDocuments.
func (s *Store) FindByCapability(ctx context.Context, r models.Resource, a models.Action) (models.Permission, error) {
	var p models.Permission
	if err := s.c.FindOne(ctx, bson.M{"resource": r, "action": a}).Decode(&p); err != nil {
		return models.Permission{}, err
	}
	return p, nil
}

// List returns every permission ordered by (resource, action).
func (s *Store) List(ctx context.Context) ([]models.Permission, error) {
	return s.find(ctx, bson.M{})
}

// ListByResource returns the permissions for one resource.
func (s *Store) ListByResource(ctx context.Context, r models.Resource) ([]models.Permission, error) {
	return s.find(ctx, bson.M{"resource": r})
}

// GetByIDs loads the permissions whose IDs are in ids. Missing IDs are
// silently skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Permission, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(catalogOrder))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Permission
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Patch lists the mutable fields of a permission. Nil fields are left as is.
type Patch struct {
	Name        *string
	Resource    *models.Resource
	Action      *models.Action
	Description *string
}

// Update applies patch and returns the updated document, or
// mongo.ErrNoDocuments when id does not exist.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, patch Patch) (models.Permission, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Resource != nil {
		set["resource"] = *patch.Resource
	}
	if patch.Action != nil {
		set["action"] = *patch.Action
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}

	var p models.Permission
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Permission{}, ErrDuplicatePermission
		}
		return models.Permission{}, err
	}
	return p, nil
}

// Delete removes a permission by ID. Returns the number of documents deleted (0 or 1).
// Roles that reference it are not touched.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of catalog entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
