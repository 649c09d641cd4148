// internal/app/store/roles/rolestore.go
package rolestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/shopkeep/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateRole = errors.New("a role with this name already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("roles")}
}

// Create inserts an active role. Names are unique after folding.
func (s *Store) Create(ctx context.Context, role models.Role) (models.Role, error) {
	now := time.Now().UTC()
	role.ID = primitive.NewObjectID()
	role.NameCI = text.Fold(role.Name)
	role.IsActive = true
	if role.PermissionIDs == nil {
		role.PermissionIDs = []primitive.ObjectID{}
	}
	role.CreatedAt = now
	role.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, role); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Role{}, ErrDuplicateRole
		}
		return models.Role{}, err
	}
	return role, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Role, error) {
	var role models.Role
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&role); err != nil {
		return models.Role{}, err
	}
	return role, nil
}

// GetByName looks a role up by folded name, active or not.
func (s *Store) GetByName(ctx context.Context, name string) (models.Role, error) {
	var role models.Role
	if err := s.c.FindOne(ctx, bson.M{"name_ci": text.Fold(name)}).Decode(&role); err != nil {
		return models.Role{}, err
	}
	return role, nil
}

// ListAll returns every role, active or not, sorted by name.
func (s *Store) ListAll(ctx context.Context) ([]models.Role, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Role
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

/* -------------------------------------------------------------------------- */
/* Views: roles joined with their permissions                                 */
/* -------------------------------------------------------------------------- */

// viewPipeline matches roles and resolves permission_ids into permissions.
// References to deleted permissions drop out of the join.
func viewPipeline(match bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "permissions",
			"localField":   "permission_ids",
			"foreignField": "_id",
			"as":           "permissions",
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "name_ci", Value: 1}}}},
	}
}

func (s *Store) views(ctx context.Context, match bson.M) ([]models.RoleView, error) {
	cur, err := s.c.Aggregate(ctx, viewPipeline(match))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.RoleView
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetViewByID returns the role with resolved permissions, or
// mongo.ErrNoDocuments.
func (s *Store) GetViewByID(ctx context.Context, id primitive.ObjectID) (models.RoleView, error) {
	vs, err := s.views(ctx, bson.M{"_id": id})
	if err != nil {
		return models.RoleView{}, err
	}
	if len(vs) == 0 {
		return models.RoleView{}, mongo.ErrNoDocuments
	}
	return vs[0], nil
}

// ListActiveViews returns all active roles with resolved permissions.
func (s *Store) ListActiveViews(ctx context.Context) ([]models.RoleView, error) {
	return s.views(ctx, bson.M{"is_active": true})
}

// ListActiveViewsByIDs returns the active roles among ids with resolved
// permissions. Inactive or missing roles are omitted.
func (s *Store) ListActiveViewsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.RoleView, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.views(ctx, bson.M{"_id": bson.M{"$in": ids}, "is_active": true})
}

/* -------------------------------------------------------------------------- */
/* Mutations                                                                  */
/* -------------------------------------------------------------------------- */

// Patch lists the mutable scalar fields of a role. Nil fields are left as is.
type Patch struct {
	Name        *string
	Description *string
	IsActive    *bool
}

func (s *Store) findAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (models.Role, error) {
	var role models.Role
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&role)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Role{}, ErrDuplicateRole
		}
		return models.Role{}, err
	}
	return role, nil
}

// Update applies patch and returns the updated role.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, patch Patch) (models.Role, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
		set["name_ci"] = text.Fold(*patch.Name)
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.IsActive != nil {
		set["is_active"] = *patch.IsActive
	}
	return s.findAndUpdate(ctx, id, bson.M{"$set": set})
}

// AddPermissions unions ids into the role's permission set.
func (s *Store) AddPermissions(ctx context.Context, id primitive.ObjectID, ids []primitive.ObjectID) (models.Role, error) {
	return s.findAndUpdate(ctx, id, bson.M{
		"$addToSet": bson.M{"permission_ids": bson.M{"$each": ids}},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

// RemovePermissions subtracts ids from the role's permission set.
func (s *Store) RemovePermissions(ctx context.Context, id primitive.ObjectID, ids []primitive.ObjectID) (models.Role, error) {
	return s.findAndUpdate(ctx, id, bson.M{
		"$pull": bson.M{"permission_ids": bson.M{"$in": ids}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

// SetPermissions replaces the role's permission set.
func (s *Store) SetPermissions(ctx context.Context, id primitive.ObjectID, ids []primitive.ObjectID) (models.Role, error) {
	if ids == nil {
		ids = []primitive.ObjectID{}
	}
	return s.findAndUpdate(ctx, id, bson.M{
		"$set": bson.M{"permission_ids": ids, "updated_at": time.Now().UTC()},
	})
}

// Deactivate soft-deletes a role.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) (models.Role, error) {
	inactive := false
	return s.Update(ctx, id, Patch{IsActive: &inactive})
}

// CountReferencing returns how many roles list permID.
func (s *Store) CountReferencing(ctx context.Context, permID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"permission_ids": permID})
}
