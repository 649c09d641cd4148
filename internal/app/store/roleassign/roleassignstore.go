// internal/app/store/roleassign/roleassignstore.go
package roleassignstore

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

// ErrActiveExists is returned by Insert when the user already holds an
// active assignment (enforced by the partial unique index on user_id).
var ErrActiveExists = errors.New("user already has an active role assignment")

// Store manages user_role_assignments. Rows are never deleted; revocation
// flips is_active and stamps deactivated_at/deactivated_by.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("user_role_assignments")}
}

var newestFirst = bson.D{{Key: "assigned_at", Value: -1}, {Key: "_id", Value: -1}}

// Insert writes a new active assignment.
func (s *Store) Insert(ctx context.Context, a models.UserRoleAssignment) (models.UserRoleAssignment, error) {
	a.ID = primitive.NewObjectID()
	if a.AssignedAt.IsZero() {
		a.AssignedAt = time.Now().UTC()
	}
	a.IsActive = true
	a.DeactivatedAt = nil
	a.DeactivatedBy = nil
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.UserRoleAssignment{}, ErrActiveExists
		}
		return models.UserRoleAssignment{}, err
	}
	return a, nil
}

func deactivation(by primitive.ObjectID, at time.Time) bson.M {
	set := bson.M{"is_active": false, "deactivated_at": at}
	if !by.IsZero() {
		set["deactivated_by"] = by
	}
	return bson.M{"$set": set}
}

// DeactivateActiveByUser deactivates every active row for userID and
// returns the role IDs those rows pointed at.
func (s *Store) DeactivateActiveByUser(ctx context.Context, userID, by primitive.ObjectID) ([]primitive.ObjectID, error) {
	active, err := s.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, len(active))
	roles := make([]primitive.ObjectID, len(active))
	for i, a := range active {
		ids[i] = a.ID
		roles[i] = a.RoleID
	}
	_, err = s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "is_active": true},
		deactivation(by, time.Now().UTC()),
	)
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// DeactivateByUserRole deactivates the active rows matching (userID,
// roleID). Returns the number of rows changed.
func (s *Store) DeactivateByUserRole(ctx context.Context, userID, roleID, by primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "role_id": roleID, "is_active": true},
		deactivation(by, time.Now().UTC()),
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ListActiveByUser returns active rows for userID, newest first.
func (s *Store) ListActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]models.UserRoleAssignment, error) {
	return s.find(ctx, bson.M{"user_id": userID, "is_active": true})
}

// ListByUser returns the full history for userID, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.UserRoleAssignment, error) {
	return s.find(ctx, bson.M{"user_id": userID})
}

// CountActiveByRole returns how many users currently hold roleID.
func (s *Store) CountActiveByRole(ctx context.Context, roleID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"role_id": roleID, "is_active": true})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.UserRoleAssignment, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.UserRoleAssignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
