// internal/domain/models/userroleassignment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRoleAssignment binds one identity to one role at a point in time.
//
// Rows are append-only: a grant inserts a new active row and deactivates the
// previous one; a revoke deactivates. At most one row per user has
// IsActive=true (enforced by a partial unique index on user_id).
//
// UserID is a weak reference into an identity store owned elsewhere
// (admins, clients or users collections).
type UserRoleAssignment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	RoleID     primitive.ObjectID `bson:"role_id" json:"role_id"`
	AssignedBy primitive.ObjectID `bson:"assigned_by" json:"assigned_by"` // NilObjectID = system
	AssignedAt time.Time          `bson:"assigned_at" json:"assigned_at"`
	IsActive   bool               `bson:"is_active" json:"is_active"`

	DeactivatedAt *time.Time          `bson:"deactivated_at,omitempty" json:"deactivated_at,omitempty"`
	DeactivatedBy *primitive.ObjectID `bson:"deactivated_by,omitempty" json:"deactivated_by,omitempty"`
}
