// internal/domain/models/permission.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Permission is a single capability: Action on Resource.
// The (resource, action) pair is unique; Name is a unique display label.
type Permission struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Resource    Resource           `bson:"resource" json:"resource"`
	Action      Action             `bson:"action" json:"action"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Capability returns the (resource, action) pair of p.
func (p Permission) Capability() Capability {
	return Capability{Resource: p.Resource, Action: p.Action}
}

// Matches reports an exact, literal match on both resource and action.
func (p Permission) Matches(r Resource, a Action) bool {
	return p.Resource == r && p.Action == a
}
