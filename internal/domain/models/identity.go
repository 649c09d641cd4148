// internal/domain/models/identity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IdentityKind names the identity store a user ID was found in.
type IdentityKind string

const (
	IdentityNone   IdentityKind = ""
	IdentityAdmin  IdentityKind = "admin"
	IdentityUser   IdentityKind = "user"
	IdentityClient IdentityKind = "client"
)

// Identity is the subset of an admin/client/user record this service reads.
// The records themselves are owned by the user-management service; only
// existence and email are used here.
type Identity struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	FullName  string             `bson:"full_name,omitempty" json:"full_name,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
