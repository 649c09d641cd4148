// internal/domain/models/role.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is a named bundle of permissions.
//
// NOTE:
//   - Roles are never hard-deleted. Deleting sets IsActive=false so that
//     assignment history keeps pointing at a real document.
//   - An inactive role never contributes to an authorization decision, even
//     while a user's active assignment still references it.
type Role struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name          string               `bson:"name" json:"name"`
	NameCI        string               `bson:"name_ci" json:"-"` // folded, unique
	Description   string               `bson:"description,omitempty" json:"description,omitempty"`
	PermissionIDs []primitive.ObjectID `bson:"permission_ids" json:"permission_ids"`
	IsActive      bool                 `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// RoleView is a Role with its permission references resolved.
// Permission IDs that no longer exist are simply absent from Permissions.
type RoleView struct {
	Role        `bson:",inline"`
	Permissions []Permission `bson:"permissions" json:"permissions"`
}

// Grants reports whether the view holds a permission for (r, a).
// Inactive roles grant nothing.
func (v RoleView) Grants(r Resource, a Action) bool {
	if !v.IsActive {
		return false
	}
	for _, p := range v.Permissions {
		if p.Matches(r, a) {
			return true
		}
	}
	return false
}
