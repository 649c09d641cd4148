package rbacseed

import (
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RolePlan is the desired state of one standard role.
type RolePlan struct {
	Name          string
	Description   string
	PermissionIDs []primitive.ObjectID
}

// Plan computes the standard roles from a snapshot of the permission
// catalog. It is pure: the same snapshot always yields the same plan.
//
//	Super Admin  every permission
//	Admin        every permission not on the denylist
//	Manager      read and update
//	Viewer       read
func Plan(perms []models.Permission, c *Catalog) []RolePlan {
	pick := func(keep func(models.Permission) bool) []primitive.ObjectID {
		ids := []primitive.ObjectID{}
		for _, p := range perms {
			if keep(p) {
				ids = append(ids, p.ID)
			}
		}
		return ids
	}

	return []RolePlan{
		{
			Name:          c.Roles.SuperAdmin.Name,
			Description:   c.Roles.SuperAdmin.Description,
			PermissionIDs: pick(func(models.Permission) bool { return true }),
		},
		{
			Name:          c.Roles.Admin.Name,
			Description:   c.Roles.Admin.Description,
			PermissionIDs: pick(func(p models.Permission) bool { return !c.AdminDenied(p.Capability()) }),
		},
		{
			Name:        c.Roles.Manager.Name,
			Description: c.Roles.Manager.Description,
			PermissionIDs: pick(func(p models.Permission) bool {
				return p.Action == models.ActionRead || p.Action == models.ActionUpdate
			}),
		},
		{
			Name:          c.Roles.Viewer.Name,
			Description:   c.Roles.Viewer.Description,
			PermissionIDs: pick(func(p models.Permission) bool { return p.Action == models.ActionRead }),
		},
	}
}
