package rbac

import (
	"context"
	"errors"
	"strings"

	rolestore "github.com/dalemusser/shopkeep/internal/app/store/roles"
	"github.com/dalemusser/shopkeep/internal/app/system/limits"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RoleStore is the persistence the registry needs.
type RoleStore interface {
	Create(ctx context.Context, role models.Role) (models.Role, error)
	GetViewByID(ctx context.Context, id primitive.ObjectID) (models.RoleView, error)
	ListActiveViews(ctx context.Context) ([]models.RoleView, error)
	Update(ctx context.Context, id primitive.ObjectID, patch rolestore.Patch) (models.Role, error)
	AddPermissions(ctx context.Context, id primitive.ObjectID, ids []primitive.ObjectID) (models.Role, error)
	RemovePermissions(ctx context.Context, id primitive.ObjectID, ids []primitive.ObjectID) (models.Role, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) (models.Role, error)
}

// permissionLookup resolves permission IDs.
type permissionLookup interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Permission, error)
}

// Registry manages roles and their permission sets.
type Registry struct {
	roles RoleStore
	perms permissionLookup
}

func NewRegistry(roles RoleStore, perms permissionLookup) *Registry {
	return &Registry{roles: roles, perms: perms}
}

// NewRole is the input to Registry.Create.
type NewRole struct {
	Name          string
	Description   string
	PermissionIDs []primitive.ObjectID
}

// RolePatch lists the fields Registry.Update may change.
type RolePatch struct {
	Name        *string
	Description *string
}

const roleDuplicateMsg = "A role with this name already exists."

func dedupIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func tooMany(ids []primitive.ObjectID) error {
	if len(ids) > limits.MaxPermissionsPerRequest {
		return Validation("at most %d permission_ids per request", limits.MaxPermissionsPerRequest)
	}
	return nil
}

// requireKnown fails unless every id names an existing permission.
func (g *Registry) requireKnown(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := g.perms.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	have := make(map[primitive.ObjectID]struct{}, len(found))
	for _, p := range found {
		have[p.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id.Hex())
		}
	}
	if len(missing) > 0 {
		return Validation("unknown permission IDs: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (g *Registry) view(ctx context.Context, id primitive.ObjectID) (models.RoleView, error) {
	v, err := g.roles.GetViewByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.RoleView{}, NotFound("Role not found")
	}
	return v, err
}

func roleErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return NotFound("Role not found")
	case errors.Is(err, rolestore.ErrDuplicateRole):
		return Duplicate(roleDuplicateMsg)
	}
	return err
}

// Create adds an active role holding the given permissions.
func (g *Registry) Create(ctx context.Context, in NewRole) (models.RoleView, error) {
	name, err := cleanName("Name", in.Name)
	if err != nil {
		return models.RoleView{}, err
	}
	desc, err := cleanDescription(in.Description)
	if err != nil {
		return models.RoleView{}, err
	}
	ids := dedupIDs(in.PermissionIDs)
	if err := tooMany(ids); err != nil {
		return models.RoleView{}, err
	}
	if err := g.requireKnown(ctx, ids); err != nil {
		return models.RoleView{}, err
	}

	role, err := g.roles.Create(ctx, models.Role{
		Name:          name,
		Description:   desc,
		PermissionIDs: ids,
	})
	if err != nil {
		return models.RoleView{}, roleErr(err)
	}
	return g.view(ctx, role.ID)
}

// List returns active roles with their permissions resolved.
func (g *Registry) List(ctx context.Context) ([]models.RoleView, error) {
	return g.roles.ListActiveViews(ctx)
}

// Get returns a role, active or not, with its permissions resolved.
func (g *Registry) Get(ctx context.Context, id primitive.ObjectID) (models.RoleView, error) {
	return g.view(ctx, id)
}

// Update renames or re-describes a role.
func (g *Registry) Update(ctx context.Context, id primitive.ObjectID, patch RolePatch) (models.RoleView, error) {
	var sp rolestore.Patch
	if patch.Name != nil {
		name, err := cleanName("Name", *patch.Name)
		if err != nil {
			return models.RoleView{}, err
		}
		sp.Name = &name
	}
	if patch.Description != nil {
		desc, err := cleanDescription(*patch.Description)
		if err != nil {
			return models.RoleView{}, err
		}
		sp.Description = &desc
	}
	if sp.Name == nil && sp.Description == nil {
		return models.RoleView{}, Validation("nothing to update")
	}
	if _, err := g.roles.Update(ctx, id, sp); err != nil {
		return models.RoleView{}, roleErr(err)
	}
	return g.view(ctx, id)
}

// AddPermissions unions ids into the role. Adding an ID the role already
// holds is a no-op.
func (g *Registry) AddPermissions(ctx context.Context, id primitive.ObjectID, ids []primitive.ObjectID) (models.RoleView, error) {
	ids = dedupIDs(ids)
	if len(ids) == 0 {
		return models.RoleView{}, Validation("permission_ids must not be empty")
	}
	if err := tooMany(ids); err != nil {
		return models.RoleView{}, err
	}
	if err := g.requireKnown(ctx, ids); err != nil {
		return models.RoleView{}, err
	}
	if _, err := g.roles.AddPermissions(ctx, id, ids); err != nil {
		return models.RoleView{}, roleErr(err)
	}
	return g.view(ctx, id)
}

// RemovePermissions subtracts ids from the role. IDs the role does not hold,
// including IDs of deleted permissions, are ignored.
func (g *Registry) RemovePermissions(ctx context.Context, id primitive.ObjectID, ids []primitive.ObjectID) (models.RoleView, error) {
	ids = dedupIDs(ids)
	if len(ids) == 0 {
		return models.RoleView{}, Validation("permission_ids must not be empty")
	}
	if err := tooMany(ids); err != nil {
		return models.RoleView{}, err
	}
	if _, err := g.roles.RemovePermissions(ctx, id, ids); err != nil {
		return models.RoleView{}, roleErr(err)
	}
	return g.view(ctx, id)
}

// SoftDelete deactivates a role. Assignments that reference it stay in
// place but stop granting anything.
func (g *Registry) SoftDelete(ctx context.Context, id primitive.ObjectID) (models.Role, error) {
	role, err := g.roles.Deactivate(ctx, id)
	if err != nil {
		return models.Role{}, roleErr(err)
	}
	return role, nil
}
