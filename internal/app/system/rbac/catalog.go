package rbac

import (
	"context"
	"errors"
	"strings"

	permissionstore "github.com/dalemusser/shopkeep/internal/app/store/permissions"
	"github.com/dalemusser/shopkeep/internal/app/system/htmlsanitize"
	"github.com/dalemusser/shopkeep/internal/app/system/limits"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	maxNameLen        = limits.MaxNameLength
	maxDescriptionLen = limits.MaxDescriptionLength
)

// PermissionStore is the persistence the catalog needs.
type PermissionStore interface {
	Create(ctx context.Context, p models.Permission) (models.Permission, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Permission, error)
	List(ctx context.Context) ([]models.Permission, error)
	ListByResource(ctx context.Context, r models.Resource) ([]models.Permission, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Permission, error)
	Update(ctx context.Context, id primitive.ObjectID, patch permissionstore.Patch) (models.Permission, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// roleReferences counts roles pointing at a permission.
type roleReferences interface {
	CountReferencing(ctx context.Context, permID primitive.ObjectID) (int64, error)
}

// Catalog manages the set of known permissions.
type Catalog struct {
	perms PermissionStore
	roles roleReferences
}

func NewCatalog(perms PermissionStore, roles roleReferences) *Catalog {
	return &Catalog{perms: perms, roles: roles}
}

// NewPermission is the input to Catalog.Create.
type NewPermission struct {
	Name        string
	Resource    models.Resource
	Action      models.Action
	Description string
}

// PermissionPatch lists the fields Catalog.Update may change.
type PermissionPatch struct {
	Name        *string
	Resource    *models.Resource
	Action      *models.Action
	Description *string
}

// DeletedPermission reports a removed permission and how many roles still
// reference its ID.
type DeletedPermission struct {
	Permission   models.Permission
	ReferencedBy int64
}

func cleanName(field, s string) (string, error) {
	s = strings.TrimSpace(htmlsanitize.PlainText(s))
	if s == "" {
		return "", Validation("%s is required.", field)
	}
	if len([]rune(s)) > maxNameLen {
		return "", Validation("%s must be at most %d characters.", field, maxNameLen)
	}
	return s, nil
}

func cleanDescription(s string) (string, error) {
	s = strings.TrimSpace(htmlsanitize.PlainText(s))
	if len([]rune(s)) > maxDescriptionLen {
		return "", Validation("Description must be at most %d characters.", maxDescriptionLen)
	}
	return s, nil
}

func checkCapability(r models.Resource, a models.Action) error {
	if !r.Valid() {
		return Validation("unknown resource %q", r)
	}
	if !a.Valid() {
		return Validation("unknown action %q", a)
	}
	return nil
}

// Create adds a permission. The (resource, action) pair and the name must
// both be unused.
func (c *Catalog) Create(ctx context.Context, in NewPermission) (models.Permission, error) {
	name, err := cleanName("Name", in.Name)
	if err != nil {
		return models.Permission{}, err
	}
	desc, err := cleanDescription(in.Description)
	if err != nil {
		return models.Permission{}, err
	}
	if err := checkCapability(in.Resource, in.Action); err != nil {
		return models.Permission{}, err
	}

	p, err := c.perms.Create(ctx, models.Permission{
		Name:        name,
		Resource:    in.Resource,
		Action:      in.Action,
		Description: desc,
	})
	if errors.Is(err, permissionstore.ErrDuplicatePermission) {
		return models.Permission{}, Duplicate("A permission with this name or resource and action already exists.")
	}
	return p, err
}

// List returns every permission ordered by resource, then action.
func (c *Catalog) List(ctx context.Context) ([]models.Permission, error) {
	return c.perms.List(ctx)
}

// ListByResource returns the permissions on one resource ordered by action.
func (c *Catalog) ListByResource(ctx context.Context, r models.Resource) ([]models.Permission, error) {
	if !r.Valid() {
		return nil, Validation("unknown resource %q", r)
	}
	return c.perms.ListByResource(ctx, r)
}

// Get returns one permission.
func (c *Catalog) Get(ctx context.Context, id primitive.ObjectID) (models.Permission, error) {
	p, err := c.perms.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Permission{}, NotFound("Permission not found")
	}
	return p, err
}

// Update changes the given fields of a permission.
func (c *Catalog) Update(ctx context.Context, id primitive.ObjectID, patch PermissionPatch) (models.Permission, error) {
	var sp permissionstore.Patch
	if patch.Name != nil {
		name, err := cleanName("Name", *patch.Name)
		if err != nil {
			return models.Permission{}, err
		}
		sp.Name = &name
	}
	if patch.Description != nil {
		desc, err := cleanDescription(*patch.Description)
		if err != nil {
			return models.Permission{}, err
		}
		sp.Description = &desc
	}
	if patch.Resource != nil {
		if !patch.Resource.Valid() {
			return models.Permission{}, Validation("unknown resource %q", *patch.Resource)
		}
		sp.Resource = patch.Resource
	}
	if patch.Action != nil {
		if !patch.Action.Valid() {
			return models.Permission{}, Validation("unknown action %q", *patch.Action)
		}
		sp.Action = patch.Action
	}
	if sp == (permissionstore.Patch{}) {
		return models.Permission{}, Validation("nothing to update")
	}

	p, err := c.perms.Update(ctx, id, sp)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.Permission{}, NotFound("Permission not found")
	case errors.Is(err, permissionstore.ErrDuplicatePermission):
		return models.Permission{}, Duplicate("A permission with this name or resource and action already exists.")
	}
	return p, err
}

// Delete removes a permission. Roles keep the dangling ID, which never
// matches during a decision.
func (c *Catalog) Delete(ctx context.Context, id primitive.ObjectID) (DeletedPermission, error) {
	p, err := c.Get(ctx, id)
	if err != nil {
		return DeletedPermission{}, err
	}
	refs, err := c.roles.CountReferencing(ctx, id)
	if err != nil {
		return DeletedPermission{}, err
	}
	n, err := c.perms.Delete(ctx, id)
	if err != nil {
		return DeletedPermission{}, err
	}
	if n == 0 {
		return DeletedPermission{}, NotFound("Permission not found")
	}
	return DeletedPermission{Permission: p, ReferencedBy: refs}, nil
}
