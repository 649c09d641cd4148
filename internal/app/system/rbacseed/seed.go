package rbacseed

import (
	"context"
	"errors"
	"strconv"

	identitystore "github.com/dalemusser/shopkeep/internal/app/store/identities"
	permissionstore "github.com/dalemusser/shopkeep/internal/app/store/permissions"
	roleassignstore "github.com/dalemusser/shopkeep/internal/app/store/roleassign"
	rolestore "github.com/dalemusser/shopkeep/internal/app/store/roles"
	"github.com/dalemusser/shopkeep/internal/app/system/auditlog"
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Options tunes a seed run.
type Options struct {
	// SyncRoles resets the permission sets of existing standard roles to
	// the computed plan. Off by default so hand-tuned roles survive.
	SyncRoles bool
	// SkipAdminAssignments leaves administrators without a role.
	SkipAdminAssignments bool
}

// Report counts what a run changed.
type Report struct {
	PermissionsCreated int
	RolesCreated       int
	RolesSynced        int
	AdminsAssigned     int
}

// Changed reports whether the run wrote anything.
func (r Report) Changed() bool {
	return r.PermissionsCreated+r.RolesCreated+r.RolesSynced+r.AdminsAssigned > 0
}

// Seeder applies a Catalog to a database.
type Seeder struct {
	perms       *permissionstore.Store
	roles       *rolestore.Store
	assignments *roleassignstore.Store
	identities  *identitystore.Store
	ledger      *rbac.Ledger
	audit       *auditlog.Logger
	log         *zap.Logger
}

// New returns a Seeder. audit may be nil.
func New(db *mongo.Database, ledger *rbac.Ledger, audit *auditlog.Logger, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{
		perms:       permissionstore.New(db),
		roles:       rolestore.New(db),
		assignments: roleassignstore.New(db),
		identities:  identitystore.New(db),
		ledger:      ledger,
		audit:       audit,
		log:         log,
	}
}

// Run inserts missing permissions, then missing standard roles, then gives
// every administrator without an active assignment their mapped role.
// Running it again on a seeded database changes nothing.
func (s *Seeder) Run(ctx context.Context, c *Catalog, opts Options) (Report, error) {
	var rep Report

	if err := s.seedPermissions(ctx, c, &rep); err != nil {
		return rep, err
	}
	if err := s.seedRoles(ctx, c, opts, &rep); err != nil {
		return rep, err
	}
	if !opts.SkipAdminAssignments {
		if err := s.assignAdmins(ctx, c, &rep); err != nil {
			return rep, err
		}
	}

	s.log.Info("rbac seed complete",
		zap.Int("permissions_created", rep.PermissionsCreated),
		zap.Int("roles_created", rep.RolesCreated),
		zap.Int("roles_synced", rep.RolesSynced),
		zap.Int("admins_assigned", rep.AdminsAssigned))
	if rep.Changed() {
		s.audit.SeedApplied(ctx, map[string]string{
			"permissions_created": strconv.Itoa(rep.PermissionsCreated),
			"roles_created":       strconv.Itoa(rep.RolesCreated),
			"roles_synced":        strconv.Itoa(rep.RolesSynced),
			"admins_assigned":     strconv.Itoa(rep.AdminsAssigned),
		})
	}
	return rep, nil
}

func (s *Seeder) seedPermissions(ctx context.Context, c *Catalog, rep *Report) error {
	for _, entry := range c.Permissions {
		_, err := s.perms.FindByCapability(ctx, entry.Resource, entry.Action)
		if err == nil {
			continue
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}
		_, err = s.perms.Create(ctx, models.Permission{
			Name:        entry.Name,
			Resource:    entry.Resource,
			Action:      entry.Action,
			Description: entry.Description,
		})
		switch {
		case errors.Is(err, permissionstore.ErrDuplicatePermission):
			// Another instance seeded it, or an operator already used the name.
			s.log.Warn("seed permission skipped; duplicate",
				zap.String("name", entry.Name),
				zap.String("capability", models.Cap(entry.Resource, entry.Action).String()))
		case err != nil:
			return err
		default:
			rep.PermissionsCreated++
		}
	}
	return nil
}

func (s *Seeder) seedRoles(ctx context.Context, c *Catalog, opts Options, rep *Report) error {
	perms, err := s.perms.List(ctx)
	if err != nil {
		return err
	}

	for _, want := range Plan(perms, c) {
		existing, err := s.roles.GetByName(ctx, want.Name)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			_, err := s.roles.Create(ctx, models.Role{
				Name:          want.Name,
				Description:   want.Description,
				PermissionIDs: want.PermissionIDs,
			})
			if errors.Is(err, rolestore.ErrDuplicateRole) {
				continue
			}
			if err != nil {
				return err
			}
			rep.RolesCreated++
		case err != nil:
			return err
		case opts.SyncRoles && !sameIDs(existing.PermissionIDs, want.PermissionIDs):
			if _, err := s.roles.SetPermissions(ctx, existing.ID, want.PermissionIDs); err != nil {
				return err
			}
			rep.RolesSynced++
		}
	}
	return nil
}

func (s *Seeder) assignAdmins(ctx context.Context, c *Catalog, rep *Report) error {
	admins, err := s.identities.ListAdmins(ctx)
	if err != nil {
		return err
	}

	roleIDs := map[string]primitive.ObjectID{}
	for _, a := range admins {
		active, err := s.assignments.ListActiveByUser(ctx, a.ID)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			continue
		}

		name := c.AdminAssignments.RoleFor(a.Email)
		roleID, ok := roleIDs[name]
		if !ok {
			role, err := s.roles.GetByName(ctx, name)
			if errors.Is(err, mongo.ErrNoDocuments) {
				s.log.Warn("seed admin mapping names an unknown role",
					zap.String("email", a.Email),
					zap.String("role", name))
				continue
			}
			if err != nil {
				return err
			}
			roleID = role.ID
			roleIDs[name] = roleID
		}

		if _, err := s.ledger.Assign(ctx, a.ID, roleID, primitive.NilObjectID); err != nil {
			return err
		}
		rep.AdminsAssigned++
	}
	return nil
}

func sameIDs(a, b []primitive.ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[primitive.ObjectID]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
