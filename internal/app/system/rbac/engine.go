package rbac

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dalemusser/shopkeep/internal/app/system/metrics"
	"github.com/dalemusser/shopkeep/internal/app/system/timeouts"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Denial reasons returned to callers.
const (
	ReasonInvalidUserID = "Invalid user ID format"
	ReasonNoRoles       = "User has no assigned roles"
	ReasonCheckFailed   = "Permission check failed"
)

// ReasonMissing is the denial reason for a user whose roles lack (r, a).
func ReasonMissing(r models.Resource, a models.Action) string {
	return fmt.Sprintf("User does not have permission for %s:%s", r, a)
}

type activeAssignments interface {
	ListActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]models.UserRoleAssignment, error)
}

type activeRoleViews interface {
	ListActiveViewsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.RoleView, error)
}

// Decision is the outcome of a permission check. Err is set, and Granted
// is false, when the check itself failed.
type Decision struct {
	Granted bool
	Reason  string
	Err     error
}

// Engine answers authorization questions. Every call reads the current
// state of the ledger and registry; nothing is cached.
type Engine struct {
	assignments activeAssignments
	roles       activeRoleViews
	identities  IdentityStore
	metrics     *metrics.Metrics
	log         *zap.Logger

	// Timeout bounds a single check. Zero uses timeouts.Decision().
	Timeout time.Duration
}

func NewEngine(a activeAssignments, roles activeRoleViews, ids IdentityStore, m *metrics.Metrics, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{assignments: a, roles: roles, identities: ids, metrics: m, log: log}
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	d := e.Timeout
	if d <= 0 {
		d = timeouts.Decision()
	}
	return context.WithTimeout(ctx, d)
}

// activeRoles returns the active roles behind the user's active
// assignments, permissions resolved. ok is false when the user has no
// active assignment at all.
func (e *Engine) activeRoles(ctx context.Context, uid primitive.ObjectID) (roles []models.RoleView, ok bool, err error) {
	rows, err := e.assignments.ListActiveByUser(ctx, uid)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, a := range rows {
		ids = append(ids, a.RoleID)
	}
	roles, err = e.roles.ListActiveViewsByIDs(ctx, dedupIDs(ids))
	if err != nil {
		return nil, true, err
	}
	return roles, true, nil
}

// CheckPermission decides whether userID may perform action on resource.
func (e *Engine) CheckPermission(ctx context.Context, userID string, resource models.Resource, action models.Action) Decision {
	start := time.Now()
	d := e.check(ctx, userID, resource, action)

	result := metrics.ResultDenied
	switch {
	case d.Err != nil:
		result = metrics.ResultError
		e.log.Error("permission check failed",
			zap.String("user_id", userID),
			zap.String("required", string(resource)+":"+string(action)),
			zap.Error(d.Err))
	case d.Granted:
		result = metrics.ResultGranted
	default:
		e.log.Debug("permission denied",
			zap.String("user_id", userID),
			zap.String("required", string(resource)+":"+string(action)),
			zap.String("reason", d.Reason))
	}
	e.metrics.ObserveDecision(result, time.Since(start))
	return d
}

func (e *Engine) check(ctx context.Context, userID string, resource models.Resource, action models.Action) Decision {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return Decision{Reason: ReasonInvalidUserID}
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	roles, ok, err := e.activeRoles(ctx, uid)
	if err != nil {
		return Decision{Reason: ReasonCheckFailed, Err: decisionFailure("check permission", err)}
	}
	if !ok {
		return Decision{Reason: ReasonNoRoles}
	}
	for _, v := range roles {
		if v.Grants(resource, action) {
			return Decision{Granted: true}
		}
	}
	return Decision{Reason: ReasonMissing(resource, action)}
}

// IsAdmin reports whether userID belongs to the admin store or the
// user-management store. Malformed IDs are not admins.
func (e *Engine) IsAdmin(ctx context.Context, userID string) (bool, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, nil
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	ok, err := e.identities.IsAdministrative(ctx, uid)
	if err != nil {
		return false, decisionFailure("admin lookup", err)
	}
	return ok, nil
}

// HasRole reports whether one of the user's active roles is named
// roleName, compared case-insensitively.
func (e *Engine) HasRole(ctx context.Context, userID, roleName string) (bool, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, nil
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	roles, _, err := e.activeRoles(ctx, uid)
	if err != nil {
		return false, decisionFailure("role lookup", err)
	}
	want := text.Fold(roleName)
	for _, v := range roles {
		if v.IsActive && text.Fold(v.Name) == want {
			return true, nil
		}
	}
	return false, nil
}

// GetUserPermissions returns the union of permissions granted by the
// user's active roles, one entry per permission, ordered by resource and
// action.
func (e *Engine) GetUserPermissions(ctx context.Context, userID string) ([]models.Permission, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, Validation(ReasonInvalidUserID)
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	roles, _, err := e.activeRoles(ctx, uid)
	if err != nil {
		return nil, decisionFailure("permission lookup", err)
	}

	seen := make(map[primitive.ObjectID]struct{})
	out := []models.Permission{}
	for _, v := range roles {
		if !v.IsActive {
			continue
		}
		for _, p := range v.Permissions {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Resource != out[j].Resource {
			return out[i].Resource < out[j].Resource
		}
		return out[i].Action < out[j].Action
	})
	return out, nil
}
