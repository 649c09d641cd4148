package rbac

import (
	"context"
	"errors"

	roleassignstore "github.com/dalemusser/shopkeep/internal/app/store/roleassign"
	"github.com/dalemusser/shopkeep/internal/app/system/metrics"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxAssignAttempts bounds retries when a concurrent grant wins the race
// for the single active slot.
const maxAssignAttempts = 5

// AssignmentStore is the persistence the ledger needs.
type AssignmentStore interface {
	Insert(ctx context.Context, a models.UserRoleAssignment) (models.UserRoleAssignment, error)
	DeactivateActiveByUser(ctx context.Context, userID, by primitive.ObjectID) ([]primitive.ObjectID, error)
	DeactivateByUserRole(ctx context.Context, userID, roleID, by primitive.ObjectID) (int64, error)
	ListActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]models.UserRoleAssignment, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.UserRoleAssignment, error)
}

// IdentityStore answers existence questions about external identities.
type IdentityStore interface {
	Kind(ctx context.Context, id primitive.ObjectID) (models.IdentityKind, error)
	IsAdministrative(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type roleGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Role, error)
}

// TxRunner runs fn atomically when the backing store allows it.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

func runDirect(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

// Ledger records which role each identity holds.
type Ledger struct {
	assignments AssignmentStore
	roles       roleGetter
	identities  IdentityStore
	runTx       TxRunner
	metrics     *metrics.Metrics
	log         *zap.Logger
}

// NewLedger builds a ledger. A nil runTx runs grants without a transaction;
// the partial unique index still keeps one active row per user.
func NewLedger(a AssignmentStore, roles roleGetter, ids IdentityStore, runTx TxRunner, m *metrics.Metrics, log *zap.Logger) *Ledger {
	if runTx == nil {
		runTx = runDirect
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{assignments: a, roles: roles, identities: ids, runTx: runTx, metrics: m, log: log}
}

// Grant is the result of Assign.
type Grant struct {
	Assignment models.UserRoleAssignment
	// Replaced lists the role IDs of assignments this grant deactivated.
	Replaced []primitive.ObjectID
}

// Assign makes roleID the single active role of userID. Any previously
// active assignment is deactivated in the same unit of work.
func (l *Ledger) Assign(ctx context.Context, userID, roleID, assignedBy primitive.ObjectID) (Grant, error) {
	kind, err := l.identities.Kind(ctx, userID)
	if err != nil {
		return Grant{}, err
	}
	if kind == models.IdentityNone {
		return Grant{}, NotFound("User not found")
	}
	if _, err := l.roles.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Grant{}, NotFound("Role not found")
		}
		return Grant{}, err
	}

	var g Grant
	for attempt := 1; ; attempt++ {
		err = l.runTx(ctx, func(ctx context.Context) error {
			replaced, err := l.assignments.DeactivateActiveByUser(ctx, userID, assignedBy)
			if err != nil {
				return err
			}
			row, err := l.assignments.Insert(ctx, models.UserRoleAssignment{
				UserID:     userID,
				RoleID:     roleID,
				AssignedBy: assignedBy,
			})
			if err != nil {
				return err
			}
			g = Grant{Assignment: row, Replaced: replaced}
			return nil
		})
		if !errors.Is(err, roleassignstore.ErrActiveExists) || attempt == maxAssignAttempts {
			break
		}
		l.log.Debug("concurrent role grant; retrying",
			zap.String("user_id", userID.Hex()),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		return Grant{}, err
	}

	l.metrics.IncAssignment(metrics.OpAssign)
	return g, nil
}

// GetActiveRoles returns the user's active assignments. At most one is
// expected but more are tolerated.
func (l *Ledger) GetActiveRoles(ctx context.Context, userID primitive.ObjectID) ([]models.UserRoleAssignment, error) {
	return l.assignments.ListActiveByUser(ctx, userID)
}

// History returns every assignment the user has held, newest first.
func (l *Ledger) History(ctx context.Context, userID primitive.ObjectID) ([]models.UserRoleAssignment, error) {
	return l.assignments.ListByUser(ctx, userID)
}

// RoleIDs projects the active assignments to their role IDs.
func (l *Ledger) RoleIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	rows, err := l.assignments.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, a := range rows {
		ids = append(ids, a.RoleID)
	}
	return dedupIDs(ids), nil
}

// Revoke deactivates the user's active assignments to roleID and reports
// whether any row changed.
func (l *Ledger) Revoke(ctx context.Context, userID, roleID, revokedBy primitive.ObjectID) (bool, error) {
	n, err := l.assignments.DeactivateByUserRole(ctx, userID, roleID, revokedBy)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	l.metrics.IncAssignment(metrics.OpRevoke)
	return true, nil
}
