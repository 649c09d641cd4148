// internal/app/system/authz/middleware.go
package authz

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/shopkeep/internal/app/system/auditlog"
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"github.com/dalemusser/shopkeep/internal/app/system/respond"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AdminRoleName is the role that satisfies RequireAdmin alongside the
// identity-store check.
const AdminRoleName = "admin"

// Decider answers the questions the middleware asks.
type Decider interface {
	CheckPermission(ctx context.Context, userID string, r models.Resource, a models.Action) rbac.Decision
	IsAdmin(ctx context.Context, userID string) (bool, error)
	HasRole(ctx context.Context, userID, roleName string) (bool, error)
}

// Denial is the body of a 401, 403 or 500 written by the middleware.
type Denial struct {
	Error    string   `json:"error"`
	Reason   string   `json:"reason,omitempty"`
	Required []string `json:"required,omitempty"`
}

// Enforcer builds route guards backed by a Decider. Every guard fails
// closed: a check that errors answers 500 and never calls next.
type Enforcer struct {
	decider Decider
	audit   *auditlog.Logger
	log     *zap.Logger
}

// New returns an Enforcer. audit may be nil.
func New(d Decider, audit *auditlog.Logger, log *zap.Logger) *Enforcer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Enforcer{decider: d, audit: audit, log: log}
}

func capStrings(caps []models.Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = c.String()
	}
	return out
}

// summarize folds the reasons of several denials into one. Identity-level
// reasons apply to every capability and are reported alone.
func summarize(reasons []string) string {
	for _, r := range reasons {
		if r == rbac.ReasonNoRoles || r == rbac.ReasonInvalidUserID {
			return r
		}
	}
	return strings.Join(reasons, "; ")
}

func unauthorized(w http.ResponseWriter) {
	respond.JSON(w, http.StatusUnauthorized, Denial{Error: "Authentication required"})
}

func (e *Enforcer) failed(w http.ResponseWriter, r *http.Request, err error) {
	e.log.Error("authorization check failed",
		zap.String("path", r.URL.Path),
		zap.Error(err))
	respond.JSON(w, http.StatusInternalServerError, Denial{Error: "Permission check failed"})
}

func (e *Enforcer) forbidden(w http.ResponseWriter, r *http.Request, userID, reason string, required []string) {
	uid, _ := primitive.ObjectIDFromHex(userID)
	e.audit.AccessDenied(r.Context(), r, uid, required, reason)
	respond.JSON(w, http.StatusForbidden, Denial{
		Error:    "Insufficient permissions",
		Reason:   reason,
		Required: required,
	})
}

// RequirePermission admits the request only if the user's active role
// grants action on resource.
func (e *Enforcer) RequirePermission(resource models.Resource, action models.Action) func(http.Handler) http.Handler {
	required := []string{models.Cap(resource, action).String()}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := RawUserID(r)
			if !ok {
				unauthorized(w)
				return
			}

			d := e.decider.CheckPermission(r.Context(), userID, resource, action)
			switch {
			case d.Err != nil:
				e.failed(w, r, d.Err)
			case !d.Granted:
				e.forbidden(w, r, userID, d.Reason, required)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireAnyPermission admits the request if any one capability is
// granted. Checks run in order and stop at the first grant; an erroring
// check stops evaluation with a 500.
func (e *Enforcer) RequireAnyPermission(caps ...models.Capability) func(http.Handler) http.Handler {
	required := capStrings(caps)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := RawUserID(r)
			if !ok {
				unauthorized(w)
				return
			}

			var reasons []string
			for _, c := range caps {
				d := e.decider.CheckPermission(r.Context(), userID, c.Resource, c.Action)
				if d.Err != nil {
					e.failed(w, r, d.Err)
					return
				}
				if d.Granted {
					next.ServeHTTP(w, r)
					return
				}
				reasons = append(reasons, d.Reason)
			}
			reason := summarize(reasons)
			e.forbidden(w, r, userID, reason, required)
		})
	}
}

// RequireAllPermissions admits the request only if every capability is
// granted. All checks are evaluated concurrently and every missing
// capability is reported.
func (e *Enforcer) RequireAllPermissions(caps ...models.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := RawUserID(r)
			if !ok {
				unauthorized(w)
				return
			}

			decisions := make([]rbac.Decision, len(caps))
			g, ctx := errgroup.WithContext(r.Context())
			for i, c := range caps {
				g.Go(func() error {
					decisions[i] = e.decider.CheckPermission(ctx, userID, c.Resource, c.Action)
					return decisions[i].Err
				})
			}
			if err := g.Wait(); err != nil {
				e.failed(w, r, err)
				return
			}

			var missing, reasons []string
			for i, d := range decisions {
				if !d.Granted {
					missing = append(missing, caps[i].String())
					reasons = append(reasons, d.Reason)
				}
			}
			if len(missing) > 0 {
				e.forbidden(w, r, userID, summarize(reasons), missing)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin admits identities from the admin or user-management stores,
// and users whose active role is named "admin".
func (e *Enforcer) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := RawUserID(r)
		if !ok {
			unauthorized(w)
			return
		}

		isAdmin, err := e.decider.IsAdmin(r.Context(), userID)
		if err != nil {
			e.failed(w, r, err)
			return
		}
		if !isAdmin {
			hasRole, err := e.decider.HasRole(r.Context(), userID, AdminRoleName)
			if err != nil {
				e.failed(w, r, err)
				return
			}
			isAdmin = hasRole
		}
		if !isAdmin {
			e.forbidden(w, r, userID, "Admin access required", []string{"role:" + AdminRoleName})
			return
		}
		next.ServeHTTP(w, r)
	})
}
