// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/shopkeep/internal/app/store/audit"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// RBAC controls logging for catalog, role and assignment changes.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	RBAC string
	// Security controls logging for access denials and seeding.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Security string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	// Fall back to RemoteAddr (port stripped)
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

// actorRef returns nil for the system actor (NilObjectID).
func actorRef(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

func joinIDs(ids []primitive.ObjectID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.Hex()
	}
	return strings.Join(parts, ",")
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	} else {
		fields = append(fields, zap.String("actor_id", "system"))
	}
	if event.RoleID != nil {
		fields = append(fields, zap.String("role_id", event.RoleID.Hex()))
	}
	if event.PermissionID != nil {
		fields = append(fields, zap.String("permission_id", event.PermissionID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryRBAC:
		setting = l.config.RBAC
	case audit.CategorySecurity:
		setting = l.config.Security
	default:
		setting = "all" // Default to logging everything for unknown categories
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) rbac(ctx context.Context, r *http.Request, eventType string, actorID primitive.ObjectID, fill func(*audit.Event)) {
	e := audit.Event{
		Category:  audit.CategoryRBAC,
		EventType: eventType,
		ActorID:   actorRef(actorID),
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
	}
	fill(&e)
	l.Log(ctx, e)
}

// --- Permission catalog ---

// PermissionCreated logs a new catalog entry.
func (l *Logger) PermissionCreated(ctx context.Context, r *http.Request, actorID primitive.ObjectID, p models.Permission) {
	l.rbac(ctx, r, audit.EventPermissionCreated, actorID, func(e *audit.Event) {
		e.PermissionID = &p.ID
		e.Details = map[string]string{"name": p.Name, "capability": p.Capability().String()}
	})
}

// PermissionUpdated logs an edit to a catalog entry.
func (l *Logger) PermissionUpdated(ctx context.Context, r *http.Request, actorID primitive.ObjectID, p models.Permission) {
	l.rbac(ctx, r, audit.EventPermissionUpdated, actorID, func(e *audit.Event) {
		e.PermissionID = &p.ID
		e.Details = map[string]string{"name": p.Name, "capability": p.Capability().String()}
	})
}

// PermissionDeleted logs removal of a catalog entry and how many roles still
// reference it (those references no longer match).
func (l *Logger) PermissionDeleted(ctx context.Context, r *http.Request, actorID primitive.ObjectID, p models.Permission, rolesReferencing int64) {
	l.rbac(ctx, r, audit.EventPermissionDeleted, actorID, func(e *audit.Event) {
		e.PermissionID = &p.ID
		e.Details = map[string]string{
			"name":           p.Name,
			"capability":     p.Capability().String(),
			"roles_referencing": strconv.FormatInt(rolesReferencing, 10),
		}
	})
}

// --- Role registry ---

// RoleCreated logs a new role.
func (l *Logger) RoleCreated(ctx context.Context, r *http.Request, actorID primitive.ObjectID, role models.Role) {
	l.rbac(ctx, r, audit.EventRoleCreated, actorID, func(e *audit.Event) {
		e.RoleID = &role.ID
		e.Details = map[string]string{
			"role_name":   role.Name,
			"permissions": strconv.Itoa(len(role.PermissionIDs)),
		}
	})
}

// RoleUpdated logs a change to a role's name or description.
func (l *Logger) RoleUpdated(ctx context.Context, r *http.Request, actorID primitive.ObjectID, role models.Role) {
	l.rbac(ctx, r, audit.EventRoleUpdated, actorID, func(e *audit.Event) {
		e.RoleID = &role.ID
		e.Details = map[string]string{"role_name": role.Name}
	})
}

// RoleDeactivated logs a soft delete.
func (l *Logger) RoleDeactivated(ctx context.Context, r *http.Request, actorID primitive.ObjectID, roleID primitive.ObjectID, roleName string) {
	l.rbac(ctx, r, audit.EventRoleDeactivated, actorID, func(e *audit.Event) {
		e.RoleID = &roleID
		e.Details = map[string]string{"role_name": roleName}
	})
}

// RolePermissionsAdded logs permissions granted to a role.
func (l *Logger) RolePermissionsAdded(ctx context.Context, r *http.Request, actorID, roleID primitive.ObjectID, permIDs []primitive.ObjectID) {
	l.rbac(ctx, r, audit.EventRolePermissionsAdded, actorID, func(e *audit.Event) {
		e.RoleID = &roleID
		e.Details = map[string]string{"permission_ids": joinIDs(permIDs)}
	})
}

// RolePermissionsRemoved logs permissions withdrawn from a role.
func (l *Logger) RolePermissionsRemoved(ctx context.Context, r *http.Request, actorID, roleID primitive.ObjectID, permIDs []primitive.ObjectID) {
	l.rbac(ctx, r, audit.EventRolePermissionsRemoved, actorID, func(e *audit.Event) {
		e.RoleID = &roleID
		e.Details = map[string]string{"permission_ids": joinIDs(permIDs)}
	})
}

// --- Assignment ledger ---

// RoleAssigned logs a new active assignment. previous is the role that was
// deactivated to make room for it, if any.
func (l *Logger) RoleAssigned(ctx context.Context, r *http.Request, actorID, userID, roleID primitive.ObjectID, previous []primitive.ObjectID) {
	l.rbac(ctx, r, audit.EventRoleAssigned, actorID, func(e *audit.Event) {
		e.UserID = &userID
		e.RoleID = &roleID
		if len(previous) > 0 {
			e.Details = map[string]string{"replaced_role_ids": joinIDs(previous)}
		}
	})
}

// RoleRevoked logs deactivation of a user's assignment.
func (l *Logger) RoleRevoked(ctx context.Context, r *http.Request, actorID, userID, roleID primitive.ObjectID) {
	l.rbac(ctx, r, audit.EventRoleRevoked, actorID, func(e *audit.Event) {
		e.UserID = &userID
		e.RoleID = &roleID
	})
}

// --- Security ---

// AccessDenied logs a request rejected by the authorization middleware.
func (l *Logger) AccessDenied(ctx context.Context, r *http.Request, userID primitive.ObjectID, required []string, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySecurity,
		EventType:     audit.EventAccessDenied,
		UserID:        actorRef(userID),
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		Success:       false,
		FailureReason: reason,
		Details: map[string]string{
			"required": strings.Join(required, ","),
			"path":     pathOf(r),
		},
	})
}

// SeedApplied logs the outcome of a catalog seed run.
func (l *Logger) SeedApplied(ctx context.Context, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategorySecurity,
		EventType: audit.EventSeedApplied,
		Success:   true,
		Details:   details,
	})
}

func pathOf(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.Method + " " + r.URL.Path
}
