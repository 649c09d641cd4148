// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/shopkeep/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// eventItem is the wire form of a single audit event.
type eventItem struct {
	ID            primitive.ObjectID  `json:"id"`
	Timestamp     time.Time           `json:"timestamp"`
	Category      string              `json:"category"`
	EventType     string              `json:"event_type"`
	UserID        *primitive.ObjectID `json:"user_id,omitempty"`
	ActorID       *primitive.ObjectID `json:"actor_id,omitempty"`
	RoleID        *primitive.ObjectID `json:"role_id,omitempty"`
	PermissionID  *primitive.ObjectID `json:"permission_id,omitempty"`
	IP            string              `json:"ip,omitempty"`
	Success       bool                `json:"success"`
	FailureReason string              `json:"failure_reason,omitempty"`
	Details       map[string]string   `json:"details,omitempty"`
}

type listResponse struct {
	Events     []eventItem `json:"events"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
}

type denialsResponse struct {
	Since  time.Time   `json:"since"`
	Events []eventItem `json:"events"`
}

func toItems(events []audit.Event) []eventItem {
	items := make([]eventItem, 0, len(events))
	for _, e := range events {
		items = append(items, eventItem{
			ID:            e.ID,
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			UserID:        e.UserID,
			ActorID:       e.ActorID,
			RoleID:        e.RoleID,
			PermissionID:  e.PermissionID,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		})
	}
	return items
}
