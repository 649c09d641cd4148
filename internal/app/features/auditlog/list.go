// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/shopkeep/internal/app/store/audit"
	"github.com/dalemusser/shopkeep/internal/app/system/paging"
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"github.com/dalemusser/shopkeep/internal/app/system/respond"
	"github.com/dalemusser/shopkeep/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxDenials     = 200
	defaultWindow  = 24 * time.Hour
	maxDenialRange = 30 * 24 * time.Hour
)

func objectIDQuery(r *http.Request, name string) (*primitive.ObjectID, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, rbac.Validation("%s must be a valid id.", name)
	}
	return &id, nil
}

// parseFilter reads the list query string: category, event_type, user_id,
// actor_id, role_id, start_date and end_date (YYYY-MM-DD, inclusive) and page.
func parseFilter(r *http.Request) (audit.QueryFilter, int, error) {
	q := r.URL.Query()
	f := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		Limit:     paging.PageSize,
	}
	var err error
	if f.UserID, err = objectIDQuery(r, "user_id"); err != nil {
		return f, 0, err
	}
	if f.ActorID, err = objectIDQuery(r, "actor_id"); err != nil {
		return f, 0, err
	}
	if f.RoleID, err = objectIDQuery(r, "role_id"); err != nil {
		return f, 0, err
	}

	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return f, 0, rbac.Validation("start_date must be YYYY-MM-DD.")
		}
		f.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return f, 0, rbac.Validation("end_date must be YYYY-MM-DD.")
		}
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		f.EndTime = &endOfDay
	}

	page := paging.ParsePage(r)
	f.Offset = paging.Offset(page)
	return f, page, nil
}

// ServeList handles GET / - a filtered, paginated view of the audit trail.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, page, err := parseFilter(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		respond.ServerError(w, r, h.Log, err)
		return
	}
	total, err := h.Store.CountByFilter(ctx, filter)
	if err != nil {
		respond.ServerError(w, r, h.Log, err)
		return
	}

	respond.JSON(w, http.StatusOK, listResponse{
		Events:     toItems(events),
		Total:      total,
		Page:       page,
		TotalPages: paging.TotalPages(total),
	})
}

// ServeDenials handles GET /denials?window=24h - recent access denials.
func (h *Handler) ServeDenials(w http.ResponseWriter, r *http.Request) {
	window := defaultWindow
	if s := r.URL.Query().Get("window"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 || d > maxDenialRange {
			respond.Error(w, r, h.Log, rbac.Validation("window must be a positive duration no longer than 720h."))
			return
		}
		window = d
	}
	since := time.Now().UTC().Add(-window)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit denials")
	defer cancel()

	events, err := h.Store.GetDenials(ctx, since, maxDenials)
	if err != nil {
		respond.ServerError(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, denialsResponse{Since: since, Events: toItems(events)})
}
