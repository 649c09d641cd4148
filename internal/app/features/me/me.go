package me

import (
	"net/http"

	"github.com/dalemusser/shopkeep/internal/app/system/auth"
	"github.com/dalemusser/shopkeep/internal/app/system/authz"
	"github.com/dalemusser/shopkeep/internal/app/system/inputval"
	"github.com/dalemusser/shopkeep/internal/app/system/respond"
	"github.com/dalemusser/shopkeep/internal/domain/models"
)

type identityResponse struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Source  string `json:"source"`
	IsAdmin bool   `json:"is_admin"`
}

type permissionsResponse struct {
	Permissions  []models.Permission `json:"permissions"`
	Capabilities []string            `json:"capabilities"`
}

type checkQuery struct {
	Resource string `json:"resource" validate:"required,rbac_resource"`
	Action   string `json:"action" validate:"required,rbac_action"`
}

type checkResponse struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Granted  bool   `json:"granted"`
	Reason   string `json:"reason,omitempty"`
}

// ServeIdentity handles GET / - who the caller is as this service sees it.
func (h *Handler) ServeIdentity(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		respond.Errorf(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	admin, err := h.Engine.IsAdmin(r.Context(), user.ID)
	if err != nil {
		respond.ServerError(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, identityResponse{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Source:  user.Source,
		IsAdmin: admin,
	})
}

// ServePermissions handles GET /permissions: the union of the caller's
// active role permissions.
func (h *Handler) ServePermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.RawUserID(r)
	if !ok {
		respond.Errorf(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	perms, err := h.Engine.GetUserPermissions(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if perms == nil {
		perms = []models.Permission{}
	}
	caps := make([]string, len(perms))
	for i, p := range perms {
		caps[i] = p.Capability().String()
	}
	respond.JSON(w, http.StatusOK, permissionsResponse{Permissions: perms, Capabilities: caps})
}

// ServeCheck handles GET /check?resource=&action=. A denial is a normal
// 200 answer; only an engine failure is reported as an error.
func (h *Handler) ServeCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.RawUserID(r)
	if !ok {
		respond.Errorf(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	q := checkQuery{
		Resource: r.URL.Query().Get("resource"),
		Action:   r.URL.Query().Get("action"),
	}
	if res := inputval.Validate(q); res.HasErrors() {
		respond.Invalid(w, res)
		return
	}
	resource, _ := models.ParseResource(q.Resource)
	action, _ := models.ParseAction(q.Action)

	d := h.Engine.CheckPermission(r.Context(), userID, resource, action)
	if d.Err != nil {
		respond.ServerError(w, r, h.Log, d.Err)
		return
	}
	respond.JSON(w, http.StatusOK, checkResponse{
		Resource: string(resource),
		Action:   string(action),
		Granted:  d.Granted,
		Reason:   d.Reason,
	})
}
