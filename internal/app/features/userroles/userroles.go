package userroles

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/shopkeep/internal/app/system/authz"
	"github.com/dalemusser/shopkeep/internal/app/system/inputval"
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"github.com/dalemusser/shopkeep/internal/app/system/respond"
	"github.com/dalemusser/shopkeep/internal/app/system/timeouts"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type assignRequest struct {
	RoleID string `json:"role_id" validate:"required,objectid"`
}

// rolesResponse carries the assignment rows plus role_ids, the flat list of
// active role IDs older clients read from the admin record.
type rolesResponse struct {
	UserID      primitive.ObjectID          `json:"user_id"`
	RoleIDs     []primitive.ObjectID        `json:"role_ids"`
	Assignments []models.UserRoleAssignment `json:"assignments"`
}

type assignResponse struct {
	Assignment models.UserRoleAssignment `json:"assignment"`
	Replaced   []primitive.ObjectID      `json:"replaced_role_ids"`
}

// ServeRoles handles GET /{id}/roles. With ?history=true inactive rows are
// included, newest first.
func (h *Handler) ServeRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	history := false
	if q := r.URL.Query().Get("history"); q != "" {
		history, err = strconv.ParseBool(q)
		if err != nil {
			respond.Error(w, r, h.Log, rbac.Validation("history must be true or false."))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var rows []models.UserRoleAssignment
	if history {
		rows, err = h.Ledger.History(ctx, userID)
	} else {
		rows, err = h.Ledger.GetActiveRoles(ctx, userID)
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	roleIDs, err := h.Ledger.RoleIDs(ctx, userID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if rows == nil {
		rows = []models.UserRoleAssignment{}
	}
	respond.JSON(w, http.StatusOK, rolesResponse{UserID: userID, RoleIDs: roleIDs, Assignments: rows})
}

// HandleAssign handles POST /{id}/roles. The new role replaces whatever
// role the user held.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	userID, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req assignRequest
	if err := respond.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Invalid(w, res)
		return
	}
	roleID, _ := primitive.ObjectIDFromHex(req.RoleID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor := authz.ActorID(r)
	g, err := h.Ledger.Assign(ctx, userID, roleID, actor)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.RoleAssigned(ctx, r, actor, userID, roleID, g.Replaced)

	replaced := g.Replaced
	if replaced == nil {
		replaced = []primitive.ObjectID{}
	}
	respond.JSON(w, http.StatusCreated, assignResponse{Assignment: g.Assignment, Replaced: replaced})
}

// HandleRevoke handles DELETE /{id}/roles/{roleID}.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	userID, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	roleID, err := respond.IDParam(r, "roleID")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	actor := authz.ActorID(r)
	revoked, err := h.Ledger.Revoke(ctx, userID, roleID, actor)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !revoked {
		respond.Error(w, r, h.Log, rbac.NotFound("Assignment not found"))
		return
	}
	h.Audit.RoleRevoked(ctx, r, actor, userID, roleID)
	respond.JSON(w, http.StatusOK, map[string]bool{"revoked": true})
}
