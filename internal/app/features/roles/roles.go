package roles

import (
	"context"
	"net/http"

	"github.com/dalemusser/shopkeep/internal/app/system/authz"
	"github.com/dalemusser/shopkeep/internal/app/system/inputval"
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"github.com/dalemusser/shopkeep/internal/app/system/respond"
	"github.com/dalemusser/shopkeep/internal/app/system/timeouts"
	"github.com/dalemusser/shopkeep/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /: active roles with permissions resolved.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	roles, err := h.Registry.List(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if roles == nil {
		roles = []models.RoleView{}
	}
	respond.JSON(w, http.StatusOK, listResponse{Roles: roles, Count: len(roles)})
}

// ServeGet handles GET /{id}. Inactive roles are returned too.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.Registry.Get(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, v)
}

// HandleCreate handles POST /.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Invalid(w, res)
		return
	}
	ids, err := respond.IDs(req.PermissionIDs)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.Registry.Create(ctx, rbac.NewRole{
		Name:          req.Name,
		Description:   req.Description,
		PermissionIDs: ids,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.RoleCreated(ctx, r, authz.ActorID(r), v.Role)
	respond.JSON(w, http.StatusCreated, v)
}

// HandleUpdate handles PATCH /{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req updateRequest
	if err := respond.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Invalid(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.Registry.Update(ctx, id, rbac.RolePatch{Name: req.Name, Description: req.Description})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.RoleUpdated(ctx, r, authz.ActorID(r), v.Role)
	respond.JSON(w, http.StatusOK, v)
}

// HandleDelete handles DELETE /{id}. The role is deactivated, not removed.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	role, err := h.Registry.SoftDelete(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.RoleDeactivated(ctx, r, authz.ActorID(r), role.ID, role.Name)
	respond.JSON(w, http.StatusOK, role)
}

// permissionIDs reads the {id} parameter and the permission_ids body shared
// by the add and remove endpoints. It writes the error response itself.
func (h *Handler) permissionIDs(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, []primitive.ObjectID, bool) {
	id, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return primitive.NilObjectID, nil, false
	}
	var req permissionsRequest
	if err := respond.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return primitive.NilObjectID, nil, false
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Invalid(w, res)
		return primitive.NilObjectID, nil, false
	}
	ids, err := respond.IDs(req.PermissionIDs)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return primitive.NilObjectID, nil, false
	}
	return id, ids, true
}

// HandleAddPermissions handles POST /{id}/permissions.
func (h *Handler) HandleAddPermissions(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := h.permissionIDs(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.Registry.AddPermissions(ctx, id, ids)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.RolePermissionsAdded(ctx, r, authz.ActorID(r), id, ids)
	respond.JSON(w, http.StatusOK, v)
}

// HandleRemovePermissions handles DELETE /{id}/permissions.
func (h *Handler) HandleRemovePermissions(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := h.permissionIDs(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.Registry.RemovePermissions(ctx, id, ids)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.RolePermissionsRemoved(ctx, r, authz.ActorID(r), id, ids)
	respond.JSON(w, http.StatusOK, v)
}
