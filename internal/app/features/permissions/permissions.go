package permissions

import (
	"context"
	"net/http"

	"github.com/dalemusser/shopkeep/internal/app/system/authz"
	"github.com/dalemusser/shopkeep/internal/app/system/inputval"
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"github.com/dalemusser/shopkeep/internal/app/system/respond"
	"github.com/dalemusser/shopkeep/internal/app/system/timeouts"
	"github.com/dalemusser/shopkeep/internal/domain/models"
)

// ServeList handles GET /. An optional ?resource= narrows the list.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var (
		perms []models.Permission
		err   error
	)
	if q := r.URL.Query().Get("resource"); q != "" {
		res, perr := models.ParseResource(q)
		if perr != nil {
			respond.Error(w, r, h.Log, rbac.Validation("%s", perr.Error()))
			return
		}
		perms, err = h.Catalog.ListByResource(ctx, res)
	} else {
		perms, err = h.Catalog.List(ctx)
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if perms == nil {
		perms = []models.Permission{}
	}
	respond.JSON(w, http.StatusOK, listResponse{Permissions: perms, Count: len(perms)})
}

// ServeGet handles GET /{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Catalog.Get(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
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
	res, _ := models.ParseResource(req.Resource)
	act, _ := models.ParseAction(req.Action)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Catalog.Create(ctx, rbac.NewPermission{
		Name:        req.Name,
		Resource:    res,
		Action:      act,
		Description: req.Description,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.PermissionCreated(ctx, r, authz.ActorID(r), p)
	respond.JSON(w, http.StatusCreated, p)
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

	patch := rbac.PermissionPatch{Name: req.Name, Description: req.Description}
	if req.Resource != nil {
		res, _ := models.ParseResource(*req.Resource)
		patch.Resource = &res
	}
	if req.Action != nil {
		act, _ := models.ParseAction(*req.Action)
		patch.Action = &act
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Catalog.Update(ctx, id, patch)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.PermissionUpdated(ctx, r, authz.ActorID(r), p)
	respond.JSON(w, http.StatusOK, p)
}

// HandleDelete handles DELETE /{id}. Roles referencing the permission are
// left as they are.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	del, err := h.Catalog.Delete(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.PermissionDeleted(ctx, r, authz.ActorID(r), del.Permission, del.ReferencedBy)
	respond.JSON(w, http.StatusOK, deleteResponse{Deleted: true, ReferencedBy: del.ReferencedBy})
}
