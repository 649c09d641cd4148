package roles

import "github.com/dalemusser/shopkeep/internal/domain/models"

type createRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Description   string   `json:"description" validate:"max=500"`
	PermissionIDs []string `json:"permission_ids" validate:"max=200,unique,dive,objectid"`
}

type updateRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type permissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" validate:"required,min=1,max=200,dive,objectid"`
}

type listResponse struct {
	Roles []models.RoleView `json:"roles"`
	Count int               `json:"count"`
}
