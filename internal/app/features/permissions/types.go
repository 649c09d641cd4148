package permissions

import "github.com/dalemusser/shopkeep/internal/domain/models"

type createRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Resource    string `json:"resource" validate:"required,rbac_resource"`
	Action      string `json:"action" validate:"required,rbac_action"`
	Description string `json:"description" validate:"max=500"`
}

type updateRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Resource    *string `json:"resource" validate:"omitempty,rbac_resource"`
	Action      *string `json:"action" validate:"omitempty,rbac_action"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type listResponse struct {
	Permissions []models.Permission `json:"permissions"`
	Count       int                 `json:"count"`
}

type deleteResponse struct {
	Deleted      bool  `json:"deleted"`
	ReferencedBy int64 `json:"referenced_by"`
}
