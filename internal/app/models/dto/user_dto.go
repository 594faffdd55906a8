package dto

import "github.com/yigit/schoolrecords/internal/app/models"

// RegisterUserRequest creates an account. Only admins may call it.
type RegisterUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangeRoleRequest sets a user's role
type ChangeRoleRequest struct {
	Role models.RoleType `json:"role" binding:"required" example:"admin"`
}
