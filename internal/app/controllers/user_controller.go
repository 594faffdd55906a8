package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolrecords/internal/app/models/dto"
	"github.com/yigit/schoolrecords/internal/app/services"
	"github.com/yigit/schoolrecords/internal/middleware"
)

// UserController handles user administration
type UserController struct {
	userService services.UserService
}

// NewUserController creates a new user controller
func NewUserController(userService services.UserService) *UserController {
	return &UserController{userService: userService}
}

// ListUsers returns every known user role
// @Summary List users
// @Description Lists every user with their role, ordered by email
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.UserRole}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	users, err := c.userService.ListUsers(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}

// Register creates an account with the default user role
// @Summary Register user
// @Description Creates an account. The new user gets the user role.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RegisterUserRequest true "Account"
// @Success 201 {object} dto.APIResponse{data=models.UserRole}
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 409 {object} dto.ErrorResponse "Email already registered"
// @Router /admin/users [post]
func (c *UserController) Register(ctx *gin.Context) {
	var req dto.RegisterUserRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	role, err := c.userService.Register(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(role))
}

// ChangeRole sets the role of a user
// @Summary Change user role
// @Description Sets a user's role. Admins cannot demote themselves.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body dto.ChangeRoleRequest true "New role"
// @Success 200 {object} dto.APIResponse{data=models.UserRole}
// @Failure 400 {object} dto.ErrorResponse "Unknown role"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /admin/users/{id}/role [put]
func (c *UserController) ChangeRole(ctx *gin.Context) {
	var req dto.ChangeRoleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	actor, _ := middleware.GetIdentity(ctx)

	role, err := c.userService.ChangeRole(ctx.Request.Context(), actor, ctx.Param("id"), req.Role)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(role))
}
