package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/remotive/saleshub/internal/application/identity"
	"github.com/remotive/saleshub/internal/domain/identity"
)

// UserHandler handles dealership staff management
type UserHandler struct {
	BaseHandler
	userService *identityapp.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identityapp.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUserRequest represents a request to add a staff member
type CreateUserRequest struct {
	Email        string     `json:"email" binding:"required,email,max=200" example:"new.rep@lonestar.example"`
	DisplayName  string     `json:"display_name" binding:"required,min=1,max=100" example:"Dana Ruiz"`
	Phone        string     `json:"phone" binding:"max=50"`
	Password     string     `json:"password" binding:"required,min=8,max=128"`
	Role         string     `json:"role" binding:"required,oneof=salesperson manager director owner crm_admin" example:"salesperson"`
	ManagerID    *uuid.UUID `json:"manager_id"`
	AcceptsLeads *bool      `json:"accepts_leads"`
}

// UpdateUserRequest carries optional changes; absent fields are left alone
type UpdateUserRequest struct {
	DisplayName  *string    `json:"display_name" binding:"omitempty,min=1,max=100"`
	Phone        *string    `json:"phone" binding:"omitempty,max=50"`
	Role         *string    `json:"role" binding:"omitempty,oneof=salesperson manager director owner crm_admin"`
	ManagerID    *uuid.UUID `json:"manager_id"`
	ClearManager bool       `json:"clear_manager"`
	Active       *bool      `json:"active"`
	AcceptsLeads *bool      `json:"accepts_leads"`
}

// UserListQuery filters the user list
type UserListQuery struct {
	Search   string `form:"search"`
	Role     string `form:"role" binding:"omitempty,oneof=salesperson manager director owner crm_admin"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Create godoc
// @ID           createUser
// @Summary      Create a user
// @Description  Admins create any role; managers may add salespeople to their own team
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "User"
// @Success      201 {object} APIResponse[identityapp.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var req CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), caller, identityapp.CreateUserInput{
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		Phone:        req.Phone,
		Password:     req.Password,
		Role:         identity.Role(req.Role),
		ManagerID:    req.ManagerID,
		AcceptsLeads: req.AcceptsLeads,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Get godoc
// @ID           getUser
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identityapp.UserDTO]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// List godoc
// @ID           listUsers
// @Summary      List users
// @Description  Admins see the dealership; managers see themselves and their team
// @Tags         users
// @Produce      json
// @Param        search query string false "Name or email"
// @Param        role query string false "Role"
// @Param        active query bool false "Active flag"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]identityapp.UserDTO]
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var q UserListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.userService.List(c.Request.Context(), caller, identityapp.UserListInput{
		Search:   q.Search,
		Role:     identity.Role(q.Role),
		Active:   q.Active,
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Users, result.Total, result.Page, result.PageSize)
}

// ListTeam godoc
// @ID           listTeam
// @Summary      List a manager's team
// @Tags         users
// @Produce      json
// @Param        id path string true "Manager ID" format(uuid)
// @Success      200 {object} APIResponse[[]identityapp.UserDTO]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/team [get]
func (h *UserHandler) ListTeam(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	team, err := h.userService.ListTeam(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, team)
}

// Update godoc
// @ID           updateUser
// @Summary      Update a user
// @Description  Change profile, role, manager, active flag or lead acceptance
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body UpdateUserRequest true "Changes"
// @Success      200 {object} APIResponse[identityapp.UserDTO]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input := identityapp.UpdateUserInput{
		DisplayName:  req.DisplayName,
		Phone:        req.Phone,
		ManagerID:    req.ManagerID,
		ClearManager: req.ClearManager,
		Active:       req.Active,
		AcceptsLeads: req.AcceptsLeads,
	}
	if req.Role != nil {
		role := identity.Role(*req.Role)
		input.Role = &role
	}

	user, err := h.userService.Update(c.Request.Context(), caller, id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
