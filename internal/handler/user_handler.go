package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"authcodelab/internal/errors"
	"authcodelab/internal/model"
	"authcodelab/internal/service"
)

// UserHandler serves profile, dashboard and role-management endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a user handler.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UserData is the caller's public profile.
type UserData struct {
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Role              model.Role `json:"role"`
	IsAccountVerified bool       `json:"isAccountVerified"`
	TwoFactorEnabled  bool       `json:"twoFactorEnabled"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// UserDataResponse wraps UserData.
type UserDataResponse struct {
	Success  bool     `json:"success"`
	UserData UserData `json:"userData"`
}

// DashboardResponse wraps any dashboard view.
type DashboardResponse struct {
	Success   bool        `json:"success"`
	Dashboard interface{} `json:"dashboard"`
}

// UserListResponse is the admin user listing.
type UserListResponse struct {
	Success bool                  `json:"success"`
	Count   int                   `json:"count"`
	Users   []service.UserSummary `json:"users"`
}

// UpdateRoleRequest changes another user's role.
type UpdateRoleRequest struct {
	TargetUserID string `json:"targetUserId" validate:"required,uuid"`
	NewRole      string `json:"newRole" validate:"required"`
}

// RoleUpdate identifies the user whose role changed.
type RoleUpdate struct {
	ID    uuid.UUID  `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// UpdateRoleResponse is returned after a role change.
type UpdateRoleResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	User    RoleUpdate `json:"user"`
}

// GetUserData godoc
// @Summary Current user's profile
// @Tags user
// @Produce json
// @Success 200 {object} UserDataResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security CookieAuth
// @Router /user/data [get]
func (h *UserHandler) GetUserData(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetProfile(c.Request().Context(), p.UserID)
	if err != nil {
		return handleServiceError(err)
	}
	return c.JSON(http.StatusOK, UserDataResponse{
		Success: true,
		UserData: UserData{
			Name:              user.Name,
			Email:             user.Email,
			Role:              user.Role,
			IsAccountVerified: user.IsAccountVerified,
			TwoFactorEnabled:  user.TwoFactorEnabled,
			CreatedAt:         user.CreatedAt,
		},
	})
}

// UserDashboard godoc
// @Summary Current user's dashboard
// @Tags user
// @Produce json
// @Success 200 {object} DashboardResponse
// @Failure 401 {object} errors.ErrorResponse
// @Security CookieAuth
// @Router /user/dashboard/user [get]
func (h *UserHandler) UserDashboard(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	d, err := h.svc.UserDashboard(c.Request().Context(), p.UserID)
	if err != nil {
		return handleServiceError(err)
	}
	return c.JSON(http.StatusOK, DashboardResponse{Success: true, Dashboard: d})
}

// ModeratorDashboard godoc
// @Summary Moderation statistics
// @Tags user
// @Produce json
// @Success 200 {object} DashboardResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Security CookieAuth
// @Router /user/dashboard/moderator [get]
func (h *UserHandler) ModeratorDashboard(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	d, err := h.svc.ModeratorDashboard(c.Request().Context(), p.UserID)
	if err != nil {
		return handleServiceError(err)
	}
	return c.JSON(http.StatusOK, DashboardResponse{Success: true, Dashboard: d})
}

// AdminDashboard godoc
// @Summary User-base statistics
// @Tags user
// @Produce json
// @Success 200 {object} DashboardResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Security CookieAuth
// @Router /user/dashboard/admin [get]
func (h *UserHandler) AdminDashboard(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	d, err := h.svc.AdminDashboard(c.Request().Context(), p.UserID)
	if err != nil {
		return handleServiceError(err)
	}
	return c.JSON(http.StatusOK, DashboardResponse{Success: true, Dashboard: d})
}

// ListUsers godoc
// @Summary List all users
// @Tags user
// @Produce json
// @Success 200 {object} UserListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Security CookieAuth
// @Router /user/all-users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return handleServiceError(err)
	}
	return c.JSON(http.StatusOK, UserListResponse{Success: true, Count: len(users), Users: users})
}

// UpdateRole godoc
// @Summary Change a user's role
// @Tags user
// @Accept json
// @Produce json
// @Param request body UpdateRoleRequest true "Target and role"
// @Success 200 {object} UpdateRoleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security CookieAuth
// @Router /user/update-role [put]
func (h *UserHandler) UpdateRole(c echo.Context) error {
	var req UpdateRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, valid := model.ParseRole(req.NewRole)
	if !valid {
		return handleServiceError(errors.ErrInvalidRole)
	}
	targetID, err := uuid.Parse(req.TargetUserID)
	if err != nil {
		return handleServiceError(errors.ErrValidation)
	}

	summary, err := h.svc.UpdateRole(c.Request().Context(), targetID, role)
	if err != nil {
		return handleServiceError(err)
	}
	return c.JSON(http.StatusOK, UpdateRoleResponse{
		Success: true,
		Message: "User role updated to " + string(summary.Role),
		User:    RoleUpdate{ID: summary.ID, Name: summary.Name, Email: summary.Email, Role: summary.Role},
	})
}
