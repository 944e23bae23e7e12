package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"authcodelab/internal/auth"
	apperrors "authcodelab/internal/errors"
	"authcodelab/internal/model"
	"authcodelab/internal/service"
)

func TestUserHandler_GetUserData(t *testing.T) {
	svc := new(MockUserService)
	h := NewUserHandler(svc)
	p := &auth.Principal{UserID: uuid.New(), Role: model.RoleUser}
	svc.On("GetProfile", mock.Anything, p.UserID).Return(&model.User{
		ID:              p.UserID,
		Name:            "Alice",
		Email:           "alice@example.com",
		Role:            model.RoleUser,
		PasswordHash:    "secret-hash",
		TwoFactorSecret: "JBSWY3DPEHPK3PXP",
		CreatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil)

	c, rec := newContext(http.MethodGet, "/api/user/data", "", p)
	require.NoError(t, h.GetUserData(c))

	assert.NotContains(t, rec.Body.String(), "secret-hash")
	assert.NotContains(t, rec.Body.String(), "JBSWY3DPEHPK3PXP")
	data := decode(t, rec)["userData"].(map[string]interface{})
	assert.Equal(t, "Alice", data["name"])
	assert.Equal(t, "user", data["role"])
	assert.Equal(t, false, data["isAccountVerified"])
}

func TestUserHandler_Dashboards(t *testing.T) {
	svc := new(MockUserService)
	h := NewUserHandler(svc)
	p := &auth.Principal{UserID: uuid.New(), Role: model.RoleAdmin}

	admin := &service.AdminDashboard{Admin: service.StaffMember{Name: "Root", Role: model.RoleAdmin}}
	admin.Overview.VerificationRate = "50.0%"
	svc.On("AdminDashboard", mock.Anything, p.UserID).Return(admin, nil)

	c, rec := newContext(http.MethodGet, "/api/user/dashboard/admin", "", p)
	require.NoError(t, h.AdminDashboard(c))
	dashboard := decode(t, rec)["dashboard"].(map[string]interface{})
	assert.Equal(t, "50.0%", dashboard["overview"].(map[string]interface{})["verificationRate"])

	svc.On("UserDashboard", mock.Anything, p.UserID).Return(nil, apperrors.ErrAccountNotFound)
	c, _ = newContext(http.MethodGet, "/api/user/dashboard/user", "", p)
	requireHTTPError(t, h.UserDashboard(c), http.StatusNotFound, "ACCOUNT_NOT_FOUND")
}

func TestUserHandler_ListUsers(t *testing.T) {
	svc := new(MockUserService)
	h := NewUserHandler(svc)
	svc.On("ListUsers", mock.Anything).Return([]service.UserSummary{{Name: "A"}, {Name: "B"}}, nil)

	c, rec := newContext(http.MethodGet, "/api/user/all-users", "", nil)
	require.NoError(t, h.ListUsers(c))
	body := decode(t, rec)
	assert.EqualValues(t, 2, body["count"])
	assert.Len(t, body["users"], 2)
}

func TestUserHandler_UpdateRole(t *testing.T) {
	svc := new(MockUserService)
	h := NewUserHandler(svc)
	target := uuid.New()

	c, _ := newContext(http.MethodPut, "/api/user/update-role", `{"targetUserId":"`+target.String()+`","newRole":"superuser"}`, nil)
	requireHTTPError(t, h.UpdateRole(c), http.StatusBadRequest, "INVALID_ROLE")

	c, _ = newContext(http.MethodPut, "/api/user/update-role", `{"targetUserId":"nope","newRole":"admin"}`, nil)
	requireHTTPError(t, h.UpdateRole(c), http.StatusBadRequest, "VALIDATION_ERROR")

	svc.On("UpdateRole", mock.Anything, target, model.RoleModerator).Return(&service.UserSummary{
		ID: target, Name: "Alice", Email: "alice@example.com", Role: model.RoleModerator,
	}, nil)
	c, rec := newContext(http.MethodPut, "/api/user/update-role", `{"targetUserId":"`+target.String()+`","newRole":"moderator"}`, nil)
	require.NoError(t, h.UpdateRole(c))

	body := decode(t, rec)
	assert.Equal(t, "User role updated to moderator", body["message"])
	assert.Equal(t, target.String(), body["user"].(map[string]interface{})["id"])
	svc.AssertExpectations(t)
}
