package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"authcodelab/internal/auth"
	"authcodelab/internal/model"
	"authcodelab/internal/repository"
	"authcodelab/internal/service"
)

// MockAuthService is a mock implementation of service.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, name, email, password string) (*model.User, *service.TokenPair, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.User), args.Get(1).(*service.TokenPair), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, client service.ClientInfo) (*service.LoginResult, error) {
	args := m.Called(ctx, email, password, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LoginResult), args.Error(1)
}

func (m *MockAuthService) VerifyTwoFactorLogin(ctx context.Context, email, code string, isBackupCode bool) (*service.LoginResult, error) {
	args := m.Called(ctx, email, code, isBackupCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LoginResult), args.Error(1)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) {
	m.Called(ctx, refreshToken)
}

// MockOTPService is a mock implementation of service.OTPService.
type MockOTPService struct {
	mock.Mock
}

func (m *MockOTPService) SendVerifyOTP(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockOTPService) VerifyAccount(ctx context.Context, userID uuid.UUID, otp string) error {
	return m.Called(ctx, userID, otp).Error(0)
}

func (m *MockOTPService) SendResetOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockOTPService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	return m.Called(ctx, email, otp, newPassword).Error(0)
}

// MockTwoFactorService is a mock implementation of service.TwoFactorService.
type MockTwoFactorService struct {
	mock.Mock
}

func (m *MockTwoFactorService) Setup(ctx context.Context, userID uuid.UUID) (*service.TwoFactorSetup, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TwoFactorSetup), args.Error(1)
}

func (m *MockTwoFactorService) VerifyAndEnable(ctx context.Context, userID uuid.UUID, code string) ([]string, error) {
	args := m.Called(ctx, userID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTwoFactorService) Disable(ctx context.Context, userID uuid.UUID, password string) error {
	return m.Called(ctx, userID, password).Error(0)
}

func (m *MockTwoFactorService) VerifyLogin(ctx context.Context, email, code string, isBackupCode bool, onSuccess repository.MutateFunc) (*model.User, error) {
	args := m.Called(ctx, email, code, isBackupCode, onSuccess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockTwoFactorService) Status(ctx context.Context, userID uuid.UUID) (*service.TwoFactorStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TwoFactorStatus), args.Error(1)
}

func (m *MockTwoFactorService) RegenerateBackupCodes(ctx context.Context, userID uuid.UUID, password string) ([]string, error) {
	args := m.Called(ctx, userID, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockUserService is a mock implementation of service.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) ResolvePrincipal(ctx context.Context, userID uuid.UUID) (auth.Principal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(auth.Principal), args.Error(1)
}

func (m *MockUserService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) UserDashboard(ctx context.Context, userID uuid.UUID) (*service.UserDashboard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UserDashboard), args.Error(1)
}

func (m *MockUserService) ModeratorDashboard(ctx context.Context, viewer uuid.UUID) (*service.ModeratorDashboard, error) {
	args := m.Called(ctx, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ModeratorDashboard), args.Error(1)
}

func (m *MockUserService) AdminDashboard(ctx context.Context, viewer uuid.UUID) (*service.AdminDashboard, error) {
	args := m.Called(ctx, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AdminDashboard), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]service.UserSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.UserSummary), args.Error(1)
}

func (m *MockUserService) UpdateRole(ctx context.Context, targetID uuid.UUID, role model.Role) (*service.UserSummary, error) {
	args := m.Called(ctx, targetID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UserSummary), args.Error(1)
}
