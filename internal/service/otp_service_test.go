package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "authcodelab/internal/errors"
	"authcodelab/internal/model"
)

func newTestOTPService(repo *memoryUserRepository, clock *fakeClock) (*otpService, *recordingMailer) {
	mailer := &recordingMailer{}
	svc := NewOTPService(repo, mailer).(*otpService)
	svc.now = clock.Now
	return svc, mailer
}

func TestCheckOTP_ExpiryBoundary(t *testing.T) {
	now := time.UnixMilli(1_800_000_000_000)

	tests := []struct {
		name     string
		stored   model.OneTimeCode
		given    string
		expected error
	}{
		{"one ms before expiry", model.OneTimeCode{Code: "123456", ExpireAt: now.UnixMilli() + 1}, "123456", nil},
		{"exactly at expiry", model.OneTimeCode{Code: "123456", ExpireAt: now.UnixMilli()}, "123456", apperrors.ErrExpiredOTP},
		{"one ms after expiry", model.OneTimeCode{Code: "123456", ExpireAt: now.UnixMilli() - 1}, "123456", apperrors.ErrExpiredOTP},
		{"mismatch", model.OneTimeCode{Code: "123456", ExpireAt: now.UnixMilli() + 1}, "654321", apperrors.ErrInvalidOTP},
		{"nothing pending", model.OneTimeCode{}, "", apperrors.ErrInvalidOTP},
		{"mismatch beats expiry", model.OneTimeCode{Code: "123456", ExpireAt: now.UnixMilli() - 1}, "000000", apperrors.ErrInvalidOTP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkOTP(tt.stored, tt.given, now)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}

func TestOTPService_VerifyAccountFlow(t *testing.T) {
	repo := newMemoryUserRepository()
	clock := newFakeClock(time.Now())
	svc, mailer := newTestOTPService(repo, clock)
	ctx := context.Background()
	user := repo.seed(&model.User{Name: "Alice", Email: "alice@example.com"}, "")

	require.NoError(t, svc.SendVerifyOTP(ctx, user.ID))
	stored := repo.get(user.ID).VerifyOTP
	require.Len(t, stored.Code, 6)
	assert.Equal(t, clock.Now().Add(OTPValidity).UnixMilli(), stored.ExpireAt)
	assert.Contains(t, mailer.last().Text, stored.Code)

	err := svc.VerifyAccount(ctx, user.ID, "000000")
	if stored.Code != "000000" {
		assert.ErrorIs(t, err, apperrors.ErrInvalidOTP)
		assert.Equal(t, stored, repo.get(user.ID).VerifyOTP, "failed attempt leaves the code usable")
	}

	require.NoError(t, svc.VerifyAccount(ctx, user.ID, stored.Code))
	after := repo.get(user.ID)
	assert.True(t, after.IsAccountVerified)
	assert.Equal(t, model.OneTimeCode{}, after.VerifyOTP)

	err = svc.VerifyAccount(ctx, user.ID, stored.Code)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyVerified)

	err = svc.SendVerifyOTP(ctx, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyVerified)
}

func TestOTPService_ResendInvalidatesPrevious(t *testing.T) {
	repo := newMemoryUserRepository()
	svc, mailer := newTestOTPService(repo, newFakeClock(time.Now()))
	ctx := context.Background()
	user := repo.seed(&model.User{Name: "Alice", Email: "alice@example.com"}, "")

	require.NoError(t, svc.SendVerifyOTP(ctx, user.ID))
	first := repo.get(user.ID).VerifyOTP.Code
	for repo.get(user.ID).VerifyOTP.Code == first {
		require.NoError(t, svc.SendVerifyOTP(ctx, user.ID))
	}
	second := repo.get(user.ID).VerifyOTP.Code

	assert.ErrorIs(t, svc.VerifyAccount(ctx, user.ID, first), apperrors.ErrInvalidOTP)
	assert.NoError(t, svc.VerifyAccount(ctx, user.ID, second))
	assert.GreaterOrEqual(t, mailer.count(), 2)
}

func TestOTPService_ExpiredCodeIsKept(t *testing.T) {
	repo := newMemoryUserRepository()
	clock := newFakeClock(time.Now())
	svc, _ := newTestOTPService(repo, clock)
	ctx := context.Background()
	user := repo.seed(&model.User{Name: "Alice", Email: "alice@example.com"}, "")

	require.NoError(t, svc.SendVerifyOTP(ctx, user.ID))
	code := repo.get(user.ID).VerifyOTP

	clock.Advance(OTPValidity)
	assert.ErrorIs(t, svc.VerifyAccount(ctx, user.ID, code.Code), apperrors.ErrExpiredOTP)
	assert.Equal(t, code, repo.get(user.ID).VerifyOTP, "expired code is not cleared")
	assert.False(t, repo.get(user.ID).IsAccountVerified)
}

func TestOTPService_PasswordReset(t *testing.T) {
	repo := newMemoryUserRepository()
	clock := newFakeClock(time.Now())
	svc, mailer := newTestOTPService(repo, clock)
	ctx := context.Background()
	user := repo.seed(&model.User{Name: "Alice", Email: "alice@example.com"}, "old-password")

	require.NoError(t, svc.SendResetOTP(ctx, "  Alice@Example.com "))
	code := repo.get(user.ID).ResetOTP.Code
	assert.Equal(t, "Password Reset OTP - AuthCodeLab", mailer.last().Subject)

	wrong := "111111"
	if code == wrong {
		wrong = "222222"
	}
	err := svc.ResetPassword(ctx, "alice@example.com", wrong, "new-password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidOTP)
	assert.True(t, checkPassword(repo.get(user.ID).PasswordHash, "old-password"), "password unchanged")

	require.NoError(t, svc.ResetPassword(ctx, "alice@example.com", code, "new-password"))
	after := repo.get(user.ID)
	assert.True(t, checkPassword(after.PasswordHash, "new-password"))
	assert.Equal(t, model.OneTimeCode{}, after.ResetOTP)

	err = svc.ResetPassword(ctx, "alice@example.com", code, "third-password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidOTP, "reset code is single-use")
}

func TestOTPService_ResetRejectsOverlongPassword(t *testing.T) {
	repo := newMemoryUserRepository()
	svc, _ := newTestOTPService(repo, newFakeClock(time.Now()))
	ctx := context.Background()
	user := repo.seed(&model.User{Name: "Alice", Email: "alice@example.com"}, "old-password")

	require.NoError(t, svc.SendResetOTP(ctx, "alice@example.com"))
	code := repo.get(user.ID).ResetOTP.Code

	err := svc.ResetPassword(ctx, "alice@example.com", code, strings.Repeat("a", maxPasswordBytes+1))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	after := repo.get(user.ID)
	assert.True(t, checkPassword(after.PasswordHash, "old-password"))
	assert.Equal(t, code, after.ResetOTP.Code, "code is still usable")

	require.NoError(t, svc.ResetPassword(ctx, "alice@example.com", code, "new-password"))
}

func TestOTPService_ResetUnknownEmail(t *testing.T) {
	repo := newMemoryUserRepository()
	svc, mailer := newTestOTPService(repo, newFakeClock(time.Now()))

	err := svc.SendResetOTP(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	assert.Zero(t, mailer.count())

	assert.ErrorIs(t, svc.SendResetOTP(context.Background(), ""), apperrors.ErrValidation)
	assert.ErrorIs(t, svc.ResetPassword(context.Background(), "a@example.com", "", "x"), apperrors.ErrValidation)
}
