package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "authcodelab/internal/errors"
	"authcodelab/internal/model"
	"authcodelab/internal/repository"
	"authcodelab/internal/secret"
)

// TwoFactorSetup is what a user needs to enroll an authenticator app.
type TwoFactorSetup struct {
	Secret      string   `json:"secret"`
	OTPAuthURL  string   `json:"-"`
	QRCode      string   `json:"qrCode"`
	BackupCodes []string `json:"backupCodes"`
}

// TwoFactorStatus is the read-only enrollment state.
type TwoFactorStatus struct {
	Enabled              bool `json:"enabled"`
	BackupCodesRemaining int  `json:"backupCodesRemaining"`
}

// TwoFactorService manages TOTP enrollment and second-factor checks.
//
// A user moves from unenrolled to enrolling on Setup (secret stored, not yet
// active), to enabled on a verified code, and back to unenrolled on Disable.
type TwoFactorService interface {
	Setup(ctx context.Context, userID uuid.UUID) (*TwoFactorSetup, error)
	VerifyAndEnable(ctx context.Context, userID uuid.UUID, code string) ([]string, error)
	Disable(ctx context.Context, userID uuid.UUID, password string) error
	// VerifyLogin checks a TOTP or backup code for a mid-login user. When the
	// code is accepted, onSuccess runs inside the same atomic update.
	VerifyLogin(ctx context.Context, email, code string, isBackupCode bool, onSuccess repository.MutateFunc) (*model.User, error)
	Status(ctx context.Context, userID uuid.UUID) (*TwoFactorStatus, error)
	RegenerateBackupCodes(ctx context.Context, userID uuid.UUID, password string) ([]string, error)
}

type twoFactorService struct {
	userRepo repository.UserRepository
	issuer   string
	now      func() time.Time
}

// NewTwoFactorService creates a new two-factor service. issuer names the
// service inside authenticator apps.
func NewTwoFactorService(userRepo repository.UserRepository, issuer string) TwoFactorService {
	return &twoFactorService{
		userRepo: userRepo,
		issuer:   issuer,
		now:      time.Now,
	}
}

// Setup stores a fresh secret and backup-code set. Calling it again while
// enrolling replaces both.
func (s *twoFactorService) Setup(ctx context.Context, userID uuid.UUID) (*TwoFactorSetup, error) {
	var setup *TwoFactorSetup
	_, err := s.userRepo.Update(ctx, userID, func(u *model.User) error {
		if u.TwoFactorEnabled {
			return apperrors.ErrTwoFactorAlreadyEnabled
		}
		enrollment, err := secret.NewTOTP(s.issuer, u.Email)
		if err != nil {
			return err
		}
		codes, err := secret.BackupCodes(secret.BackupCodeCount)
		if err != nil {
			return err
		}
		u.TwoFactorSecret = enrollment.Secret
		u.BackupCodes = codes
		setup = &TwoFactorSetup{
			Secret:      enrollment.Secret,
			OTPAuthURL:  enrollment.URL,
			QRCode:      enrollment.QRCode,
			BackupCodes: append([]string(nil), codes...),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return setup, nil
}

// VerifyAndEnable activates 2FA once the user proves the authenticator works
// and returns the backup codes issued at setup.
func (s *twoFactorService) VerifyAndEnable(ctx context.Context, userID uuid.UUID, code string) ([]string, error) {
	if !isTOTPFormat(code) {
		return nil, apperrors.ErrInvalidTwoFactorCode
	}

	user, err := s.userRepo.Update(ctx, userID, func(u *model.User) error {
		if u.TwoFactorSecret == "" {
			return apperrors.ErrTwoFactorNotSetUp
		}
		if !secret.ValidateTOTP(code, u.TwoFactorSecret, s.now()) {
			return apperrors.ErrInvalidTwoFactorCode
		}
		u.TwoFactorEnabled = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), user.BackupCodes...), nil
}

// Disable clears the secret, backup codes and flag after re-authentication.
func (s *twoFactorService) Disable(ctx context.Context, userID uuid.UUID, password string) error {
	if err := s.reauthenticate(ctx, userID, password); err != nil {
		return err
	}
	_, err := s.userRepo.Update(ctx, userID, func(u *model.User) error {
		u.ClearTwoFactor()
		return nil
	})
	return err
}

func (s *twoFactorService) VerifyLogin(ctx context.Context, email, code string, isBackupCode bool, onSuccess repository.MutateFunc) (*model.User, error) {
	if email == "" || code == "" {
		return nil, apperrors.ErrValidation
	}

	return s.userRepo.UpdateByEmail(ctx, normalizeEmail(email), func(u *model.User) error {
		if !u.TwoFactorEnabled {
			return apperrors.ErrTwoFactorNotEnabled
		}
		if isBackupCode {
			idx := secret.MatchBackupCode(u.BackupCodes, code)
			if idx < 0 {
				return apperrors.ErrInvalidTwoFactorCode
			}
			u.BackupCodes = append(u.BackupCodes[:idx:idx], u.BackupCodes[idx+1:]...)
		} else if !secret.ValidateTOTP(code, u.TwoFactorSecret, s.now()) {
			return apperrors.ErrInvalidTwoFactorCode
		}
		if onSuccess != nil {
			return onSuccess(u)
		}
		return nil
	})
}

func (s *twoFactorService) Status(ctx context.Context, userID uuid.UUID) (*TwoFactorStatus, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &TwoFactorStatus{
		Enabled:              user.TwoFactorEnabled,
		BackupCodesRemaining: len(user.BackupCodes),
	}, nil
}

// RegenerateBackupCodes replaces the whole set; unused old codes stop working.
func (s *twoFactorService) RegenerateBackupCodes(ctx context.Context, userID uuid.UUID, password string) ([]string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.TwoFactorEnabled {
		return nil, apperrors.ErrTwoFactorNotEnabled
	}
	if !checkPassword(user.PasswordHash, password) {
		return nil, apperrors.ErrInvalidPassword
	}

	codes, err := secret.BackupCodes(secret.BackupCodeCount)
	if err != nil {
		return nil, err
	}
	_, err = s.userRepo.Update(ctx, userID, func(u *model.User) error {
		if !u.TwoFactorEnabled {
			return apperrors.ErrTwoFactorNotEnabled
		}
		u.BackupCodes = codes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), codes...), nil
}

func (s *twoFactorService) reauthenticate(ctx context.Context, userID uuid.UUID, password string) error {
	if password == "" {
		return apperrors.ErrValidation
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !checkPassword(user.PasswordHash, password) {
		return apperrors.ErrInvalidPassword
	}
	return nil
}

func isTOTPFormat(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
