package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "authcodelab/internal/errors"
	"authcodelab/internal/mail"
	"authcodelab/internal/model"
	"authcodelab/internal/repository"
	"authcodelab/internal/secret"
)

// OTPValidity is how long an emailed code stays usable.
const OTPValidity = 10 * time.Minute

// Mailer queues outgoing mail. Enqueue must not block on delivery.
type Mailer interface {
	Enqueue(msg mail.Message)
}

// OTPService runs the emailed one-time-passcode flows for account
// verification and password reset.
type OTPService interface {
	SendVerifyOTP(ctx context.Context, userID uuid.UUID) error
	VerifyAccount(ctx context.Context, userID uuid.UUID, otp string) error
	SendResetOTP(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
}

type otpService struct {
	userRepo repository.UserRepository
	mailer   Mailer
	now      func() time.Time
}

// NewOTPService creates a new OTP service.
func NewOTPService(userRepo repository.UserRepository, mailer Mailer) OTPService {
	return &otpService{
		userRepo: userRepo,
		mailer:   mailer,
		now:      time.Now,
	}
}

// SendVerifyOTP issues a verification code, replacing any pending one.
func (s *otpService) SendVerifyOTP(ctx context.Context, userID uuid.UUID) error {
	code, err := secret.NumericOTP()
	if err != nil {
		return err
	}

	user, err := s.userRepo.Update(ctx, userID, func(u *model.User) error {
		if u.IsAccountVerified {
			return apperrors.ErrAlreadyVerified
		}
		u.VerifyOTP = s.issue(code)
		return nil
	})
	if err != nil {
		return err
	}

	s.mailer.Enqueue(mail.VerifyOTP(user.Email, user.Name, code))
	return nil
}

// VerifyAccount consumes the verification code and marks the account verified.
func (s *otpService) VerifyAccount(ctx context.Context, userID uuid.UUID, otp string) error {
	_, err := s.userRepo.Update(ctx, userID, func(u *model.User) error {
		if u.IsAccountVerified {
			return apperrors.ErrAlreadyVerified
		}
		if err := checkOTP(u.VerifyOTP, otp, s.now()); err != nil {
			return err
		}
		u.IsAccountVerified = true
		u.VerifyOTP.Clear()
		return nil
	})
	return err
}

// SendResetOTP issues a password reset code to the account registered under email.
func (s *otpService) SendResetOTP(ctx context.Context, email string) error {
	if email == "" {
		return apperrors.ErrValidation
	}
	code, err := secret.NumericOTP()
	if err != nil {
		return err
	}

	user, err := s.userRepo.UpdateByEmail(ctx, normalizeEmail(email), func(u *model.User) error {
		u.ResetOTP = s.issue(code)
		return nil
	})
	if err != nil {
		return err
	}

	s.mailer.Enqueue(mail.ResetOTP(user.Email, user.Name, code))
	return nil
}

// ResetPassword consumes the reset code and replaces the password hash.
func (s *otpService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	if email == "" || otp == "" || newPassword == "" {
		return apperrors.ErrValidation
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	_, err = s.userRepo.UpdateByEmail(ctx, normalizeEmail(email), func(u *model.User) error {
		if err := checkOTP(u.ResetOTP, otp, s.now()); err != nil {
			return err
		}
		u.PasswordHash = hash
		u.ResetOTP.Clear()
		return nil
	})
	return err
}

func (s *otpService) issue(code string) model.OneTimeCode {
	return model.OneTimeCode{Code: code, ExpireAt: s.now().Add(OTPValidity).UnixMilli()}
}

// checkOTP accepts candidate only if a code is pending, matches, and now is
// strictly before its expiry. It never mutates the stored code.
func checkOTP(stored model.OneTimeCode, candidate string, now time.Time) error {
	if !stored.Pending() || !secret.Equal(stored.Code, candidate) {
		return apperrors.ErrInvalidOTP
	}
	if now.UnixMilli() >= stored.ExpireAt {
		return apperrors.ErrExpiredOTP
	}
	return nil
}
