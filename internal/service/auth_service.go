package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"authcodelab/internal/auth"
	apperrors "authcodelab/internal/errors"
	"authcodelab/internal/mail"
	"authcodelab/internal/model"
	"authcodelab/internal/repository"
	"authcodelab/internal/risk"
)

// ClientInfo describes where a login attempt comes from.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// LoginResult is the outcome of a password or second-factor login step.
// Tokens is nil while Requires2FA is set.
type LoginResult struct {
	User                 *model.User
	Tokens               *TokenPair
	Requires2FA          bool
	Email                string
	RemainingBackupCodes int
}

// AuthService composes the credential flows: registration, password login,
// second-factor completion, refresh rotation and logout.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, *TokenPair, error)
	Login(ctx context.Context, email, password string, client ClientInfo) (*LoginResult, error)
	VerifyTwoFactorLogin(ctx context.Context, email, code string, isBackupCode bool) (*LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string)
}

type authService struct {
	userRepo   repository.UserRepository
	tokens     TokenService
	twoFactor  TwoFactorService
	mailer     Mailer
	analyzer   risk.Analyzer
	challenges auth.ChallengeStoreInterface
	log        *zap.Logger
	now        func() time.Time
	// passwordMatches reports whether password fits the stored hash.
	passwordMatches func(hash, password string) bool
}

// NewAuthService creates a new authentication service. analyzer may be
// risk.Disabled{}; challenges may be nil to let verify-login stand alone.
func NewAuthService(
	userRepo repository.UserRepository,
	tokens TokenService,
	twoFactor TwoFactorService,
	mailer Mailer,
	analyzer risk.Analyzer,
	challenges auth.ChallengeStoreInterface,
	log *zap.Logger,
) AuthService {
	if analyzer == nil {
		analyzer = risk.Disabled{}
	}
	return &authService{
		userRepo:   userRepo,
		tokens:     tokens,
		twoFactor:  twoFactor,
		mailer:     mailer,
		analyzer:   analyzer,
		challenges: challenges,
		log:        log,
		now:        time.Now,

		passwordMatches: checkPassword,
	}
}

// Register creates an unverified account that is signed in immediately.
// The welcome mail is queued and its delivery never affects the result.
func (s *authService) Register(ctx context.Context, name, email, password string) (*model.User, *TokenPair, error) {
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, nil, apperrors.ErrValidation
	}

	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, nil, apperrors.ErrDuplicateEmail
	}
	if !errors.Is(err, apperrors.ErrAccountNotFound) {
		return nil, nil, fmt.Errorf("check account existence: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		BackupCodes:  []string{},
	}
	pair, entry, err := s.tokens.NewPair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	user.AddRefreshToken(entry, s.now())

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	s.mailer.Enqueue(mail.Welcome(user.Email, user.Name, s.now()))
	return user, pair, nil
}

// Login checks the password, consults the risk analyzer, and either issues
// tokens or asks for the second factor.
func (s *authService) Login(ctx context.Context, email, password string, client ClientInfo) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.ErrValidation
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrAccountNotFound) {
			s.passwordMatches(dummyHash(), password)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.passwordMatches(user.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	assessment := s.analyzer.Analyze(ctx, risk.NewRequest(user.ID.String(), client.IP, client.UserAgent, s.now()))
	switch assessment.Status {
	case risk.StatusBlock:
		s.log.Warn("login blocked by risk engine",
			zap.String("user_id", user.ID.String()),
			zap.Float64("risk_score", assessment.RiskScore),
			zap.String("reason", assessment.Reason),
		)
		return nil, apperrors.ErrLoginBlocked
	case risk.StatusChallenge:
		s.log.Info("risk engine requested challenge",
			zap.String("user_id", user.ID.String()),
			zap.Float64("risk_score", assessment.RiskScore),
			zap.Bool("two_factor_enabled", user.TwoFactorEnabled),
		)
	}

	if user.TwoFactorEnabled {
		if s.challenges != nil {
			if err := s.challenges.Open(ctx, user.Email); err != nil {
				return nil, fmt.Errorf("open login challenge: %w", err)
			}
		}
		return &LoginResult{User: user, Requires2FA: true, Email: user.Email}, nil
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Tokens: pair}, nil
}

// VerifyTwoFactorLogin completes a login that stopped at Requires2FA. The
// code check, backup-code consumption and refresh-token recording happen in
// one update.
func (s *authService) VerifyTwoFactorLogin(ctx context.Context, email, code string, isBackupCode bool) (*LoginResult, error) {
	email = normalizeEmail(email)
	if s.challenges != nil {
		open, err := s.challenges.Consume(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("claim login challenge: %w", err)
		}
		if !open {
			return nil, apperrors.ErrInvalidCredentials
		}
	}

	var pair *TokenPair
	user, err := s.twoFactor.VerifyLogin(ctx, email, code, isBackupCode, func(u *model.User) error {
		p, entry, err := s.tokens.NewPair(u.ID)
		if err != nil {
			return err
		}
		u.AddRefreshToken(entry, s.now())
		pair = p
		return nil
	})
	if err != nil {
		if s.challenges != nil {
			// A rejected code leaves the password step valid for another try.
			if openErr := s.challenges.Open(ctx, email); openErr != nil {
				s.log.Warn("reopen login challenge", zap.Error(openErr))
			}
		}
		return nil, err
	}

	return &LoginResult{
		User:                 user,
		Tokens:               pair,
		Email:                user.Email,
		RemainingBackupCodes: len(user.BackupCodes),
	}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	return s.tokens.Rotate(ctx, refreshToken)
}

// Logout revokes the refresh token if it can; it never fails.
func (s *authService) Logout(ctx context.Context, refreshToken string) {
	s.tokens.Revoke(ctx, refreshToken)
}
