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
	"authcodelab/internal/model"
	"authcodelab/internal/repository"
	"authcodelab/internal/secret"
)

var errNotWhitelisted = errors.New("refresh token not whitelisted")

// TokenPair is an access token plus the refresh token that can renew it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues, rotates and revokes session tokens. Refresh tokens
// are usable only while their digest is in the owner's whitelist.
type TokenService interface {
	// NewPair signs a pair without recording it; the caller must add the
	// returned whitelist entry to the user before handing out the tokens.
	NewPair(userID uuid.UUID) (*TokenPair, model.RefreshToken, error)
	IssuePair(ctx context.Context, userID uuid.UUID) (*TokenPair, error)
	Rotate(ctx context.Context, refreshToken string) (*TokenPair, error)
	Revoke(ctx context.Context, refreshToken string)
	VerifyAccess(accessToken string) (uuid.UUID, error)
}

type tokenService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	log        *zap.Logger
	now        func() time.Time
}

// NewTokenService creates a new token service.
func NewTokenService(userRepo repository.UserRepository, jwtService *auth.JWTService, log *zap.Logger) TokenService {
	return &tokenService{
		userRepo:   userRepo,
		jwtService: jwtService,
		log:        log,
		now:        time.Now,
	}
}

func (s *tokenService) NewPair(userID uuid.UUID) (*TokenPair, model.RefreshToken, error) {
	access, err := s.jwtService.GenerateAccessToken(userID.String())
	if err != nil {
		return nil, model.RefreshToken{}, fmt.Errorf("generate access token: %w", err)
	}
	refresh, expiresAt, err := s.jwtService.GenerateRefreshToken(userID.String())
	if err != nil {
		return nil, model.RefreshToken{}, fmt.Errorf("generate refresh token: %w", err)
	}
	entry := model.RefreshToken{Hash: secret.HashToken(refresh), ExpiresAt: expiresAt}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, entry, nil
}

func (s *tokenService) IssuePair(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	pair, entry, err := s.NewPair(userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.Update(ctx, userID, func(u *model.User) error {
		u.AddRefreshToken(entry, s.now())
		return nil
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

// Rotate exchanges a whitelisted refresh token for a new pair. The old
// token is removed in the same atomic update that adds the new one, so a
// token can be rotated at most once.
func (s *tokenService) Rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.ErrMissingRefreshToken
	}

	userID, err := s.refreshOwner(refreshToken)
	if err != nil {
		return nil, err
	}

	pair, entry, err := s.NewPair(userID)
	if err != nil {
		return nil, err
	}

	oldHash := secret.HashToken(refreshToken)
	_, err = s.userRepo.Update(ctx, userID, func(u *model.User) error {
		if !u.RemoveRefreshToken(oldHash) {
			return apperrors.ErrInvalidRefreshToken
		}
		u.AddRefreshToken(entry, s.now())
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAccountNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, err
	}
	return pair, nil
}

// Revoke removes refreshToken from its owner's whitelist. Unparseable
// tokens and store failures are ignored.
func (s *tokenService) Revoke(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	userID, err := s.refreshOwner(refreshToken)
	if err != nil {
		return
	}

	hash := secret.HashToken(refreshToken)
	_, err = s.userRepo.Update(ctx, userID, func(u *model.User) error {
		if !u.RemoveRefreshToken(hash) {
			return errNotWhitelisted
		}
		return nil
	})
	if err != nil && !errors.Is(err, errNotWhitelisted) && !errors.Is(err, apperrors.ErrAccountNotFound) {
		s.log.Warn("revoke refresh token", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (s *tokenService) VerifyAccess(accessToken string) (uuid.UUID, error) {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, auth.ErrTokenInvalid
	}
	return id, nil
}

func (s *tokenService) refreshOwner(refreshToken string) (uuid.UUID, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return uuid.Nil, apperrors.ErrExpiredRefreshToken
		}
		return uuid.Nil, apperrors.ErrInvalidRefreshToken
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, apperrors.ErrInvalidRefreshToken
	}
	return id, nil
}
