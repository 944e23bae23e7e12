package service

import (
	"context"
	"errors"

	apperrors "authcodelab/internal/errors"
	"authcodelab/internal/model"
	"authcodelab/internal/repository"
)

// EnsureAdmin creates a verified admin account for email, or promotes the
// existing account to admin. The password of an existing account is left
// unchanged. created reports which of the two happened.
func EnsureAdmin(ctx context.Context, repo repository.UserRepository, name, email, password string) (user *model.User, created bool, err error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, false, apperrors.ErrValidation
	}

	user, err = repo.UpdateByEmail(ctx, email, func(u *model.User) error {
		u.Role = model.RoleAdmin
		u.IsAccountVerified = true
		return nil
	})
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, apperrors.ErrAccountNotFound) {
		return nil, false, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, false, err
	}
	if name == "" {
		name = "Administrator"
	}
	user = &model.User{
		Name:              name,
		Email:             email,
		PasswordHash:      hash,
		Role:              model.RoleAdmin,
		IsAccountVerified: true,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}
