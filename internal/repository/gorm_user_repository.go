package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "authcodelab/internal/errors"
	"authcodelab/internal/model"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, fn MutateFunc) (*model.User, error) {
	return r.update(ctx, "id = ?", id, fn)
}

func (r *userRepository) UpdateByEmail(ctx context.Context, email string, fn MutateFunc) (*model.User, error) {
	return r.update(ctx, "email = ?", email, fn)
}

// update locks the row for the duration of the transaction so concurrent
// mutations of the same user are serialized by the database.
func (r *userRepository) update(ctx context.Context, query string, arg interface{}, fn MutateFunc) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where(query, arg).First(&user).Error; err != nil {
			return mapNotFound(err)
		}
		if err := fn(&user); err != nil {
			return err
		}
		user.Version++
		if err := tx.Save(&user).Error; err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Count(ctx context.Context, filter UserFilter) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Verified != nil {
		q = q.Where("is_account_verified = ?", *filter.Verified)
	}
	if filter.TwoFactor != nil {
		q = q.Where("two_factor_enabled = ?", *filter.TwoFactor)
	}
	if filter.Role != nil {
		q = q.Where("role = ?", *filter.Role)
	}
	if filter.CreatedSince != nil {
		q = q.Where("created_at >= ?", *filter.CreatedSince)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *userRepository) CountByRole(ctx context.Context) (map[model.Role]int64, error) {
	var rows []struct {
		Role  model.Role
		Count int64
	}
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("role, count(*) as count").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}

	out := make(map[model.Role]int64, len(model.Roles))
	for _, role := range model.Roles {
		out[role] = 0
	}
	for _, row := range rows {
		out[row.Role] = row.Count
	}
	return out, nil
}

func (r *userRepository) List(ctx context.Context, limit int) ([]model.User, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var users []model.User
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrAccountNotFound
	}
	return fmt.Errorf("query user: %w", err)
}
