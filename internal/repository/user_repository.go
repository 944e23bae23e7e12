package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"authcodelab/internal/model"
)

// MutateFunc edits a user inside an atomic update. Returning an error aborts
// the update and nothing is written.
type MutateFunc func(user *model.User) error

// UserFilter narrows Count. Nil fields are ignored.
type UserFilter struct {
	Verified     *bool
	TwoFactor    *bool
	Role         *model.Role
	CreatedSince *time.Time
}

// UserRepository defines persistence operations. Lookups return
// errors.ErrAccountNotFound for a missing user and Create returns
// errors.ErrDuplicateEmail for a taken email.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// Update applies fn to the current record and persists the result
	// atomically with respect to other updates of the same user.
	Update(ctx context.Context, id uuid.UUID, fn MutateFunc) (*model.User, error)
	UpdateByEmail(ctx context.Context, email string, fn MutateFunc) (*model.User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
	CountByRole(ctx context.Context) (map[model.Role]int64, error)
	// List returns users newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]model.User, error)
}
