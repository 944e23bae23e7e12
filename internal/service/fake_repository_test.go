package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "authcodelab/internal/errors"
	"authcodelab/internal/model"
	"authcodelab/internal/repository"
)

// memoryUserRepository is an in-memory UserRepository. Update holds a lock
// for the whole read-modify-write, matching the row lock of the SQL store.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
	now   func() time.Time
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: map[uuid.UUID]*model.User{}, now: time.Now}
}

func clone(u *model.User) *model.User {
	c := *u
	c.BackupCodes = append([]string(nil), u.BackupCodes...)
	c.RefreshTokens = append([]model.RefreshToken(nil), u.RefreshTokens...)
	return &c
}

func (r *memoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperrors.ErrDuplicateEmail
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = clone(user)
	return nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}
	return clone(u), nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byEmail(email)
	if u == nil {
		return nil, apperrors.ErrAccountNotFound
	}
	return clone(u), nil
}

func (r *memoryUserRepository) byEmail(email string) *model.User {
	for _, u := range r.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (r *memoryUserRepository) Update(_ context.Context, id uuid.UUID, fn repository.MutateFunc) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}
	return r.apply(u, fn)
}

func (r *memoryUserRepository) UpdateByEmail(_ context.Context, email string, fn repository.MutateFunc) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byEmail(email)
	if u == nil {
		return nil, apperrors.ErrAccountNotFound
	}
	return r.apply(u, fn)
}

func (r *memoryUserRepository) apply(u *model.User, fn repository.MutateFunc) (*model.User, error) {
	working := clone(u)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.Version++
	working.UpdatedAt = r.now()
	r.users[working.ID] = clone(working)
	return working, nil
}

func (r *memoryUserRepository) Count(_ context.Context, f repository.UserFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if f.Verified != nil && u.IsAccountVerified != *f.Verified {
			continue
		}
		if f.TwoFactor != nil && u.TwoFactorEnabled != *f.TwoFactor {
			continue
		}
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		if f.CreatedSince != nil && u.CreatedAt.Before(*f.CreatedSince) {
			continue
		}
		n++
	}
	return n, nil
}

func (r *memoryUserRepository) CountByRole(_ context.Context) (map[model.Role]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[model.Role]int64{}
	for _, role := range model.Roles {
		out[role] = 0
	}
	for _, u := range r.users {
		out[u.Role]++
	}
	return out, nil
}

func (r *memoryUserRepository) List(_ context.Context, limit int) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// seed stores u directly, hashing password when set.
func (r *memoryUserRepository) seed(u *model.User, password string) *model.User {
	if password != "" {
		hash, err := hashPassword(password)
		if err != nil {
			panic(err)
		}
		u.PasswordHash = hash
	}
	if err := r.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func (r *memoryUserRepository) get(id uuid.UUID) *model.User {
	u, err := r.FindByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return u
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
