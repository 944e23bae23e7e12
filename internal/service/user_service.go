package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"authcodelab/internal/auth"
	apperrors "authcodelab/internal/errors"
	"authcodelab/internal/model"
	"authcodelab/internal/repository"
)

const recentUsersLimit = 10

// UserSummary is the listing view of a user. Credentials are never included.
type UserSummary struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Role              model.Role `json:"role"`
	IsAccountVerified bool       `json:"isAccountVerified"`
	TwoFactorEnabled  bool       `json:"twoFactorEnabled"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// UserDashboard is a user's own overview.
type UserDashboard struct {
	User struct {
		Name             string     `json:"name"`
		Email            string     `json:"email"`
		Role             model.Role `json:"role"`
		IsVerified       bool       `json:"isVerified"`
		TwoFactorEnabled bool       `json:"twoFactorEnabled"`
		AccountAgeDays   int        `json:"accountAgeDays"`
	} `json:"user"`
	Stats struct {
		AccountStatus        string `json:"accountStatus"`
		SecurityLevel        string `json:"securityLevel"`
		BackupCodesRemaining int    `json:"backupCodesRemaining"`
		ActiveSessions       int    `json:"activeSessions"`
	} `json:"stats"`
	RecentActivity struct {
		AccountCreated time.Time `json:"accountCreated"`
		LastUpdated    time.Time `json:"lastUpdated"`
	} `json:"recentActivity"`
}

// StaffMember identifies the moderator or admin viewing a dashboard.
type StaffMember struct {
	Name string     `json:"name"`
	Role model.Role `json:"role"`
}

// ModeratorDashboard holds moderation statistics.
type ModeratorDashboard struct {
	Moderator StaffMember `json:"moderator"`
	Stats     struct {
		TotalUsers      int64 `json:"totalUsers"`
		VerifiedUsers   int64 `json:"verifiedUsers"`
		UnverifiedUsers int64 `json:"unverifiedUsers"`
		Users2FA        int64 `json:"users2FA"`
	} `json:"stats"`
	RecentUsers []UserSummary `json:"recentUsers"`
}

// AdminDashboard holds user-base statistics.
type AdminDashboard struct {
	Admin    StaffMember `json:"admin"`
	Overview struct {
		TotalUsers            int64  `json:"totalUsers"`
		VerifiedUsers         int64  `json:"verifiedUsers"`
		Users2FA              int64  `json:"users2FA"`
		NewUsersThisMonth     int64  `json:"newUsersThisMonth"`
		VerificationRate      string `json:"verificationRate"`
		TwoFactorAdoptionRate string `json:"twoFactorAdoptionRate"`
	} `json:"overview"`
	UserDistribution struct {
		Admins       int64                `json:"admins"`
		Moderators   int64                `json:"moderators"`
		RegularUsers int64                `json:"regularUsers"`
		ByRole       map[model.Role]int64 `json:"byRole"`
	} `json:"userDistribution"`
	Security struct {
		Users2FA        int64 `json:"users2FA"`
		UnverifiedUsers int64 `json:"unverifiedUsers"`
	} `json:"security"`
	RecentUsers []UserSummary `json:"recentUsers"`
}

// UserService serves profile, dashboard and role-management reads and writes.
type UserService interface {
	ResolvePrincipal(ctx context.Context, userID uuid.UUID) (auth.Principal, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UserDashboard(ctx context.Context, userID uuid.UUID) (*UserDashboard, error)
	ModeratorDashboard(ctx context.Context, viewer uuid.UUID) (*ModeratorDashboard, error)
	AdminDashboard(ctx context.Context, viewer uuid.UUID) (*AdminDashboard, error)
	ListUsers(ctx context.Context) ([]UserSummary, error)
	UpdateRole(ctx context.Context, targetID uuid.UUID, role model.Role) (*UserSummary, error)
}

type userService struct {
	repo repository.UserRepository
	now  func() time.Time
}

// NewUserService creates a user service.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo, now: time.Now}
}

// ResolvePrincipal loads the current role so a role change takes effect on
// the next request rather than at the next login.
func (s *userService) ResolvePrincipal(ctx context.Context, userID uuid.UUID) (auth.Principal, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return auth.Principal{}, err
	}
	return auth.Principal{UserID: user.ID, Role: user.Role}, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *userService) UserDashboard(ctx context.Context, userID uuid.UUID) (*UserDashboard, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	d := &UserDashboard{}
	d.User.Name = user.Name
	d.User.Email = user.Email
	d.User.Role = user.Role
	d.User.IsVerified = user.IsAccountVerified
	d.User.TwoFactorEnabled = user.TwoFactorEnabled
	d.User.AccountAgeDays = int(now.Sub(user.CreatedAt).Hours() / 24)

	d.Stats.AccountStatus = "Unverified"
	if user.IsAccountVerified {
		d.Stats.AccountStatus = "Verified"
	}
	d.Stats.SecurityLevel = "Medium (Password Only)"
	if user.TwoFactorEnabled {
		d.Stats.SecurityLevel = "High (2FA Enabled)"
	}
	d.Stats.BackupCodesRemaining = len(user.BackupCodes)
	d.Stats.ActiveSessions = user.ActiveSessions(now)

	d.RecentActivity.AccountCreated = user.CreatedAt
	d.RecentActivity.LastUpdated = user.UpdatedAt
	return d, nil
}

func (s *userService) ModeratorDashboard(ctx context.Context, viewer uuid.UUID) (*ModeratorDashboard, error) {
	me, err := s.repo.FindByID(ctx, viewer)
	if err != nil {
		return nil, err
	}
	total, verified, twoFA, err := s.coreCounts(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.recent(ctx)
	if err != nil {
		return nil, err
	}

	d := &ModeratorDashboard{Moderator: StaffMember{Name: me.Name, Role: me.Role}, RecentUsers: recent}
	d.Stats.TotalUsers = total
	d.Stats.VerifiedUsers = verified
	d.Stats.UnverifiedUsers = total - verified
	d.Stats.Users2FA = twoFA
	return d, nil
}

func (s *userService) AdminDashboard(ctx context.Context, viewer uuid.UUID) (*AdminDashboard, error) {
	me, err := s.repo.FindByID(ctx, viewer)
	if err != nil {
		return nil, err
	}
	total, verified, twoFA, err := s.coreCounts(ctx)
	if err != nil {
		return nil, err
	}
	since := s.now().Add(-30 * 24 * time.Hour)
	newUsers, err := s.repo.Count(ctx, repository.UserFilter{CreatedSince: &since})
	if err != nil {
		return nil, err
	}
	byRole, err := s.repo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.recent(ctx)
	if err != nil {
		return nil, err
	}

	d := &AdminDashboard{Admin: StaffMember{Name: me.Name, Role: me.Role}, RecentUsers: recent}
	d.Overview.TotalUsers = total
	d.Overview.VerifiedUsers = verified
	d.Overview.Users2FA = twoFA
	d.Overview.NewUsersThisMonth = newUsers
	d.Overview.VerificationRate = percent(verified, total)
	d.Overview.TwoFactorAdoptionRate = percent(twoFA, total)
	d.UserDistribution.Admins = byRole[model.RoleAdmin]
	d.UserDistribution.Moderators = byRole[model.RoleModerator]
	d.UserDistribution.RegularUsers = byRole[model.RoleUser]
	d.UserDistribution.ByRole = byRole
	d.Security.Users2FA = twoFA
	d.Security.UnverifiedUsers = total - verified
	return d, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]UserSummary, error) {
	users, err := s.repo.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	return summarize(users), nil
}

func (s *userService) UpdateRole(ctx context.Context, targetID uuid.UUID, role model.Role) (*UserSummary, error) {
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}
	user, err := s.repo.Update(ctx, targetID, func(u *model.User) error {
		u.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	summary := toSummary(*user)
	return &summary, nil
}

func (s *userService) coreCounts(ctx context.Context) (total, verified, twoFA int64, err error) {
	yes := true
	if total, err = s.repo.Count(ctx, repository.UserFilter{}); err != nil {
		return
	}
	if verified, err = s.repo.Count(ctx, repository.UserFilter{Verified: &yes}); err != nil {
		return
	}
	twoFA, err = s.repo.Count(ctx, repository.UserFilter{TwoFactor: &yes})
	return
}

func (s *userService) recent(ctx context.Context) ([]UserSummary, error) {
	users, err := s.repo.List(ctx, recentUsersLimit)
	if err != nil {
		return nil, err
	}
	return summarize(users), nil
}

func summarize(users []model.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, toSummary(u))
	}
	return out
}

func toSummary(u model.User) UserSummary {
	return UserSummary{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              u.Role,
		IsAccountVerified: u.IsAccountVerified,
		TwoFactorEnabled:  u.TwoFactorEnabled,
		CreatedAt:         u.CreatedAt,
	}
}

func percent(part, total int64) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}
