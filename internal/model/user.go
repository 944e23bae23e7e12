package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of authorization roles a user can hold.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleUser, RoleModerator, RoleAdmin}

// ParseRole converts s into a Role, reporting whether it is one of Roles.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// OneOf reports whether r equals any of allowed.
func (r Role) OneOf(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// User is the identity and credential record.
type User struct {
	ID                uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey" bson:"_id"`
	Name              string         `json:"name" gorm:"size:255;not null" bson:"name"`
	Email             string         `json:"email" gorm:"uniqueIndex;size:255;not null" bson:"email"`
	PasswordHash      string         `json:"-" gorm:"size:255;not null" bson:"password_hash"` // Never expose in JSON
	Role              Role           `json:"role" gorm:"type:varchar(20);not null;default:'user';index" bson:"role"`
	IsAccountVerified bool           `json:"isAccountVerified" gorm:"not null;default:false;index" bson:"is_account_verified"`
	VerifyOTP         OneTimeCode    `json:"-" gorm:"embedded;embeddedPrefix:verify_otp_" bson:"verify_otp"`
	ResetOTP          OneTimeCode    `json:"-" gorm:"embedded;embeddedPrefix:reset_otp_" bson:"reset_otp"`
	TwoFactorEnabled  bool           `json:"twoFactorEnabled" gorm:"not null;default:false;index" bson:"two_factor_enabled"`
	TwoFactorSecret   string         `json:"-" gorm:"size:64" bson:"two_factor_secret"`
	BackupCodes       []string       `json:"-" gorm:"serializer:json;type:text" bson:"backup_codes"`
	RefreshTokens     []RefreshToken `json:"-" gorm:"serializer:json;type:text" bson:"refresh_tokens"`
	Version           int64          `json:"-" gorm:"not null;default:0" bson:"version"`
	CreatedAt         time.Time      `json:"createdAt" gorm:"index" bson:"created_at"`
	UpdatedAt         time.Time      `json:"updatedAt" bson:"updated_at"`
}

// BeforeCreate sets UUID and default role before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// OneTimeCode is an emailed numeric passcode with an absolute expiry in epoch
// milliseconds. The zero value means no code is pending.
type OneTimeCode struct {
	Code     string `gorm:"column:code;size:16" bson:"code"`
	ExpireAt int64  `gorm:"column:expire_at;not null;default:0" bson:"expire_at"`
}

// Pending reports whether a code has been issued and not yet cleared.
func (o OneTimeCode) Pending() bool {
	return o.Code != ""
}

// Clear invalidates the code.
func (o *OneTimeCode) Clear() {
	o.Code = ""
	o.ExpireAt = 0
}

// RefreshToken is one entry of the per-user refresh-token whitelist. Only
// the SHA-256 digest of the token is kept.
type RefreshToken struct {
	Hash      string    `json:"hash" bson:"hash"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expires_at"`
}

// HasRefreshToken reports whether hash is currently whitelisted.
func (u *User) HasRefreshToken(hash string) bool {
	for _, t := range u.RefreshTokens {
		if t.Hash == hash {
			return true
		}
	}
	return false
}

// AddRefreshToken whitelists a token digest and drops entries that expired
// before now.
func (u *User) AddRefreshToken(token RefreshToken, now time.Time) {
	live := make([]RefreshToken, 0, len(u.RefreshTokens)+1)
	for _, t := range u.RefreshTokens {
		if t.ExpiresAt.After(now) {
			live = append(live, t)
		}
	}
	u.RefreshTokens = append(live, token)
}

// RemoveRefreshToken drops hash from the whitelist, reporting whether it was present.
func (u *User) RemoveRefreshToken(hash string) bool {
	for i, t := range u.RefreshTokens {
		if t.Hash == hash {
			u.RefreshTokens = append(u.RefreshTokens[:i:i], u.RefreshTokens[i+1:]...)
			return true
		}
	}
	return false
}

// ActiveSessions counts whitelisted refresh tokens that have not expired.
func (u *User) ActiveSessions(now time.Time) int {
	n := 0
	for _, t := range u.RefreshTokens {
		if t.ExpiresAt.After(now) {
			n++
		}
	}
	return n
}

// ClearTwoFactor returns the user to the unenrolled state.
func (u *User) ClearTwoFactor() {
	u.TwoFactorEnabled = false
	u.TwoFactorSecret = ""
	u.BackupCodes = []string{}
}
