package model

import (
	"time"
)

type Role string

const (
	RoleClient  Role = "client"
	RoleRealtor Role = "realtor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleRealtor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID              string    `db:"id"`
	Email           string    `db:"email"`
	PasswordHash    *string   `db:"password_hash"`    // Nullable until a password is set
	Token           *string   `db:"token"`            // Current session token
	InvitationToken *string   `db:"invitation_token"` // Single-use, cleared on confirmation
	Avatar          *string   `db:"avatar"`
	Role            Role      `db:"role"`
	Verified        bool      `db:"verified"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// PublicUser is the projection of a user that is safe to return to callers.
type PublicUser struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Avatar          string `json:"avatar,omitempty"`
	Role            Role   `json:"role"`
	Verified        bool   `json:"verified"`
	Token           string `json:"token,omitempty"`
	InvitationToken string `json:"invitationToken,omitempty"`
}

// Public strips credentials. Token and InvitationToken are only set by
// callers that are allowed to hand them out.
func (u *User) Public() *PublicUser {
	p := &PublicUser{
		ID:       u.ID,
		Email:    u.Email,
		Role:     u.Role,
		Verified: u.Verified,
	}
	if u.Avatar != nil {
		p.Avatar = *u.Avatar
	}
	return p
}
