package models

import (
	"time"
)

// Role is the access level granted to a user. A user holds at most one.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	// RoleNone means no user_roles row exists (or it could not be read).
	RoleNone Role = ""
)

// IsValid reports whether r is an assignable role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// IsStaff reports whether r may use the CRM.
func (r Role) IsStaff() bool {
	return r.IsValid()
}

// User holds sign-in credentials.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
}

// Session is a server-side record backing an issued token.
type Session struct {
	ID           string    `json:"id"` // jti of the issued JWT
	UserID       string    `json:"user_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsRevoked    bool      `json:"is_revoked"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Active reports whether the session may still authenticate requests.
func (s *Session) Active(now time.Time) bool {
	return !s.IsRevoked && now.Before(s.ExpiresAt)
}

// UserRole is a row of user_roles.
type UserRole struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Principal is the resolved identity attached to an authenticated request.
type Principal struct {
	UserID    string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	SessionID string `json:"-"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// HasRole reports whether the principal holds one of roles.
func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil || p.Role == RoleNone {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// Profile is the personal record shown across the CRM.
type Profile struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone,omitempty"`
	Department *string   `json:"department,omitempty"`
	Position   *string   `json:"position,omitempty"`
	AvatarURL  *string   `json:"avatar_url,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Employee is a profile together with its resolved role.
type Employee struct {
	Profile
	Role Role `json:"role"`
}

// SessionView is the payload of GET /api/auth/session.
type SessionView struct {
	User    Principal `json:"user"`
	Role    Role      `json:"role"`
	Profile *Profile  `json:"profile,omitempty"`
}

// LoginResult is returned on sign-in and sign-up.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Principal `json:"user"`
	Role      Role      `json:"role"`
}
