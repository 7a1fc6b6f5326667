package models

import (
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the authorization level attached to a user account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// TokenType distinguishes access tokens from refresh tokens. Both are
// signed with the same key, so the tag is the only guard against
// presenting one where the other is expected.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// User is the full credential record. PasswordHash never leaves the
// repository boundary; callers receive a UserResponse instead.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Role           Role      `db:"role" json:"role"`
	Avatar         string    `db:"avatar" json:"avatar,omitempty"`
	RemainingQuota float64   `db:"remaining_quota" json:"remainingQuota"`
	IsActive       bool      `db:"is_active" json:"isActive"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
	LastLoginAt    time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
}

// UserResponse is the outward-facing view of a user. It carries no
// password material by construction.
type UserResponse struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	Avatar         string    `json:"avatar,omitempty"`
	RemainingQuota float64   `json:"remainingQuota"`
	CreatedAt      time.Time `json:"createdAt"`
	LastLoginAt    time.Time `json:"lastLoginAt,omitempty"`
}

// ToResponse strips the hash and internal flags from a user record.
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		Avatar:         u.Avatar,
		RemainingQuota: u.RemainingQuota,
		CreatedAt:      u.CreatedAt,
		LastLoginAt:    u.LastLoginAt,
	}
}

// AvatarURL derives a deterministic avatar for a username.
func AvatarURL(username string) string {
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=6366f1&color=fff&size=128",
		url.QueryEscape(username))
}

// Claims defines the structure of the JWT claims.
type Claims struct {
	UserID    int64     `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	TokenType TokenType `json:"type"`
	jwt.RegisteredClaims
}

// RegisterRequest is the payload for POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role"`
}

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the payload for POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LoginResult bundles everything a successful login returns.
type LoginResult struct {
	User         *UserResponse `json:"user"`
	Token        string        `json:"token"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    int64         `json:"expiresIn"` // seconds
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// OK builds a success envelope.
func OK(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

// Fail builds a failure envelope.
func Fail(message string, errs ...string) Response {
	return Response{Success: false, Message: message, Errors: errs}
}
