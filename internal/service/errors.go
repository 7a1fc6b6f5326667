package service

import "errors"

// Typed failures returned by the auth core. The handler boundary maps
// them to HTTP status codes; nothing below it touches transport codes.
var (
	// ErrValidation covers malformed input: bad username or email
	// format, unknown role.
	ErrValidation = errors.New("validation failed")

	// ErrWeakPassword is a validation failure carrying the policy's
	// individual complaints alongside.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrInvalidCredentials covers both "unknown username" and "wrong
	// password". The two must stay indistinguishable to the caller so
	// usernames cannot be enumerated through the login endpoint.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountDisabled is returned when the username matches a
	// deactivated record.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrStaleIdentity means a cryptographically valid token refers to a
	// subject that no longer exists or has been deactivated since the
	// token was issued.
	ErrStaleIdentity = errors.New("user no longer exists or is disabled")

	ErrTokenExpired      = errors.New("token expired")
	ErrTokenMalformed    = errors.New("token is malformed")
	ErrTokenTypeMismatch = errors.New("unexpected token type")
)
