package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/abdcafe/backend/internal/models"
)

// refreshTokenTTL is fixed and independent of the configurable access
// token lifetime.
const refreshTokenTTL = 30 * 24 * time.Hour

// TokenService issues and verifies signed tokens. It is stateless: the
// only inputs are the signing secret and the clock, so verification
// never consults the credential store. Reconciling a token's subject
// with the store is the auth gate's job.
type TokenService struct {
	secret    []byte
	accessTTL time.Duration
}

// NewTokenService creates a token service. The secret must already have
// been validated at startup; an empty one is a programming error.
func NewTokenService(secret []byte, accessTTL time.Duration) *TokenService {
	return &TokenService{secret: secret, accessTTL: accessTTL}
}

// AccessTTL returns the configured access token lifetime.
func (t *TokenService) AccessTTL() time.Duration {
	return t.accessTTL
}

// IssueAccess signs a short-lived access token for the user.
func (t *TokenService) IssueAccess(user *models.User) (string, error) {
	return t.issue(user, models.TokenAccess, t.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for the user.
func (t *TokenService) IssueRefresh(user *models.User) (string, error) {
	return t.issue(user, models.TokenRefresh, refreshTokenTTL)
}

func (t *TokenService) issue(user *models.User, typ models.TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &models.Claims{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates a token and checks that its type tag
// matches the expected one. Access and refresh tokens share a key, so
// the tag check is the only guard against cross-use.
func (t *TokenService) Verify(tokenString string, expected models.TokenType) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.TokenType != expected {
		return nil, ErrTokenTypeMismatch
	}

	return claims, nil
}

// DecodeUnsafe parses a token without verifying its signature or expiry.
// The result is advisory only (e.g. an "expiring soon" hint) and must
// never be treated as a trusted identity.
func (t *TokenService) DecodeUnsafe(tokenString string) *models.Claims {
	claims := &models.Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	return claims
}

// RemainingSeconds reports how long a token stays valid, without
// verifying it. Returns -1 when the token cannot be decoded.
func (t *TokenService) RemainingSeconds(tokenString string) int64 {
	claims := t.DecodeUnsafe(tokenString)
	if claims == nil || claims.ExpiresAt == nil {
		return -1
	}
	remaining := int64(time.Until(claims.ExpiresAt.Time).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
