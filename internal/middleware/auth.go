package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abdcafe/backend/internal/models"
	"github.com/abdcafe/backend/internal/repository"
	"github.com/abdcafe/backend/internal/service"
)

// Context keys under which the auth gate publishes the verified
// identity. Downstream handlers must read identity from here and
// nowhere else.
const (
	CtxUserID   = "userID"
	CtxUsername = "username"
	CtxRole     = "role"
	CtxClaims   = "claims"
)

// Authenticate creates the strict auth gate: it extracts the bearer
// token, verifies it as an access token, re-fetches the subject from
// the store and attaches the identity to the request context. A token
// that is still cryptographically valid is rejected once its subject
// has been deactivated.
func Authenticate(tokens *service.TokenService, store repository.UserStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := resolveIdentity(c, tokens, store)
		if err != nil {
			logger.Debug("Request rejected by auth gate", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.Fail(err.Error()))
			return
		}

		attachIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuthenticate performs the same checks as Authenticate but
// proceeds unauthenticated instead of rejecting. Used for endpoints
// that behave differently for logged-in callers without requiring
// login.
func OptionalAuthenticate(tokens *service.TokenService, store repository.UserStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := resolveIdentity(c, tokens, store)
		if err == nil {
			attachIdentity(c, claims)
		} else {
			logger.Debug("Optional authentication skipped", zap.Error(err))
		}
		c.Next()
	}
}

// RequireRoles gates an endpoint to the given roles. It composes after
// Authenticate; without an attached identity it rejects with 401 rather
// than 403, so it cannot be used to skip the auth gate.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxRole)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.Fail("authentication required"))
			return
		}

		role := v.(models.Role)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, models.Fail("insufficient permissions"))
	}
}

var errMissingToken = errors.New("missing or malformed authorization header")

func resolveIdentity(c *gin.Context, tokens *service.TokenService, store repository.UserStore) (*models.Claims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, errMissingToken
	}

	// The header must be exactly "Bearer <token>".
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errMissingToken
	}

	claims, err := tokens.Verify(parts[1], models.TokenAccess)
	if err != nil {
		return nil, err
	}

	// The token alone is not enough: the subject must still exist and
	// be active right now.
	if _, err := store.FindByID(claims.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, service.ErrStaleIdentity
		}
		return nil, err
	}

	return claims, nil
}

func attachIdentity(c *gin.Context, claims *models.Claims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxUsername, claims.Username)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxClaims, claims)

	c.Header("X-User-ID", strconv.FormatInt(claims.UserID, 10))
	c.Header("X-User-Role", string(claims.Role))
}
