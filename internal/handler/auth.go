package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abdcafe/backend/internal/middleware"
	"github.com/abdcafe/backend/internal/models"
	"github.com/abdcafe/backend/internal/repository"
	"github.com/abdcafe/backend/internal/service"
)

// AuthHandler exposes the authentication endpoints. It owns the mapping
// from the service layer's typed failures to HTTP status codes; nothing
// below this boundary knows about transport.
type AuthHandler interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Refresh(c *gin.Context)
	Me(c *gin.Context)
	Logout(c *gin.Context)
	ListUsers(c *gin.Context)
}

type authHandler struct {
	authService service.AuthService
	log         *zap.Logger
}

func NewAuthHandler(authService service.AuthService, log *zap.Logger) AuthHandler {
	return &authHandler{authService: authService, log: log}
}

func (h *authHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("username, email and password are required"))
		return
	}

	user, err := h.authService.Register(req)
	if err != nil {
		var policyErr *service.PolicyError
		switch {
		case errors.As(err, &policyErr):
			c.JSON(http.StatusBadRequest, models.Fail("password is too weak", policyErr.Details...))
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, models.Fail(err.Error()))
		case errors.Is(err, repository.ErrUsernameTaken), errors.Is(err, repository.ErrEmailTaken):
			c.JSON(http.StatusConflict, models.Fail(err.Error()))
		default:
			h.log.Error("Failed to register user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.Fail("internal server error"))
		}
		return
	}

	c.JSON(http.StatusCreated, models.OK("registration successful", gin.H{"user": user}))
}

func (h *authHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("username and password are required"))
		return
	}

	result, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, models.Fail(err.Error()))
		case errors.Is(err, service.ErrAccountDisabled):
			c.JSON(http.StatusUnauthorized, models.Fail("account is disabled, please contact an administrator"))
		default:
			h.log.Error("Failed to log user in", zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.Fail("internal server error"))
		}
		return
	}

	c.JSON(http.StatusOK, models.OK("login successful", result))
}

func (h *authHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("refresh token is required"))
		return
	}

	token, expiresIn, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired),
			errors.Is(err, service.ErrTokenMalformed),
			errors.Is(err, service.ErrTokenTypeMismatch),
			errors.Is(err, service.ErrStaleIdentity):
			c.JSON(http.StatusUnauthorized, models.Fail(err.Error()))
		default:
			h.log.Error("Failed to refresh token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.Fail("internal server error"))
		}
		return
	}

	c.JSON(http.StatusOK, models.OK("token refreshed", gin.H{
		"token":     token,
		"expiresIn": expiresIn,
	}))
}

func (h *authHandler) Me(c *gin.Context) {
	id, ok := c.Get(middleware.CtxUserID)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.Fail("authentication required"))
		return
	}

	user, err := h.authService.CurrentUser(id.(int64))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.Fail("user not found"))
			return
		}
		h.log.Error("Failed to load current user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.Fail("internal server error"))
		return
	}

	c.JSON(http.StatusOK, models.OK("ok", gin.H{"user": user}))
}

func (h *authHandler) Logout(c *gin.Context) {
	// Stateless logout: tokens stay valid until expiry, the call is an
	// acknowledgement for the client's session teardown.
	if v, ok := c.Get(middleware.CtxClaims); ok {
		h.authService.Logout(v.(*models.Claims))
	}
	c.JSON(http.StatusOK, models.OK("logout successful", nil))
}

func (h *authHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers()
	if err != nil {
		h.log.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.Fail("internal server error"))
		return
	}

	c.JSON(http.StatusOK, models.OK("ok", gin.H{"users": users}))
}
