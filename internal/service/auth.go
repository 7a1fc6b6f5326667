package service

import (
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/abdcafe/backend/internal/crypto"
	"github.com/abdcafe/backend/internal/models"
	"github.com/abdcafe/backend/internal/repository"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// PolicyError wraps ErrWeakPassword with the policy's individual
// complaints so the handler can report them to the client.
type PolicyError struct {
	Details []string
}

func (e *PolicyError) Error() string { return ErrWeakPassword.Error() }
func (e *PolicyError) Unwrap() error { return ErrWeakPassword }

// Notifier delivers out-of-band notifications about auth events.
// A nil Notifier disables them.
type Notifier interface {
	Notify(message string)
}

// AuthService implements registration, login, token refresh and the
// identity lookups behind the protected endpoints.
type AuthService interface {
	Register(req models.RegisterRequest) (*models.UserResponse, error)
	Login(username, password string) (*models.LoginResult, error)
	Refresh(refreshToken string) (string, int64, error)
	CurrentUser(id int64) (*models.UserResponse, error)
	ListUsers() ([]*models.UserResponse, error)
	Logout(claims *models.Claims)
}

type authService struct {
	store    repository.UserStore
	tokens   *TokenService
	notifier Notifier
	logger   *zap.Logger
}

// NewAuthService wires the auth flows to a credential store and a token
// service. notifier may be nil.
func NewAuthService(store repository.UserStore, tokens *TokenService, notifier Notifier, logger *zap.Logger) AuthService {
	return &authService{
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *authService) Register(req models.RegisterRequest) (*models.UserResponse, error) {
	if !usernameRegex.MatchString(req.Username) {
		return nil, fmt.Errorf("%w: username must be 3-20 characters of letters, digits or underscores", ErrValidation)
	}
	if !emailRegex.MatchString(req.Email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}

	// The strength gate applies to new passwords only. Login keeps
	// accepting whatever hash is already stored.
	if strength := crypto.ValidatePasswordStrength(req.Password); !strength.Valid {
		return nil, &PolicyError{Details: strength.Errors}
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   hash,
		Role:           role,
		Avatar:         models.AvatarURL(req.Username),
		RemainingQuota: 100.00,
	}

	if err := s.store.Create(user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) || errors.Is(err, repository.ErrEmailTaken) {
			return nil, err
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)
	if s.notifier != nil {
		s.notifier.Notify(fmt.Sprintf("New registration: %s (#%d, %s)", user.Username, user.ID, user.Role))
	}

	return user.ToResponse(), nil
}

func (s *authService) Login(username, password string) (*models.LoginResult, error) {
	user, err := s.store.FindByUsernameAny(username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same failure as a wrong password, on purpose.
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Failed to look up user", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if !crypto.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	accessToken, err := s.tokens.IssueAccess(user)
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err))
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	refreshToken, err := s.tokens.IssueRefresh(user)
	if err != nil {
		s.logger.Error("Failed to sign refresh token", zap.Error(err))
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.store.TouchLogin(user.ID); err != nil {
		s.logger.Warn("Failed to record login time", zap.Int64("id", user.ID), zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.Int64("id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)

	return &models.LoginResult{
		User:         user.ToResponse(),
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func (s *authService) Refresh(refreshToken string) (string, int64, error) {
	claims, err := s.tokens.Verify(refreshToken, models.TokenRefresh)
	if err != nil {
		return "", 0, err
	}

	// The refresh token may outlive the account; re-check the subject.
	user, err := s.store.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", 0, ErrStaleIdentity
		}
		s.logger.Error("Failed to look up user", zap.Error(err))
		return "", 0, fmt.Errorf("failed to retrieve user: %w", err)
	}

	accessToken, err := s.tokens.IssueAccess(user)
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err))
		return "", 0, fmt.Errorf("failed to generate token: %w", err)
	}

	return accessToken, int64(s.tokens.AccessTTL().Seconds()), nil
}

func (s *authService) CurrentUser(id int64) (*models.UserResponse, error) {
	user, err := s.store.FindByID(id)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

func (s *authService) ListUsers() ([]*models.UserResponse, error) {
	users, err := s.store.ListActive()
	if err != nil {
		return nil, err
	}
	out := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return out, nil
}

// Logout is advisory: tokens are stateless and stay valid until expiry.
func (s *authService) Logout(claims *models.Claims) {
	if claims == nil {
		return
	}
	s.logger.Info("User logged out",
		zap.Int64("id", claims.UserID),
		zap.String("username", claims.Username),
	)
}
