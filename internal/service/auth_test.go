package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abdcafe/backend/internal/models"
	"github.com/abdcafe/backend/internal/repository"
)

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.messages = append(n.messages, message)
}

func newTestAuthService(t *testing.T) (AuthService, *repository.MemoryStore, *recordingNotifier) {
	t.Helper()
	store := repository.NewMemoryStore()
	tokens := NewTokenService([]byte("test-secret"), time.Hour)
	notifier := &recordingNotifier{}
	return NewAuthService(store, tokens, notifier, zap.NewNop()), store, notifier
}

func registerAlice(t *testing.T, svc AuthService) *models.UserResponse {
	t.Helper()
	user, err := svc.Register(models.RegisterRequest{
		Username: "alice",
		Email:    "a@x.com",
		Password: "Abc12345",
	})
	require.NoError(t, err)
	return user
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestAuthService(t)
	user := registerAlice(t, svc)

	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, 100.00, user.RemainingQuota)
	assert.NotEmpty(t, user.Avatar)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "alice")

	// The response never carries password material in any form.
	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "$2a$")
}

func TestAuthService_RegisterValidation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)

	cases := []struct {
		name string
		req  models.RegisterRequest
		want error
	}{
		{"short username", models.RegisterRequest{Username: "ab", Email: "a@x.com", Password: "Abc12345"}, ErrValidation},
		{"bad characters", models.RegisterRequest{Username: "al ice!", Email: "a@x.com", Password: "Abc12345"}, ErrValidation},
		{"bad email", models.RegisterRequest{Username: "alice", Email: "not-an-email", Password: "Abc12345"}, ErrValidation},
		{"unknown role", models.RegisterRequest{Username: "alice", Email: "a@x.com", Password: "Abc12345", Role: "root"}, ErrValidation},
		{"weak password", models.RegisterRequest{Username: "alice", Email: "a@x.com", Password: "abc"}, ErrWeakPassword},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAuthService_RegisterWeakPasswordDetails(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)

	_, err := svc.Register(models.RegisterRequest{
		Username: "alice",
		Email:    "a@x.com",
		Password: "abc",
	})
	var policyErr *PolicyError
	require.ErrorAs(t, err, &policyErr)
	assert.NotEmpty(t, policyErr.Details)
}

func TestAuthService_RegisterConflicts(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	registerAlice(t, svc)

	_, err := svc.Register(models.RegisterRequest{
		Username: "alice",
		Email:    "different@x.com",
		Password: "Abc12345",
	})
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)

	_, err = svc.Register(models.RegisterRequest{
		Username: "alice2",
		Email:    "a@x.com",
		Password: "Abc12345",
	})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}

func TestAuthService_RegisterAdminRole(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)

	user, err := svc.Register(models.RegisterRequest{
		Username: "boss",
		Email:    "boss@x.com",
		Password: "Abc12345",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestAuthService(t)
	user := registerAlice(t, svc)

	result, err := svc.Login("alice", "Abc12345")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.RefreshToken)
	assert.NotEqual(t, result.Token, result.RefreshToken)
	assert.Equal(t, int64(3600), result.ExpiresIn)
	assert.Equal(t, "alice", result.User.Username)

	// Login stamps lastLoginAt.
	stored, err := store.FindByID(user.ID)
	require.NoError(t, err)
	assert.False(t, stored.LastLoginAt.IsZero())
}

func TestAuthService_LoginFailuresIndistinguishable(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	registerAlice(t, svc)

	_, unknownErr := svc.Login("nobody", "Abc12345")
	_, wrongErr := svc.Login("alice", "wrong-password")

	// Unknown username and wrong password must be the same failure, or
	// the login endpoint becomes a username oracle.
	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestAuthService_LoginDisabledAccount(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestAuthService(t)
	user := registerAlice(t, svc)
	require.NoError(t, store.Deactivate(user.ID))

	_, err := svc.Login("alice", "Abc12345")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestAuthService_Refresh(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	registerAlice(t, svc)

	result, err := svc.Login("alice", "Abc12345")
	require.NoError(t, err)

	token, expiresIn, err := svc.Refresh(result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int64(3600), expiresIn)
}

func TestAuthService_RefreshRejectsAccessToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	registerAlice(t, svc)

	result, err := svc.Login("alice", "Abc12345")
	require.NoError(t, err)

	_, _, err = svc.Refresh(result.Token)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)
}

func TestAuthService_RefreshStaleIdentity(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestAuthService(t)
	user := registerAlice(t, svc)

	result, err := svc.Login("alice", "Abc12345")
	require.NoError(t, err)

	require.NoError(t, store.Deactivate(user.ID))

	_, _, err = svc.Refresh(result.RefreshToken)
	assert.ErrorIs(t, err, ErrStaleIdentity)
}

func TestAuthService_CurrentUser(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestAuthService(t)
	user := registerAlice(t, svc)

	got, err := svc.CurrentUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	require.NoError(t, store.Deactivate(user.ID))
	_, err = svc.CurrentUser(user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAuthService_ListUsers(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestAuthService(t)
	registerAlice(t, svc)
	bob, err := svc.Register(models.RegisterRequest{
		Username: "bob",
		Email:    "b@x.com",
		Password: "Abc12345",
	})
	require.NoError(t, err)
	require.NoError(t, store.Deactivate(bob.ID))

	users, err := svc.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}
