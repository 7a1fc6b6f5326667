package repository

import (
	"errors"

	"github.com/abdcafe/backend/internal/models"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
)

// UserStore is the credential store contract. FindByID and FindByUsername
// filter to active accounts; FindByUsernameAny does not, so the login
// flow can tell a disabled account from an unknown one. Uniqueness of
// username and email is enforced against all records, active or not.
// Deactivation is a soft delete and never frees an identity.
type UserStore interface {
	Create(user *models.User) error
	FindByID(id int64) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByUsernameAny(username string) (*models.User, error)
	TouchLogin(id int64) error
	UpdateQuota(id int64, amount float64) error
	Deactivate(id int64) error
	ListActive() ([]*models.User, error)
}
