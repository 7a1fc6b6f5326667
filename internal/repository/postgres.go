package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/abdcafe/backend/internal/models"
)

// PostgresStore is the durable UserStore backend. Uniqueness is enforced
// by the unique indexes created in the migrations, so concurrent
// registrations race safely inside the database.
type PostgresStore struct {
	db  *sqlx.DB
	log *zap.Logger
}

// NewPostgresStore creates a UserStore backed by the given database.
func NewPostgresStore(db *sqlx.DB, log *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

func (s *PostgresStore) Create(user *models.User) error {
	query := `INSERT INTO users (username, email, password_hash, role, avatar, remaining_quota, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, TRUE)
	          RETURNING id, is_active, created_at, updated_at, last_login_at`
	err := s.db.QueryRowx(query,
		user.Username, user.Email, user.PasswordHash, user.Role, user.Avatar, user.RemainingQuota,
	).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt)
	if err != nil {
		return translateConflict(err)
	}
	return nil
}

func (s *PostgresStore) FindByID(id int64) (*models.User, error) {
	var user models.User
	err := s.db.Get(&user, `SELECT * FROM users WHERE id = $1 AND is_active`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) FindByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.db.Get(&user, `SELECT * FROM users WHERE username = $1 AND is_active`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) FindByUsernameAny(username string) (*models.User, error) {
	var user models.User
	err := s.db.Get(&user, `SELECT * FROM users WHERE username = $1`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) TouchLogin(id int64) error {
	return s.exec(`UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
}

func (s *PostgresStore) UpdateQuota(id int64, amount float64) error {
	return s.exec(`UPDATE users SET remaining_quota = $2, updated_at = NOW() WHERE id = $1`, id, amount)
}

func (s *PostgresStore) Deactivate(id int64) error {
	return s.exec(`UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
}

func (s *PostgresStore) ListActive() ([]*models.User, error) {
	var users []*models.User
	if err := s.db.Select(&users, `SELECT * FROM users WHERE is_active ORDER BY id`); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *PostgresStore) exec(query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// translateConflict maps unique-index violations onto the store's
// conflict sentinels.
func translateConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if strings.Contains(pqErr.Constraint, "email") {
			return ErrEmailTaken
		}
		return ErrUsernameTaken
	}
	return err
}
