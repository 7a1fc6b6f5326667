package repository

import (
	"sync"
	"time"

	"github.com/abdcafe/backend/internal/models"
)

// MemoryStore keeps user records in process memory. It is the reference
// backend for single-instance deployments; PostgresStore implements the
// same contract for durable ones. All methods return copies so callers
// can never mutate stored records without going through the store.
type MemoryStore struct {
	mu         sync.Mutex
	users      []*models.User
	byUsername map[string]*models.User
	byEmail    map[string]*models.User
	nextID     int64
}

// NewMemoryStore creates an empty in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byUsername: make(map[string]*models.User),
		byEmail:    make(map[string]*models.User),
		nextID:     1,
	}
}

func (s *MemoryStore) Create(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Uniqueness is checked against every record, including deactivated
	// ones, under the same lock that inserts.
	if _, ok := s.byUsername[user.Username]; ok {
		return ErrUsernameTaken
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return ErrEmailTaken
	}

	now := time.Now()
	stored := *user
	stored.ID = s.nextID
	stored.IsActive = true
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.nextID++

	s.users = append(s.users, &stored)
	s.byUsername[stored.Username] = &stored
	s.byEmail[stored.Email] = &stored

	*user = stored
	return nil
}

func (s *MemoryStore) FindByID(id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID == id && u.IsActive {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindByUsername(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byUsername[username]
	if !ok || !u.IsActive {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) FindByUsernameAny(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) TouchLogin(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.lookup(id)
	if err != nil {
		return err
	}
	now := time.Now()
	u.LastLoginAt = now
	u.UpdatedAt = now
	return nil
}

func (s *MemoryStore) UpdateQuota(id int64, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.lookup(id)
	if err != nil {
		return err
	}
	u.RemainingQuota = amount
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Deactivate(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.lookup(id)
	if err != nil {
		return err
	}
	u.IsActive = false
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ListActive() ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.User
	for _, u := range s.users {
		if u.IsActive {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

// lookup finds a record by ID regardless of activation state.
// Callers must hold s.mu.
func (s *MemoryStore) lookup(id int64) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}
