package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"puantajx-functions/pkg/models"
)

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]*models.User
	tokens map[string]string
	calls  []string

	// DeleteErr, when set, is returned by DeleteUser.
	DeleteErr error
	// KeepOnDelete makes DeleteUser report success without removing the user.
	KeepOnDelete bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]*models.User),
		tokens: make(map[string]string),
	}
}

// AddUser stores user and makes token resolve to it.
func (m *MemoryStore) AddUser(user models.User, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := user
	m.users[u.ID] = &u
	if token != "" {
		m.tokens[token] = u.ID
	}
}

// HasUser reports whether id is still stored.
func (m *MemoryStore) HasUser(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[id]
	return ok
}

// Calls returns the names of the invoked operations in order.
func (m *MemoryStore) Calls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(u.Metadata))
		for k, v := range u.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// VerifyToken implements Store.
func (m *MemoryStore) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "verify")

	id, ok := m.tokens[token]
	if !ok {
		return nil, &APIError{Status: 401, Code: "bad_jwt", Message: "invalid JWT"}
	}
	u, ok := m.users[id]
	if !ok {
		return nil, &APIError{Status: 403, Code: "user_not_found", Message: "User from sub claim in JWT does not exist"}
	}
	return cloneUser(u), nil
}

// CreateUser implements Store.
func (m *MemoryStore) CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "create")

	for _, u := range m.users {
		if strings.EqualFold(u.Email, params.Email) {
			return nil, &APIError{Status: 422, Code: "email_exists", Message: "A user with this email address has already been registered"}
		}
	}

	now := time.Now().UTC()
	u := &models.User{
		ID:        uuid.NewString(),
		Email:     params.Email,
		Metadata:  params.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if params.EmailConfirm {
		u.EmailConfirmedAt = &now
	}
	m.users[u.ID] = u
	return cloneUser(u), nil
}

// DeleteUser implements Store.
func (m *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "delete")

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.users[id]; !ok {
		return &APIError{Status: 404, Code: "user_not_found", Message: "User not found"}
	}
	if !m.KeepOnDelete {
		delete(m.users, id)
	}
	return nil
}

// GetUserByID implements Store.
func (m *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "get")

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}
