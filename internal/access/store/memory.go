package store

import (
	"context"
	"strings"
	"sync"

	"github.com/relaysuite/trustcore/internal/access/domain"
)

// Memory is an in-memory UserRepository for tests and single-process use.
// Safe for concurrent access.
type Memory struct {
	mu      sync.RWMutex
	users   map[int64]*domain.User
	tenants map[int64]*domain.Tenant
	apiKeys map[string]int64 // fingerprint -> user id
	nextID  int64
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[int64]*domain.User),
		tenants: make(map[int64]*domain.Tenant),
		apiKeys: make(map[string]int64),
	}
}

// AddTenant registers a tenant, assigning an id if it has none.
func (m *Memory) AddTenant(t domain.Tenant) domain.Tenant {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == 0 {
		m.nextID++
		t.ID = m.nextID
	}
	m.tenants[t.ID] = &t
	return t
}

// AddUser registers a user, assigning an id if it has none.
func (m *Memory) AddUser(u domain.User) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.ID == 0 {
		m.nextID++
		u.ID = m.nextID
	}
	u.Tenant = nil // always resolved at read time
	m.users[u.ID] = &u
	return u
}

// AddAPIKey binds an API key fingerprint to a user.
func (m *Memory) AddAPIKey(fingerprint string, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKeys[fingerprint] = userID
}

func (m *Memory) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.resolve(u), nil
}

func (m *Memory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return m.resolve(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindByAPIKey(ctx context.Context, fingerprint string) (domain.Principal, error) {
	if err := ctx.Err(); err != nil {
		return domain.Principal{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.apiKeys[fingerprint]
	if !ok {
		return domain.Principal{}, ErrNotFound
	}
	u, ok := m.users[id]
	if !ok {
		return domain.Principal{}, ErrNotFound
	}
	return u.Principal(), nil
}

func (m *Memory) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

// resolve returns a copy of the user with its tenant attached, so callers
// can't mutate repository state through the pointer.
func (m *Memory) resolve(u *domain.User) *domain.User {
	out := *u
	if t, ok := m.tenants[u.TenantID]; ok {
		tenant := *t
		out.Tenant = &tenant
	}
	return &out
}
