package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/dom/techxchange/internal/domain"
	"github.com/dom/techxchange/internal/repository"
	"github.com/google/uuid"
)

// MemoryUserRepository is an in-memory repository.UserRepository with the
// same uniqueness rules as the Postgres schema. It hands out copies so
// callers cannot mutate stored records.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User

	// Err, when set, is returned by every method.
	Err error
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uuid.UUID]domain.User)}
}

var _ repository.UserRepository = (*MemoryUserRepository)(nil)

func (m *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	for _, u := range m.users {
		if u.ID == user.ID || u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *MemoryUserRepository) GetIdentity(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return u, nil
}

func (m *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MemoryUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return false, m.Err
	}

	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var out []*domain.User
	for _, u := range m.users {
		if u.Role == role {
			u := u
			u.PasswordHash = ""
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *MemoryUserRepository) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return int64(len(m.users)), nil
}

func (m *MemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, u := range m.users {
		if id != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return repository.ErrDuplicate
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// SetErr swaps the injected error under the lock.
func (m *MemoryUserRepository) SetErr(err error) {
	m.mu.Lock()
	m.Err = err
	m.mu.Unlock()
}
