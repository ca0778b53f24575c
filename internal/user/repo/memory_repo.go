package repo

import (
	"context"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

type memoryRow struct {
	user         entity.User
	passwordHash *string
}

// MemoryRepo is an in-process user store with the same contract as UserRepo,
// including the unique-email guarantee. Used for local runs and tests.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]*memoryRow
	byEmail map[string]string
	newID   func() string
	now     func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]*memoryRow),
		byEmail: make(map[string]string),
		newID:   utilities.NewSnowflakeID,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryRepo) Create(_ context.Context, in entity.NewUser) (*entity.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[in.Email]; ok {
		return nil, entity.ErrEmailTaken
	}
	now := m.now()
	row := &memoryRow{
		user: entity.User{
			ID:        m.newID(),
			Name:      in.Name,
			Email:     in.Email,
			Role:      in.Role,
			GoogleID:  cloneStr(in.GoogleID),
			PhotoURL:  cloneStr(in.PhotoURL),
			CreatedAt: now,
			UpdatedAt: now,
		},
		passwordHash: cloneStr(in.PasswordHash),
	}
	m.byID[row.user.ID] = row
	m.byEmail[in.Email] = row.user.ID
	u := copyUser(row.user)
	return &u, nil
}

func (m *MemoryRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.lookupEmail(email)
	if !ok {
		return nil, entity.ErrNotFound
	}
	u := copyUser(row.user)
	return &u, nil
}

func (m *MemoryRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.byID[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	u := copyUser(row.user)
	return &u, nil
}

func (m *MemoryRepo) FindCredentialsByEmail(_ context.Context, email string) (*entity.Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.lookupEmail(email)
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &entity.Credentials{User: copyUser(row.user), PasswordHash: cloneStr(row.passwordHash)}, nil
}

func (m *MemoryRepo) FindIdentityByID(_ context.Context, id string) (*entity.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.byID[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &entity.Identity{Name: row.user.Name, Email: row.user.Email, Role: row.user.Role}, nil
}

func (m *MemoryRepo) LinkProvider(_ context.Context, id, googleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.byID[id]
	if !ok {
		return entity.ErrNotFound
	}
	row.user.GoogleID = &googleID
	row.user.UpdatedAt = m.now()
	return nil
}

// Delete removes a user. Not part of the directory contract; lets tests
// simulate out-of-band deletion.
func (m *MemoryRepo) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.byID[id]; ok {
		delete(m.byEmail, row.user.Email)
		delete(m.byID, id)
	}
}

func (m *MemoryRepo) lookupEmail(email string) (*memoryRow, bool) {
	id, ok := m.byEmail[email]
	if !ok {
		return nil, false
	}
	row, ok := m.byID[id]
	return row, ok
}

func copyUser(u entity.User) entity.User {
	u.GoogleID = cloneStr(u.GoogleID)
	u.PhotoURL = cloneStr(u.PhotoURL)
	u.Description = cloneStr(u.Description)
	return u
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
