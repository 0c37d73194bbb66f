package handler_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/utils"
)

// In-memory store fakes standing in for the MySQL repositories. They mirror
// the repository semantics the handlers rely on: normalized emails, sentinel
// errors and hashing inside user creation.

type memUserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[uint64]model.User{}}
}

func (s *memUserStore) Create(_ context.Context, p repository.CreateUserParams, cost int) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(p.Email))
	for _, u := range s.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(p.Password, cost)
	if err != nil {
		return 0, err
	}

	s.nextID++
	now := time.Now().UTC()
	s.users[s.nextID] = model.User{
		ID:           s.nextID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        email,
		PasswordHash: hash,
		Role:         p.Role,
		TenantID:     p.TenantID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.nextID, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *memUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *memUserStore) Update(_ context.Context, id uint64, p repository.UpdateUserParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.FirstName = p.FirstName
	u.LastName = p.LastName
	u.Email = strings.ToLower(strings.TrimSpace(p.Email))
	u.Role = p.Role
	u.TenantID = p.TenantID
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

func (s *memUserStore) List(_ context.Context, q repository.UserQuery) ([]model.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []model.User
	for id := uint64(1); id <= s.nextID; id++ {
		u, ok := s.users[id]
		if !ok {
			continue
		}
		if q.Q != "" && !strings.Contains(u.FirstName+" "+u.LastName, q.Q) && !strings.Contains(u.Email, q.Q) {
			continue
		}
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		all = append(all, u)
	}
	return paginate(all, q.PerPage, q.CurrentPage), len(all), nil
}

func (s *memUserStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type memTenantStore struct {
	mu      sync.Mutex
	nextID  uint64
	tenants map[uint64]model.Tenant
}

func newMemTenantStore() *memTenantStore {
	return &memTenantStore{tenants: map[uint64]model.Tenant{}}
}

func (s *memTenantStore) Create(_ context.Context, name, address string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now().UTC()
	s.tenants[s.nextID] = model.Tenant{ID: s.nextID, Name: name, Address: address, CreatedAt: now, UpdatedAt: now}
	return s.nextID, nil
}

func (s *memTenantStore) GetByID(_ context.Context, id uint64) (model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[id]
	if !ok {
		return model.Tenant{}, repository.ErrNotFound
	}
	return t, nil
}

func (s *memTenantStore) Update(_ context.Context, id uint64, name, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Name = name
	t.Address = address
	t.UpdatedAt = time.Now().UTC()
	s.tenants[id] = t
	return nil
}

func (s *memTenantStore) List(_ context.Context, q repository.TenantQuery) ([]model.Tenant, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []model.Tenant
	for id := uint64(1); id <= s.nextID; id++ {
		t, ok := s.tenants[id]
		if !ok {
			continue
		}
		if q.Q != "" && !strings.Contains(t.Name, q.Q) {
			continue
		}
		all = append(all, t)
	}
	return paginate(all, q.PerPage, q.CurrentPage), len(all), nil
}

func (s *memTenantStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.tenants, id)
	return nil
}

type memTokenStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.RefreshToken
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{rows: map[uint64]model.RefreshToken{}}
}

func (s *memTokenStore) Create(_ context.Context, userID uint64, expiresAt time.Time) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.rows[s.nextID] = model.RefreshToken{ID: s.nextID, UserID: userID, ExpiresAt: expiresAt, CreatedAt: time.Now().UTC()}
	return s.nextID, nil
}

func (s *memTokenStore) GetByID(_ context.Context, id uint64) (model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || time.Now().UTC().After(row.ExpiresAt) {
		return model.RefreshToken{}, repository.ErrNotFound
	}
	return row, nil
}

func (s *memTokenStore) DeleteByID(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rows, id)
	return nil
}

func (s *memTokenStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func paginate[T any](all []T, perPage, page int) []T {
	if perPage < 1 {
		perPage = 10
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(all) {
		return []T{}
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
