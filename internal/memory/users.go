// Package memory provides process-local stores. They back the test suite
// and the "memory" store driver.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/contactbook/contactbook/internal/models"
)

type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return fmt.Errorf("create user %s: %w", user.Email, models.ErrEmailExists)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	stored := *user
	s.byID[user.ID] = &stored
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	u := *s.byID[id]
	return &u, nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return models.ErrUserNotFound
	}
	t := at
	u.LastLogin = &t
	return nil
}

func (s *UserStore) Ping(context.Context) error { return nil }
