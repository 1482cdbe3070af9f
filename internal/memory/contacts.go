package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/contactbook/contactbook/internal/models"
)

// ContactStore keeps contacts in insertion order.
type ContactStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*models.Contact
}

func NewContactStore() *ContactStore {
	return &ContactStore{byID: make(map[string]*models.Contact)}
}

func (s *ContactStore) ListByOwner(_ context.Context, ownerID string) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.Contact{}
	for _, id := range s.order {
		c := s.byID[id]
		if c.UserID == ownerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *ContactStore) GetOwned(_ context.Context, id, ownerID string) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok || c.UserID != ownerID {
		return nil, models.ErrContactNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *ContactStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byID[id]
	return ok, nil
}

func (s *ContactStore) Create(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	cp := *contact
	s.byID[contact.ID] = &cp
	s.order = append(s.order, contact.ID)
	return nil
}

func (s *ContactStore) UpdateOwned(_ context.Context, id, ownerID string, patch models.ContactPatch, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok || c.UserID != ownerID {
		return models.ErrContactNotFound
	}
	patch.Apply(c)
	c.UpdatedAt = at
	return nil
}

func (s *ContactStore) DeleteOwned(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok || c.UserID != ownerID {
		return models.ErrContactNotFound
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *ContactStore) Ping(context.Context) error { return nil }
