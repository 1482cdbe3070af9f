package contacts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/contactbook/contactbook/internal/auth"
	apperrors "github.com/contactbook/contactbook/internal/errors"
	"github.com/contactbook/contactbook/internal/logger"
	"github.com/contactbook/contactbook/internal/metrics"
	"github.com/contactbook/contactbook/internal/models"
	"github.com/contactbook/contactbook/internal/validation"
)

// Store persists contacts. Every single-contact operation is scoped by
// owner in one store call; ErrContactNotFound is returned when no contact
// matches both the id and the owner.
type Store interface {
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Contact, error)
	GetOwned(ctx context.Context, id, ownerID string) (*models.Contact, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, contact *models.Contact) error
	UpdateOwned(ctx context.Context, id, ownerID string, patch models.ContactPatch, at time.Time) error
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

// DisclosurePolicy decides what a caller learns about contacts owned by
// someone else on the write paths. Reads always answer 404.
type DisclosurePolicy string

const (
	// DistinguishForeign answers 403 for an existing foreign contact and
	// 404 for a missing one.
	DistinguishForeign DisclosurePolicy = "distinguish"
	// UniformNotFound answers 404 in both cases.
	UniformNotFound DisclosurePolicy = "uniform"
)

// CreateInput is the body of a create request.
type CreateInput struct {
	FirstName   string `json:"firstName" validate:"required,notblank,max=255"`
	LastName    string `json:"lastName" validate:"required,notblank,max=255"`
	PhoneNumber string `json:"phoneNumber" validate:"required,notblank,max=64"`
}

// UpdateResult reports the fields an update actually persisted.
type UpdateResult struct {
	Changed       bool
	UpdatedFields map[string]string
}

type Service struct {
	store   Store
	cache   ListCache
	policy  DisclosurePolicy
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time
}

type ServiceConfig struct {
	Store   Store
	Cache   ListCache
	Policy  DisclosurePolicy
	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

func NewService(cfg ServiceConfig) *Service {
	policy := cfg.Policy
	if policy == "" {
		policy = DistinguishForeign
	}
	c := cfg.Cache
	if c == nil {
		c = noopCache{}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		store:   cfg.Store,
		cache:   c,
		policy:  policy,
		metrics: cfg.Metrics,
		log:     log.WithComponent("contacts"),
		now:     time.Now,
	}
}

func notFound(id string) *apperrors.AppError {
	return apperrors.NotFound("Could not find contact", fmt.Sprintf("Could not find contact with id %s", id))
}

func notOwned() *apperrors.AppError {
	return apperrors.Forbidden(
		"Access denied: this contact does not belong to the authenticated user.",
		"You are not authorized to perform this action on this contact.",
	)
}

// List returns every contact owned by the caller in insertion order.
func (s *Service) List(ctx context.Context, caller *auth.CallerIdentity) ([]*models.Contact, error) {
	if cached, ok := s.cache.Get(ctx, caller.UserID); ok {
		return cached, nil
	}

	list, err := s.store.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, s.internal(ctx, "list contacts failed", err)
	}
	if list == nil {
		list = []*models.Contact{}
	}

	s.cache.Set(ctx, caller.UserID, list)
	return list, nil
}

// Get returns one contact of the caller. Foreign and missing contacts are
// indistinguishable.
func (s *Service) Get(ctx context.Context, caller *auth.CallerIdentity, id string) (*models.Contact, error) {
	c, err := s.store.GetOwned(ctx, id, caller.UserID)
	if err != nil {
		if errors.Is(err, models.ErrContactNotFound) {
			return nil, notFound(id)
		}
		return nil, s.internal(ctx, "get contact failed", err)
	}
	return c, nil
}

// Create stores a new contact owned by the caller.
func (s *Service) Create(ctx context.Context, caller *auth.CallerIdentity, in CreateInput) (*models.Contact, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &models.Contact{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		UserID:      caller.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, s.internal(ctx, "create contact failed", err)
	}

	s.cache.Invalidate(ctx, caller.UserID)
	s.metrics.RecordContactMutation("create")
	return c, nil
}

// Update applies the fields of patch that differ from the stored contact.
// An empty diff persists nothing and reports Changed == false.
func (s *Service) Update(ctx context.Context, caller *auth.CallerIdentity, id string, patch models.ContactPatch) (*UpdateResult, error) {
	if err := validation.Validate(patch); err != nil {
		return nil, err
	}

	current, err := s.store.GetOwned(ctx, id, caller.UserID)
	if err != nil {
		if errors.Is(err, models.ErrContactNotFound) {
			return nil, s.classifyMiss(ctx, id)
		}
		return nil, s.internal(ctx, "get contact failed", err)
	}

	diff := patch.Diff(current)
	if diff.IsEmpty() {
		return &UpdateResult{Changed: false, UpdatedFields: map[string]string{}}, nil
	}

	if err := s.store.UpdateOwned(ctx, id, caller.UserID, diff, s.now().UTC()); err != nil {
		if errors.Is(err, models.ErrContactNotFound) {
			// Deleted between the read and the write.
			return nil, notFound(id)
		}
		return nil, s.internal(ctx, "update contact failed", err)
	}

	s.cache.Invalidate(ctx, caller.UserID)
	s.metrics.RecordContactMutation("update")
	return &UpdateResult{Changed: true, UpdatedFields: diff.Fields()}, nil
}

// Delete removes a contact of the caller permanently.
func (s *Service) Delete(ctx context.Context, caller *auth.CallerIdentity, id string) error {
	if err := s.store.DeleteOwned(ctx, id, caller.UserID); err != nil {
		if errors.Is(err, models.ErrContactNotFound) {
			return s.classifyMiss(ctx, id)
		}
		return s.internal(ctx, "delete contact failed", err)
	}

	s.cache.Invalidate(ctx, caller.UserID)
	s.metrics.RecordContactMutation("delete")
	s.log.Info(ctx, "contact deleted", zap.String("contact_id", id), zap.String("user_id", caller.UserID))
	return nil
}

// classifyMiss explains why an owner-scoped write matched nothing.
func (s *Service) classifyMiss(ctx context.Context, id string) error {
	if s.policy == UniformNotFound {
		return notFound(id)
	}
	exists, err := s.store.Exists(ctx, id)
	if err != nil {
		return s.internal(ctx, "probe contact failed", err)
	}
	if exists {
		return notOwned()
	}
	return notFound(id)
}

func (s *Service) internal(ctx context.Context, msg string, err error) error {
	s.log.Error(ctx, msg, err)
	return apperrors.InternalError("Internal Server Error").WithCause(err)
}
