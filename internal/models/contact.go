package models

import (
	"errors"
	"time"
)

var ErrContactNotFound = errors.New("contact not found")

// Contact is a phone book entry. UserID is the owner and never changes
// after creation.
type Contact struct {
	ID          string    `json:"_id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	PhoneNumber string    `json:"phoneNumber"`
	UserID      string    `json:"user"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ContactPatch holds the fields of a partial update. Nil means "not sent"
// and an empty string is ignored; anything else must be a usable value.
type ContactPatch struct {
	FirstName   *string `json:"firstName,omitempty" validate:"omitempty,notblank,max=255"`
	LastName    *string `json:"lastName,omitempty" validate:"omitempty,notblank,max=255"`
	PhoneNumber *string `json:"phoneNumber,omitempty" validate:"omitempty,notblank,max=64"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ContactPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.PhoneNumber == nil
}

// Diff returns the subset of p that is non-empty and differs from c.
func (p ContactPatch) Diff(c *Contact) ContactPatch {
	var d ContactPatch
	if p.FirstName != nil && *p.FirstName != "" && *p.FirstName != c.FirstName {
		d.FirstName = p.FirstName
	}
	if p.LastName != nil && *p.LastName != "" && *p.LastName != c.LastName {
		d.LastName = p.LastName
	}
	if p.PhoneNumber != nil && *p.PhoneNumber != "" && *p.PhoneNumber != c.PhoneNumber {
		d.PhoneNumber = p.PhoneNumber
	}
	return d
}

// Apply copies the set fields of p onto c.
func (p ContactPatch) Apply(c *Contact) {
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.PhoneNumber != nil {
		c.PhoneNumber = *p.PhoneNumber
	}
}

// Fields renders the set fields as a JSON-friendly map.
func (p ContactPatch) Fields() map[string]string {
	m := make(map[string]string, 3)
	if p.FirstName != nil {
		m["firstName"] = *p.FirstName
	}
	if p.LastName != nil {
		m["lastName"] = *p.LastName
	}
	if p.PhoneNumber != nil {
		m["phoneNumber"] = *p.PhoneNumber
	}
	return m
}
