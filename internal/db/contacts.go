package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/contactbook/contactbook/internal/models"
)

type ContactRepository struct {
	db *DB
}

func NewContactRepository(db *DB) *ContactRepository {
	return &ContactRepository{db: db}
}

const contactColumns = `id, first_name, last_name, phone_number, user_id, created_at, updated_at`

// parseIDs rejects ids that cannot name a row; callers treat that as a miss.
func parseIDs(ids ...string) ([]uuid.UUID, bool) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			return nil, false
		}
		out = append(out, u)
	}
	return out, true
}

func (r *ContactRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Contact, error) {
	ids, ok := parseIDs(ownerID)
	if !ok {
		return []*models.Contact{}, nil
	}

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id = $1 ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query, ids[0])
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

func (r *ContactRepository) GetOwned(ctx context.Context, id, ownerID string) (*models.Contact, error) {
	ids, ok := parseIDs(id, ownerID)
	if !ok {
		return nil, models.ErrContactNotFound
	}

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND user_id = $2`
	c, err := scanContact(r.db.QueryRowContext(ctx, query, ids[0], ids[1]))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrContactNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *ContactRepository) Exists(ctx context.Context, id string) (bool, error) {
	ids, ok := parseIDs(id)
	if !ok {
		return false, nil
	}

	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM contacts WHERE id = $1)`, ids[0]).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("probe contact: %w", err)
	}
	return exists, nil
}

func (r *ContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	ids, ok := parseIDs(contact.UserID)
	if !ok {
		return fmt.Errorf("create contact: invalid owner id %q", contact.UserID)
	}

	query := `
		INSERT INTO contacts (id, first_name, last_name, phone_number, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	id := uuid.New()
	_, err := r.db.ExecContext(ctx, query,
		id, contact.FirstName, contact.LastName, contact.PhoneNumber, ids[0], contact.CreatedAt, contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}

	contact.ID = id.String()
	return nil
}

// UpdateOwned writes the set fields of patch in one statement guarded by
// both id and owner.
func (r *ContactRepository) UpdateOwned(ctx context.Context, id, ownerID string, patch models.ContactPatch, at time.Time) error {
	ids, ok := parseIDs(id, ownerID)
	if !ok {
		return models.ErrContactNotFound
	}

	query := `
		UPDATE contacts
		SET first_name = COALESCE($3, first_name),
		    last_name = COALESCE($4, last_name),
		    phone_number = COALESCE($5, phone_number),
		    updated_at = $6
		WHERE id = $1 AND user_id = $2
	`

	res, err := r.db.ExecContext(ctx, query,
		ids[0], ids[1], patch.FirstName, patch.LastName, patch.PhoneNumber, at,
	)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return expectOneRow(res, "update contact")
}

func (r *ContactRepository) DeleteOwned(ctx context.Context, id, ownerID string) error {
	ids, ok := parseIDs(id, ownerID)
	if !ok {
		return models.ErrContactNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2`, ids[0], ids[1])
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return expectOneRow(res, "delete contact")
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return models.ErrContactNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*models.Contact, error) {
	var (
		c          models.Contact
		id, userID uuid.UUID
	)
	err := row.Scan(&id, &c.FirstName, &c.LastName, &c.PhoneNumber, &userID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan contact: %w", err)
	}
	c.ID = id.String()
	c.UserID = userID.String()
	return &c, nil
}
