package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/referents-ia/portail/internal/db"
)

// Store provides CRUD operations for reference contacts.
type Store struct {
	db *db.DB
}

// NewStore creates a new contacts store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

const contactColumns = `id, name, email, phone, organization, contact_type, region, description, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(row scanner) (*Contact, error) {
	var c Contact
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Organization, &c.ContactType,
		&c.Region, &c.Description, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new contact.
func (s *Store) Create(ctx context.Context, c *Contact) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reference_contacts (`+contactColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Phone, c.Organization, c.ContactType, c.Region, c.Description, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating contact: %w", err)
	}
	return nil
}

// GetByID returns a contact, or nil if it does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*Contact, error) {
	c, err := scanContact(s.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM reference_contacts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting contact: %w", err)
	}
	return c, nil
}

// List returns contacts matching f, ordered by name.
func (s *Store) List(ctx context.Context, f Filter) ([]Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM reference_contacts WHERE 1=1`
	var args []any
	if t := strings.TrimSpace(f.ContactType); t != "" && t != AllTypes {
		query += ` AND contact_type = ?`
		args = append(args, t)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		query += ` AND (LOWER(name) LIKE LOWER(?) OR LOWER(organization) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?))`
		args = append(args, like, like, like)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Types returns the distinct contact types, preceded by AllTypes.
func (s *Store) Types(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT contact_type FROM reference_contacts WHERE contact_type <> '' ORDER BY contact_type`)
	if err != nil {
		return nil, fmt.Errorf("listing contact types: %w", err)
	}
	defer rows.Close()

	types := []string{AllTypes}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning contact type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// Update overwrites a contact's fields.
func (s *Store) Update(ctx context.Context, c *Contact) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reference_contacts SET name=?, email=?, phone=?, organization=?, contact_type=?, region=?, description=?
		 WHERE id=?`,
		c.Name, c.Email, c.Phone, c.Organization, c.ContactType, c.Region, c.Description, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a contact.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reference_contacts WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
