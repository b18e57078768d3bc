package training

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/referents-ia/portail/internal/db"
)

// Store provides access to the training_courses table.
type Store struct {
	db *db.DB
}

// NewStore creates a new training store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

const courseColumns = `id, title, provider, format, level, duration, url, description, tags, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(row scanner) (*Course, error) {
	var c Course
	var tags string
	if err := row.Scan(&c.ID, &c.Title, &c.Provider, &c.Format, &c.Level, &c.Duration, &c.URL,
		&c.Description, &tags, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil || c.Tags == nil {
		c.Tags = []string{}
	}
	return &c, nil
}

// Create validates and inserts a course.
func (s *Store) Create(ctx context.Context, c *Course) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	tags, _ := json.Marshal(c.Tags)
	c.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO training_courses (`+courseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Provider, c.Format, c.Level, c.Duration, c.URL, c.Description, string(tags), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating course: %w", err)
	}
	return nil
}

// GetByID returns a course, or nil if it does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*Course, error) {
	c, err := scanCourse(s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM training_courses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting course: %w", err)
	}
	return c, nil
}

// List returns courses matching f, ordered by title.
func (s *Store) List(ctx context.Context, f Filter) ([]Course, error) {
	query := `SELECT ` + courseColumns + ` FROM training_courses WHERE 1=1`
	var args []any
	if l := strings.TrimSpace(f.Level); l != "" && l != All {
		query += ` AND level = ?`
		args = append(args, l)
	}
	if fm := strings.TrimSpace(f.Format); fm != "" && fm != All {
		query += ` AND format = ?`
		args = append(args, fm)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		query += ` AND (LOWER(title) LIKE LOWER(?) OR LOWER(provider) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?) OR LOWER(tags) LIKE LOWER(?))`
		args = append(args, like, like, like, like)
	}
	query += ` ORDER BY title`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	defer rows.Close()

	var out []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning course: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Delete removes a course.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM training_courses WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting course: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
