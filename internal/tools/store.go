package tools

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

// Store provides CRUD operations for the AI tools catalog.
type Store struct {
	db *db.DB
}

// NewStore creates a new tools store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

const toolColumns = `id, name, description, category, url, vendor, tags, sovereign, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTool(row scanner) (*Tool, error) {
	var t Tool
	var tags string
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.URL, &t.Vendor, &tags, &t.Sovereign, &t.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil || t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

// Create inserts a new tool.
func (s *Store) Create(ctx context.Context, t *Tool) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_tools (`+toolColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Description, t.Category, t.URL, t.Vendor, encodeTags(t.Tags), t.Sovereign, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating tool: %w", err)
	}
	return nil
}

// GetByID returns a tool, or nil if it does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*Tool, error) {
	t, err := scanTool(s.db.QueryRowContext(ctx, `SELECT `+toolColumns+` FROM ai_tools WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting tool: %w", err)
	}
	return t, nil
}

// List returns tools matching f, ordered by name.
func (s *Store) List(ctx context.Context, f Filter) ([]Tool, error) {
	query := `SELECT ` + toolColumns + ` FROM ai_tools WHERE 1=1`
	var args []any
	if c := strings.TrimSpace(f.Category); c != "" && c != AllCategories {
		query += ` AND category = ?`
		args = append(args, c)
	}
	if f.Sovereign != nil {
		query += ` AND sovereign = ?`
		args = append(args, *f.Sovereign)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		query += ` AND (LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?) OR LOWER(tags) LIKE LOWER(?))`
		args = append(args, like, like, like)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tools: %w", err)
	}
	defer rows.Close()

	var out []Tool
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tool: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Categories returns the distinct categories, preceded by AllCategories.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM ai_tools WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	cats := []string{AllCategories}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Update overwrites a tool's fields.
func (s *Store) Update(ctx context.Context, t *Tool) error {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE ai_tools SET name=?, description=?, category=?, url=?, vendor=?, tags=?, sovereign=? WHERE id=?`,
		t.Name, t.Description, t.Category, t.URL, t.Vendor, encodeTags(t.Tags), t.Sovereign, t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating tool: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a tool.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ai_tools WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting tool: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
