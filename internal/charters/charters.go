// Package charters stores the catalog of published AI charters that
// referents can use as models for their own organization.
package charters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/referents-ia/portail/internal/db"
	log "github.com/sirupsen/logrus"
)

// Charter is a published AI usage charter.
type Charter struct {
	ID           string    `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	Organization string    `json:"organization" yaml:"organization"`
	Summary      string    `json:"summary" yaml:"summary"`
	URL          string    `json:"url" yaml:"url"`
	PublishedAt  string    `json:"published_at" yaml:"published_at"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
}

// Store provides access to the ia_charters table.
type Store struct {
	db *db.DB
}

// NewStore creates a new charters store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

const columns = `id, title, organization, summary, url, published_at, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*Charter, error) {
	var c Charter
	if err := row.Scan(&c.ID, &c.Title, &c.Organization, &c.Summary, &c.URL, &c.PublishedAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new charter.
func (s *Store) Create(ctx context.Context, c *Charter) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ia_charters (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Organization, c.Summary, c.URL, c.PublishedAt, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating charter: %w", err)
	}
	return nil
}

// GetByID returns a charter, or nil if it does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*Charter, error) {
	c, err := scan(s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM ia_charters WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting charter: %w", err)
	}
	return c, nil
}

// List returns charters whose title, organization or summary contain q,
// most recently published first.
func (s *Store) List(ctx context.Context, q string) ([]Charter, error) {
	query := `SELECT ` + columns + ` FROM ia_charters`
	var args []any
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + q + "%"
		query += ` WHERE LOWER(title) LIKE LOWER(?) OR LOWER(organization) LIKE LOWER(?) OR LOWER(summary) LIKE LOWER(?)`
		args = append(args, like, like, like)
	}
	query += ` ORDER BY published_at DESC, title`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing charters: %w", err)
	}
	defer rows.Close()

	var out []Charter
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning charter: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Delete removes a charter.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ia_charters WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting charter: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RegisterRoutes mounts charter endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/api/charters", func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			serverError(w, err)
			return
		}
		if list == nil {
			list = []Charter{}
		}
		writeJSON(w, http.StatusOK, list)
	})

	r.Get("/api/charters/{id}", func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			serverError(w, err)
			return
		}
		if c == nil {
			writeError(w, http.StatusNotFound, "charter not found")
			return
		}
		writeJSON(w, http.StatusOK, c)
	})

	r.Post("/api/charters", func(w http.ResponseWriter, r *http.Request) {
		var c Charter
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(c.Title) == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		c.ID = ""
		if err := store.Create(r.Context(), &c); err != nil {
			serverError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	})

	r.Delete("/api/charters/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, http.StatusNotFound, "charter not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serverError logs err and answers a 500 without exposing its text.
func serverError(w http.ResponseWriter, err error) {
	log.WithError(err).Error("charters: request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
