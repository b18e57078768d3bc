package forum

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/referents-ia/portail/internal/db"
	"github.com/referents-ia/portail/internal/notifications"
)

// Store provides operations on forum categories, threads and replies.
type Store struct {
	db     *db.DB
	notify notifications.Notifier
}

// NewStore creates a new forum store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d, notify: notifications.Nop{}}
}

// SetNotifier makes the store announce new threads through n.
func (s *Store) SetNotifier(n notifications.Notifier) {
	s.notify = n
}

// CreateCategory inserts a new category.
func (s *Store) CreateCategory(ctx context.Context, c *Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO forum_categories (id, name, description, position, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.Position, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating category: %w", err)
	}
	return nil
}

// ListCategories returns all categories with their thread counts.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.description, c.position, c.created_at, COUNT(t.id)
		 FROM forum_categories c
		 LEFT JOIN forum_threads t ON t.category_id = c.id
		 GROUP BY c.id, c.name, c.description, c.position, c.created_at
		 ORDER BY c.position, c.name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Position, &c.CreatedAt, &c.ThreadCount); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) categoryExists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM forum_categories WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("checking category: %w", err)
	}
	return n > 0, nil
}

// CreateThread inserts a new thread in an existing category.
func (s *Store) CreateThread(ctx context.Context, t *Thread) error {
	ok, err := s.categoryExists(ctx, t.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("category %q: %w", t.CategoryID, ErrNotFound)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO forum_threads (id, category_id, author_id, author_name, title, content, pinned, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.CategoryID, t.AuthorID, t.AuthorName, t.Title, t.Content, t.Pinned, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating thread: %w", err)
	}
	s.notify.Notify(ctx, notifications.Notification{
		Type:      notifications.TypeThreadCreated,
		Title:     "Nouveau sujet sur le forum",
		Message:   t.Title,
		Author:    t.AuthorName,
		CreatedAt: t.CreatedAt,
	})
	return nil
}

const threadSelect = `SELECT t.id, t.category_id, t.author_id, t.author_name, t.title, t.content, t.pinned,
	t.created_at, t.updated_at, (SELECT COUNT(*) FROM forum_replies r WHERE r.thread_id = t.id)
	FROM forum_threads t`

type scanner interface {
	Scan(dest ...any) error
}

func scanThread(row scanner) (*Thread, error) {
	var t Thread
	if err := row.Scan(&t.ID, &t.CategoryID, &t.AuthorID, &t.AuthorName, &t.Title, &t.Content, &t.Pinned,
		&t.CreatedAt, &t.UpdatedAt, &t.ReplyCount); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListThreads returns the threads of a category, pinned threads first, then
// by most recent activity.
func (s *Store) ListThreads(ctx context.Context, categoryID string) ([]Thread, error) {
	rows, err := s.db.QueryContext(ctx,
		threadSelect+` WHERE t.category_id = ? ORDER BY t.pinned DESC, t.updated_at DESC`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}
	defer rows.Close()

	var out []Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning thread: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// GetThread returns a thread with its replies, oldest first, or nil if it
// does not exist.
func (s *Store) GetThread(ctx context.Context, id string) (*Thread, error) {
	t, err := scanThread(s.db.QueryRowContext(ctx, threadSelect+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting thread: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread_id, author_id, author_name, content, created_at
		 FROM forum_replies WHERE thread_id = ? ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("listing replies: %w", err)
	}
	defer rows.Close()

	t.Replies = []Reply{}
	for rows.Next() {
		var r Reply
		if err := rows.Scan(&r.ID, &r.ThreadID, &r.AuthorID, &r.AuthorName, &r.Content, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning reply: %w", err)
		}
		t.Replies = append(t.Replies, r)
	}
	return t, rows.Err()
}

// CreateReply adds a reply to an existing thread and bumps the thread's
// activity time.
func (s *Store) CreateReply(ctx context.Context, r *Reply) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE forum_threads SET updated_at = ? WHERE id = ?`, r.CreatedAt, r.ThreadID)
	if err != nil {
		return fmt.Errorf("bumping thread: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("thread %q: %w", r.ThreadID, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO forum_replies (id, thread_id, author_id, author_name, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.ThreadID, r.AuthorID, r.AuthorName, r.Content, r.CreatedAt,
	); err != nil {
		return fmt.Errorf("creating reply: %w", err)
	}
	return tx.Commit()
}

// DeleteThread removes a thread and its replies. Only its author may do so.
func (s *Store) DeleteThread(ctx context.Context, id, userID string) error {
	return s.deleteOwned(ctx, "forum_threads", id, userID)
}

// DeleteReply removes a reply. Only its author may do so.
func (s *Store) DeleteReply(ctx context.Context, id, userID string) error {
	return s.deleteOwned(ctx, "forum_replies", id, userID)
}

func (s *Store) deleteOwned(ctx context.Context, table, id, userID string) error {
	var author string
	err := s.db.QueryRowContext(ctx, `SELECT author_id FROM `+table+` WHERE id = ?`, id).Scan(&author)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("looking up %s: %w", table, err)
	}
	if author != userID {
		return ErrForbidden
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	return nil
}
