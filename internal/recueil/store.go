package recueil

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/referents-ia/portail/internal/db"
	"github.com/referents-ia/portail/internal/notifications"
)

// Store persists submissions in recueil_submissions. The form is kept as a
// JSON document.
type Store struct {
	db     *db.DB
	now    func() time.Time
	notify notifications.Notifier
}

// NewStore creates a new recueil store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d, now: time.Now, notify: notifications.Nop{}}
}

// SetNotifier makes the store announce each saved submission through n.
func (s *Store) SetNotifier(n notifications.Notifier) {
	s.notify = n
}

// Save records f for userID.
func (s *Store) Save(ctx context.Context, userID string, f Form) (*Submission, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encoding form: %w", err)
	}
	sub := &Submission{
		ID:        uuid.NewString(),
		UserID:    userID,
		Form:      f,
		CreatedAt: s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recueil_submissions (id, user_id, form, created_at) VALUES (?, ?, ?, ?)`,
		sub.ID, sub.UserID, string(data), sub.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("saving recueil: %w", err)
	}
	s.notify.Notify(ctx, notifications.Notification{
		Type:      notifications.TypeRecueilSubmitted,
		Title:     "Nouveau recueil de besoin",
		Message:   orNotProvided(f.Intitule) + " (" + orNotProvided(f.Direction) + ")",
		Author:    f.Porteur,
		CreatedAt: sub.CreatedAt,
	})
	return sub, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*Submission, error) {
	var (
		sub  Submission
		form string
	)
	if err := row.Scan(&sub.ID, &sub.UserID, &form, &sub.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(form), &sub.Form); err != nil {
		return nil, fmt.Errorf("decoding form %s: %w", sub.ID, err)
	}
	return &sub, nil
}

// Get returns the submission owned by userID, or nil if there is none.
func (s *Store) Get(ctx context.Context, userID, id string) (*Submission, error) {
	sub, err := scan(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, form, created_at FROM recueil_submissions WHERE id = ? AND user_id = ?`,
		id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting recueil: %w", err)
	}
	return sub, nil
}

// List returns the submissions of userID, newest first.
func (s *Store) List(ctx context.Context, userID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, form, created_at FROM recueil_submissions WHERE user_id = ? ORDER BY created_at DESC, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing recueil: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		sub, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}
