package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/referents-ia/portail/internal/db"
	"github.com/referents-ia/portail/internal/llm"
)

// Store persists sessions and messages in chat_sessions and chat_messages.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a new chat store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d, now: time.Now}
}

// CreateSession creates an empty session.
func (s *Store) CreateSession(ctx context.Context, userID string, panel Panel) (*Session, error) {
	now := s.now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Panel:     panel,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, user_id, panel, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, string(sess.Panel), sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

// GetSession returns the session if it belongs to userID, or nil.
func (s *Store) GetSession(ctx context.Context, userID, id string) (*Session, error) {
	var (
		sess  Session
		panel string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, panel, created_at, updated_at FROM chat_sessions WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&sess.ID, &sess.UserID, &panel, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	sess.Panel = Panel(panel)
	return &sess, nil
}

// ListSessions returns the sessions of userID, most recently active first.
func (s *Store) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, panel, created_at, updated_at FROM chat_sessions
		 WHERE user_id = ? ORDER BY updated_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess  Session
			panel string
		)
		if err := rows.Scan(&sess.ID, &sess.UserID, &panel, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.Panel = Panel(panel)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// AddMessage appends a message to a session and bumps its activity time.
func (s *Store) AddMessage(ctx context.Context, sessionID string, role llm.Role, content, provider string) (*Message, error) {
	msg := &Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Provider:  provider,
		CreatedAt: s.now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_messages WHERE session_id = ?`, sessionID,
	).Scan(&msg.Seq); err != nil {
		return nil, fmt.Errorf("numbering message: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, seq, role, content, provider, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Seq, string(msg.Role), msg.Content, msg.Provider, msg.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("adding message: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = ? WHERE id = ?`, msg.CreatedAt, sessionID,
	); err != nil {
		return nil, fmt.Errorf("touching session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing message: %w", err)
	}
	return msg, nil
}

// Messages returns the messages of a session in order.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, seq, role, content, provider, created_at
		 FROM chat_messages WHERE session_id = ? ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var (
			m    Message
			role string
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Seq, &role, &m.Content, &m.Provider, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = llm.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

// ClearMessages deletes every message of a session.
func (s *Store) ClearMessages(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = ? WHERE id = ?`, s.now().UTC(), sessionID,
	); err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return tx.Commit()
}
