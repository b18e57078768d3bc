package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/referents-ia/portail/internal/db"
	"golang.org/x/crypto/bcrypt"
)

// Store persists user accounts.
type Store struct {
	db *db.DB
}

// NewStore creates a new auth store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser hashes the password, inserts the account and an empty profile
// carrying the user's email and name.
func (s *Store) CreateUser(ctx context.Context, email, password, fullName string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	existing, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  strings.TrimSpace(fullName),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, string(hash), u.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (id, email, full_name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FullName, u.CreatedAt, u.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing user: %w", err)
	}
	return u, nil
}

const userColumns = `u.id, u.email, COALESCE(p.full_name, ''), u.created_at`

const userFrom = `FROM users u LEFT JOIN profiles p ON p.id = u.id`

// GetByEmail returns the user with the given email, or nil if none exists.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, _, err := s.credentials(ctx, normalizeEmail(email))
	return u, err
}

// credentials returns the user and the stored password hash.
func (s *Store) credentials(ctx context.Context, email string) (*User, string, error) {
	var u User
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`, u.password_hash `+userFrom+` WHERE u.email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.CreatedAt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting user by email: %w", err)
	}
	return &u, hash, nil
}

// GetByID returns the user with the given id, or nil if none exists.
func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` `+userFrom+` WHERE u.id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// List returns all users ordered by email.
func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` `+userFrom+` ORDER BY u.email`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetPassword replaces the password of an existing user.
func (s *Store) SetPassword(ctx context.Context, id, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, string(hash), id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
