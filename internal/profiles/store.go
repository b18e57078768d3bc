package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/referents-ia/portail/internal/db"
)

// Store provides access to the profiles table.
type Store struct {
	db *db.DB
}

// NewStore creates a new profiles store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

const profileColumns = `id, email, full_name, organization, job_title, region, bio, skills, avatar_url, onboarding_step, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*Profile, error) {
	var p Profile
	var skills string
	if err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Organization, &p.JobTitle, &p.Region,
		&p.Bio, &skills, &p.AvatarURL, &p.OnboardingStep, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(skills), &p.Skills); err != nil || p.Skills == nil {
		p.Skills = []string{}
	}
	return &p, nil
}

// Get returns the profile with the given id, or nil if none exists.
func (s *Store) Get(ctx context.Context, id string) (*Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

// Upsert creates or updates the editable fields of a profile. The
// onboarding step and dashboard layout are left untouched on update.
func (s *Store) Upsert(ctx context.Context, p *Profile) error {
	if p.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	skills, err := json.Marshal(p.Skills)
	if err != nil {
		return fmt.Errorf("encoding skills: %w", err)
	}

	now := time.Now().UTC()
	p.UpdatedAt = now
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, full_name, organization, job_title, region, bio, skills, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   email = excluded.email, full_name = excluded.full_name, organization = excluded.organization,
		   job_title = excluded.job_title, region = excluded.region, bio = excluded.bio,
		   skills = excluded.skills, avatar_url = excluded.avatar_url, updated_at = excluded.updated_at`,
		p.ID, p.Email, p.FullName, p.Organization, p.JobTitle, p.Region, p.Bio, string(skills), p.AvatarURL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

// List returns profiles matching f, ordered by name.
func (s *Store) List(ctx context.Context, f Filter) ([]Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE 1=1`
	var args []any
	if f.Region != "" {
		query += ` AND region = ?`
		args = append(args, f.Region)
	}
	if f.Organization != "" {
		query += ` AND organization = ?`
		args = append(args, f.Organization)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		query += ` AND (LOWER(full_name) LIKE LOWER(?) OR LOWER(job_title) LIKE LOWER(?) OR LOWER(skills) LIKE LOWER(?))`
		args = append(args, like, like, like)
	}
	query += ` ORDER BY full_name, email`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetDashboardConfig returns the saved dashboard layout, or the default
// layout when none was saved.
func (s *Store) GetDashboardConfig(ctx context.Context, id string) (*DashboardConfig, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT dashboard_config FROM profiles WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting dashboard config: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		cfg := DefaultDashboard()
		return &cfg, nil
	}
	var cfg DashboardConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("decoding dashboard config: %w", err)
	}
	return &cfg, nil
}

// SaveDashboardConfig stores the layout for the given profile. The raw
// document must be a JSON object.
func (s *Store) SaveDashboardConfig(ctx context.Context, id string, raw []byte) error {
	var cfg DashboardConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDashboard, err)
	}
	seen := make(map[string]bool, len(cfg.Widgets))
	for _, w := range cfg.Widgets {
		if w.ID == "" || seen[w.ID] {
			return fmt.Errorf("%w: widget ids must be unique and non-empty", ErrInvalidDashboard)
		}
		seen[w.ID] = true
	}
	normalized, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding dashboard config: %w", err)
	}
	return s.exec(ctx, `UPDATE profiles SET dashboard_config = ?, updated_at = ? WHERE id = ?`,
		string(normalized), time.Now().UTC(), id)
}

// SetOnboardingStep records how far the user went through the onboarding
// path.
func (s *Store) SetOnboardingStep(ctx context.Context, id string, step int) error {
	if step < 0 {
		return fmt.Errorf("onboarding step must be non-negative")
	}
	return s.exec(ctx, `UPDATE profiles SET onboarding_step = ?, updated_at = ? WHERE id = ?`,
		step, time.Now().UTC(), id)
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ErrInvalidDashboard is returned for malformed dashboard layouts.
var ErrInvalidDashboard = errors.New("invalid dashboard config")
