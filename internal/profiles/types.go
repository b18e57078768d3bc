package profiles

import (
	"encoding/json"
	"time"
)

// Profile is the public card of a referent.
type Profile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Organization   string    `json:"organization"`
	JobTitle       string    `json:"job_title"`
	Region         string    `json:"region"`
	Bio            string    `json:"bio"`
	Skills         []string  `json:"skills"`
	AvatarURL      string    `json:"avatar_url"`
	OnboardingStep int       `json:"onboarding_step"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Filter narrows List results. Empty fields do not filter.
type Filter struct {
	Region       string
	Organization string
	Query        string
}

// Widget is one tile of the personal dashboard.
type Widget struct {
	ID      string `json:"id"`
	Visible bool   `json:"visible"`
	Order   int    `json:"order"`
}

// DashboardConfig is the layout stored in profiles.dashboard_config.
type DashboardConfig struct {
	Widgets []Widget        `json:"widgets"`
	Extra   json.RawMessage `json:"extra,omitempty"`
}

// DefaultDashboard is returned for users who never saved a layout.
func DefaultDashboard() DashboardConfig {
	ids := []string{"question-du-jour", "actualites", "experts", "outils", "forum", "formations"}
	w := make([]Widget, len(ids))
	for i, id := range ids {
		w[i] = Widget{ID: id, Visible: true, Order: i}
	}
	return DashboardConfig{Widgets: w}
}
