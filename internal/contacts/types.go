package contacts

import "time"

// AllTypes is the filter value meaning "no type filter".
const AllTypes = "Tous"

// Contact is a reference contact of the network (referent, expert,
// institution).
type Contact struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Email        string    `json:"email" yaml:"email"`
	Phone        string    `json:"phone" yaml:"phone"`
	Organization string    `json:"organization" yaml:"organization"`
	ContactType  string    `json:"contact_type" yaml:"contact_type"`
	Region       string    `json:"region" yaml:"region"`
	Description  string    `json:"description" yaml:"description"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
}

// Filter narrows List results.
type Filter struct {
	// ContactType keeps only contacts of that type. Empty or AllTypes
	// keeps every contact.
	ContactType string
	Query       string
}
