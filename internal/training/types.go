package training

import (
	"slices"
	"time"
)

// All is the filter value meaning "no filter".
const All = "Tous"

// Levels and Formats list the accepted values, in display order.
var (
	Levels  = []string{"débutant", "intermédiaire", "avancé"}
	Formats = []string{"en ligne", "présentiel", "hybride"}
)

// Course is a training offer listed in the catalog.
type Course struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Provider    string    `json:"provider" yaml:"provider"`
	Format      string    `json:"format" yaml:"format"`
	Level       string    `json:"level" yaml:"level"`
	Duration    string    `json:"duration" yaml:"duration"`
	URL         string    `json:"url" yaml:"url"`
	Description string    `json:"description" yaml:"description"`
	Tags        []string  `json:"tags" yaml:"tags"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
}

// Filter narrows List results. Empty fields and All do not filter.
type Filter struct {
	Level  string
	Format string
	Query  string
}

// Validate reports whether the course level and format are known values.
// Empty values are allowed.
func (c *Course) Validate() error {
	if c.Title == "" {
		return errInvalid("title is required")
	}
	if c.Level != "" && !slices.Contains(Levels, c.Level) {
		return errInvalid("unknown level " + c.Level)
	}
	if c.Format != "" && !slices.Contains(Formats, c.Format) {
		return errInvalid("unknown format " + c.Format)
	}
	return nil
}

// ValidationError is returned by Validate.
type ValidationError struct{ msg string }

func (e *ValidationError) Error() string { return e.msg }

func errInvalid(msg string) error { return &ValidationError{msg: msg} }
