package tools

import "time"

// AllCategories is the filter value meaning "no category filter".
const AllCategories = "Tous"

// Tool is an entry of the AI tools catalog.
type Tool struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Category    string    `json:"category" yaml:"category"`
	URL         string    `json:"url" yaml:"url"`
	Vendor      string    `json:"vendor" yaml:"vendor"`
	Tags        []string  `json:"tags" yaml:"tags"`
	Sovereign   bool      `json:"sovereign" yaml:"sovereign"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
}

// Filter narrows List results.
type Filter struct {
	Category  string
	Sovereign *bool
	Query     string
}
