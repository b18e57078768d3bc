package forum

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a category, thread or reply does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a user deletes content they did not write.
	ErrForbidden = errors.New("only the author can delete this")
)

// Category groups discussion threads.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	ThreadCount int       `json:"thread_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Thread is a discussion started by a referent.
type Thread struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Pinned     bool      `json:"pinned"`
	ReplyCount int       `json:"reply_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Replies    []Reply   `json:"replies,omitempty"`
}

// Reply is an answer posted in a thread.
type Reply struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"thread_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
