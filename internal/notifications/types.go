package notifications

import (
	"context"
	"time"
)

// Type categorises the event that triggered a notification.
type Type string

const (
	TypeRecueilSubmitted Type = "recueil_submitted"
	TypeThreadCreated    Type = "forum_thread_created"
)

// Notification is posted as JSON to every configured webhook.
type Notification struct {
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Author    string    `json:"author,omitempty"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	// Text duplicates Title and Message in one line for chat webhooks
	// (Slack, Mattermost, Teams) that only render a text field.
	Text string `json:"text"`
}

// Notifier delivers notifications. Notify must not block the caller on
// network I/O.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) {}
