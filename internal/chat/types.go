package chat

import (
	"errors"
	"time"

	"github.com/referents-ia/portail/internal/llm"
)

// Panel identifies one of the chat panels of the portal.
type Panel string

const (
	PanelAssistant Panel = "assistant"
	PanelVeille    Panel = "veille"
	PanelSouverain Panel = "souverain"
)

// Panels lists every panel in display order.
var Panels = []Panel{PanelAssistant, PanelVeille, PanelSouverain}

var (
	// ErrBusy is returned while a session is waiting for an answer.
	ErrBusy = errors.New("a response is already in progress for this session")
	// ErrEmptyMessage is returned for blank user input.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrUnknownPanel is returned for panels without a provider chain.
	ErrUnknownPanel = errors.New("unknown chat panel")
	// ErrSessionNotFound is returned for sessions the user does not own.
	ErrSessionNotFound = errors.New("chat session not found")
)

// PanelInfo describes a panel to clients.
type PanelInfo struct {
	ID          Panel  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Primary     string `json:"primary"`
	Secondary   string `json:"secondary,omitempty"`
}

// Session is one conversation of a user on a panel.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Panel     Panel     `json:"panel"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one turn of a session.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Seq       int       `json:"seq"`
	Role      llm.Role  `json:"role"`
	Content   string    `json:"content"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Event types emitted while a message is being answered.
const (
	EventStart   = "start"
	EventDelta   = "delta"
	EventReset   = "reset"
	EventMessage = "message"
	EventError   = "error"
	EventEnd     = "end"
)

// Event is one step of a streamed answer. Delta events carry a fragment,
// message events the final assistant message, error events the text shown
// to the user.
type Event struct {
	Type      string   `json:"type"`
	SessionID string   `json:"session_id"`
	Content   string   `json:"content,omitempty"`
	Message   *Message `json:"message,omitempty"`
}

// Chain is the ordered pair of providers answering a panel.
type Chain struct {
	Primary   llm.Streamer
	Secondary llm.Streamer
}
