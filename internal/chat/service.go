package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/referents-ia/portail/internal/llm"
	"github.com/referents-ia/portail/internal/profiles"
	log "github.com/sirupsen/logrus"
)

// ProfileSource looks up the profile used to personalize prompts.
type ProfileSource interface {
	Get(ctx context.Context, id string) (*profiles.Profile, error)
}

// Service runs conversations. A session answers one message at a time.
type Service struct {
	store            *Store
	chains           map[Panel]Chain
	profiles         ProfileSource
	maxHistoryTokens int

	mu   sync.Mutex
	busy map[string]struct{}
}

// NewService creates a chat service. Panels missing from chains are not
// available. profiles may be nil.
func NewService(store *Store, chains map[Panel]Chain, profiles ProfileSource, maxHistoryTokens int) *Service {
	return &Service{
		store:            store,
		chains:           chains,
		profiles:         profiles,
		maxHistoryTokens: maxHistoryTokens,
		busy:             make(map[string]struct{}),
	}
}

// Store returns the underlying store.
func (s *Service) Store() *Store {
	return s.store
}

// Panels describes the available panels.
func (s *Service) Panels() []PanelInfo {
	out := make([]PanelInfo, 0, len(Panels))
	for _, p := range Panels {
		chain, ok := s.chains[p]
		if !ok || chain.Primary == nil {
			continue
		}
		info := panelInfo[p]
		info.Primary = chain.Primary.Name()
		if chain.Secondary != nil {
			info.Secondary = chain.Secondary.Name()
		}
		out = append(out, info)
	}
	return out
}

func (s *Service) chain(panel Panel) (Chain, error) {
	c, ok := s.chains[panel]
	if !ok || c.Primary == nil {
		return Chain{}, fmt.Errorf("%w: %q", ErrUnknownPanel, panel)
	}
	return c, nil
}

// Loading reports whether the session is waiting for an answer.
func (s *Service) Loading(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.busy[sessionID]
	return ok
}

func (s *Service) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.busy[sessionID]; ok {
		return false
	}
	s.busy[sessionID] = struct{}{}
	return true
}

func (s *Service) release(sessionID string) {
	s.mu.Lock()
	delete(s.busy, sessionID)
	s.mu.Unlock()
}

// CreateSession starts an empty session on panel.
func (s *Service) CreateSession(ctx context.Context, userID string, panel Panel) (*Session, error) {
	if _, err := s.chain(panel); err != nil {
		return nil, err
	}
	return s.store.CreateSession(ctx, userID, panel)
}

// ListSessions returns the sessions of a user.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	return s.store.ListSessions(ctx, userID)
}

func (s *Service) session(ctx context.Context, userID, sessionID string) (*Session, error) {
	sess, err := s.store.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Messages returns the messages of a session owned by userID.
func (s *Service) Messages(ctx context.Context, userID, sessionID string) ([]Message, error) {
	if _, err := s.session(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.store.Messages(ctx, sessionID)
}

// Reset empties a session and returns it. It fails with ErrBusy while the
// session is loading.
func (s *Service) Reset(ctx context.Context, userID, sessionID string) (*Session, error) {
	if _, err := s.session(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if !s.acquire(sessionID) {
		return nil, ErrBusy
	}
	defer s.release(sessionID)

	if err := s.store.ClearMessages(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.session(ctx, userID, sessionID)
}

// Send answers content in a session of panel, creating the session when
// sessionID is empty. Progress is reported through emit: once the start
// event is out, the answer always ends with a message or an error event,
// then end. While the session is loading, Send returns ErrBusy without
// recording anything.
//
// When every provider fails the returned message carries
// llm.FallbackErrorMessage, is not persisted, and the error wraps
// llm.ErrAllProvidersFailed.
func (s *Service) Send(ctx context.Context, userID string, panel Panel, sessionID, content string, emit func(Event)) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	chain, err := s.chain(panel)
	if err != nil {
		return nil, err
	}
	if emit == nil {
		emit = func(Event) {}
	}

	var sess *Session
	if sessionID == "" {
		if sess, err = s.store.CreateSession(ctx, userID, panel); err != nil {
			return nil, err
		}
	} else {
		if sess, err = s.session(ctx, userID, sessionID); err != nil {
			return nil, err
		}
		if sess.Panel != panel {
			return nil, ErrSessionNotFound
		}
	}

	if !s.acquire(sess.ID) {
		return nil, ErrBusy
	}

	history, err := s.store.Messages(ctx, sess.ID)
	if err != nil {
		s.release(sess.ID)
		return nil, err
	}
	if _, err := s.store.AddMessage(ctx, sess.ID, llm.RoleUser, content, ""); err != nil {
		s.release(sess.ID)
		return nil, err
	}

	emit(Event{Type: EventStart, SessionID: sess.ID})
	// Released exactly once: a send started from the end event owns the
	// session from then on.
	defer func() {
		s.release(sess.ID)
		emit(Event{Type: EventEnd, SessionID: sess.ID})
	}()

	req := llm.BuildRequest(s.systemPrompt(ctx, userID, panel), llm.TrimHistory(toLLM(history), s.maxHistoryTokens), content)

	text, provider, err := llm.StreamWithFallback(ctx, req, chain.Primary, chain.Secondary,
		func(chunk string) {
			emit(Event{Type: EventDelta, SessionID: sess.ID, Content: chunk})
		},
		func() {
			emit(Event{Type: EventReset, SessionID: sess.ID})
		},
	)
	if err != nil {
		log.WithFields(log.Fields{"session": sess.ID, "panel": panel}).Errorf("chat: no provider answered: %v", err)
		msg := &Message{
			SessionID: sess.ID,
			Role:      llm.RoleAssistant,
			Content:   llm.FallbackErrorMessage,
		}
		emit(Event{Type: EventError, SessionID: sess.ID, Content: llm.FallbackErrorMessage})
		return msg, err
	}

	msg, err := s.store.AddMessage(ctx, sess.ID, llm.RoleAssistant, text, provider)
	if err != nil {
		emit(Event{Type: EventError, SessionID: sess.ID, Content: llm.FallbackErrorMessage})
		return nil, err
	}
	emit(Event{Type: EventMessage, SessionID: sess.ID, Content: msg.Content, Message: msg})
	return msg, nil
}

func (s *Service) systemPrompt(ctx context.Context, userID string, panel Panel) string {
	var p *profiles.Profile
	if s.profiles != nil {
		var err error
		if p, err = s.profiles.Get(ctx, userID); err != nil {
			log.WithError(err).WithField("user", userID).Warn("chat: loading profile for prompt")
		}
	}
	return systemPrompt(panel, p)
}

func toLLM(msgs []Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
