package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/referents-ia/portail/internal/auth"
	log "github.com/sirupsen/logrus"
)

// RegisterRoutes mounts the chat REST endpoints on the given router.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/api/chat/panels", handlePanels(svc))
	r.Get("/api/chat/sessions", handleListSessions(svc))
	r.Post("/api/chat/{panel}/sessions", handleCreateSession(svc))
	r.Get("/api/chat/sessions/{id}/messages", handleMessages(svc))
	r.Post("/api/chat/sessions/{id}/reset", handleReset(svc))
}

// RegisterStreamRoutes mounts the long-lived endpoints: the SSE stream and
// the WebSocket. They must not sit behind a request timeout.
func RegisterStreamRoutes(r chi.Router, svc *Service) {
	r.Post("/api/chat/{panel}/stream", handleStream(svc))
	r.Get("/ws/chat", handleWebSocket(svc))
}

type sendRequest struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

func handleStream(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		sse := newSSEWriter(w)
		panel := Panel(chi.URLParam(r, "panel"))
		_, err := svc.Send(r.Context(), auth.UserID(r.Context()), panel, req.SessionID, req.Content, sse.emit)
		if err != nil && !sse.Started() {
			writeError(w, err)
		}
	}
}

func handlePanels(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Panels())
	}
}

func handleListSessions(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListSessions(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		if list == nil {
			list = []Session{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleCreateSession(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.CreateSession(r.Context(), auth.UserID(r.Context()), Panel(chi.URLParam(r, "panel")))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sess)
	}
}

func handleMessages(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs, err := svc.Messages(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if msgs == nil {
			msgs = []Message{}
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

func handleReset(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.Reset(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

// userMessage is the French text shown for a request-level error.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrBusy):
		return "une réponse est déjà en cours"
	case errors.Is(err, ErrEmptyMessage):
		return "le message est vide"
	case errors.Is(err, ErrUnknownPanel):
		return "panneau de discussion inconnu"
	case errors.Is(err, ErrSessionNotFound):
		return "conversation introuvable"
	default:
		return "erreur interne"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, ErrEmptyMessage):
		status = http.StatusBadRequest
	case errors.Is(err, ErrUnknownPanel), errors.Is(err, ErrSessionNotFound):
		status = http.StatusNotFound
	default:
		log.WithError(err).Error("chat: request failed")
	}
	writeJSON(w, status, map[string]string{"error": userMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
