package forum

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/referents-ia/portail/internal/auth"
	log "github.com/sirupsen/logrus"
)

// AuthorNamer resolves the display name of a user for new posts.
type AuthorNamer func(ctx context.Context, userID string) string

// RegisterRoutes mounts forum endpoints. They expect auth.Middleware to
// have set the user id.
func RegisterRoutes(r chi.Router, store *Store, name AuthorNamer) {
	if name == nil {
		name = func(context.Context, string) string { return "" }
	}
	r.Get("/api/forum/categories", listCategoriesHandler(store))
	r.Post("/api/forum/categories", createCategoryHandler(store))
	r.Get("/api/forum/categories/{id}/threads", listThreadsHandler(store))
	r.Post("/api/forum/threads", createThreadHandler(store, name))
	r.Get("/api/forum/threads/{id}", getThreadHandler(store))
	r.Delete("/api/forum/threads/{id}", deleteThreadHandler(store))
	r.Post("/api/forum/threads/{id}/replies", createReplyHandler(store, name))
	r.Delete("/api/forum/replies/{id}", deleteReplyHandler(store))
}

func listCategoriesHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := store.ListCategories(r.Context())
		if err != nil {
			serverError(w, err)
			return
		}
		if cats == nil {
			cats = []Category{}
		}
		writeJSON(w, http.StatusOK, cats)
	}
}

func createCategoryHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c Category
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(c.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		c.ID = ""
		if err := store.CreateCategory(r.Context(), &c); err != nil {
			log.WithError(err).Warn("forum: creating category")
			writeError(w, http.StatusConflict, "category already exists")
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func listThreadsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threads, err := store.ListThreads(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			serverError(w, err)
			return
		}
		if threads == nil {
			threads = []Thread{}
		}
		writeJSON(w, http.StatusOK, threads)
	}
}

func getThreadHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetThread(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			serverError(w, err)
			return
		}
		if t == nil {
			writeError(w, http.StatusNotFound, "thread not found")
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func createThreadHandler(store *Store, name AuthorNamer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t Thread
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(t.Title) == "" || strings.TrimSpace(t.Content) == "" {
			writeError(w, http.StatusBadRequest, "title and content are required")
			return
		}
		t.ID = ""
		t.AuthorID = auth.UserID(r.Context())
		t.AuthorName = name(r.Context(), t.AuthorID)
		if err := store.CreateThread(r.Context(), &t); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func createReplyHandler(store *Store, name AuthorNamer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reply Reply
		if err := json.NewDecoder(r.Body).Decode(&reply); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(reply.Content) == "" {
			writeError(w, http.StatusBadRequest, "content is required")
			return
		}
		reply.ID = ""
		reply.ThreadID = chi.URLParam(r, "id")
		reply.AuthorID = auth.UserID(r.Context())
		reply.AuthorName = name(r.Context(), reply.AuthorID)
		if err := store.CreateReply(r.Context(), &reply); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, reply)
	}
}

func deleteThreadHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteThread(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context())); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteReplyHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteReply(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context())); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		serverError(w, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serverError logs err and answers a 500 without exposing its text.
func serverError(w http.ResponseWriter, err error) {
	log.WithError(err).Error("forum: request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
