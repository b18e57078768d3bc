package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// RegisterRoutes mounts the journal of the authenticated user under
// /api/audit. actor extracts the user id from the request context.
func RegisterRoutes(r chi.Router, store *Store, actor func(context.Context) string) {
	r.Route("/api/audit", func(r chi.Router) {
		r.Get("/", handleQuery(store, actor))
		r.Get("/{id}", handleGetByID(store, actor))
	})
}

func handleQuery(store *Store, actor func(context.Context) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := QueryFilter{
			ActorID:  actor(r.Context()),
			Resource: q.Get("resource"),
			Limit:    100,
		}
		if v := q.Get("action"); v != "" {
			filter.Action = Action(v)
		}
		if v := q.Get("since"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				filter.Since = &t
			}
		}
		if v := q.Get("until"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				filter.Until = &t
			}
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
				filter.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Offset = n
			}
		}

		entries, err := store.Query(r.Context(), filter)
		if err != nil {
			serverError(w, err)
			return
		}
		if entries == nil {
			entries = []Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleGetByID(store *Store, actor func(context.Context) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			serverError(w, err)
			return
		}
		if entry == nil || entry.ActorID != actor(r.Context()) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "entrée introuvable"})
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// serverError logs err and answers a 500 without exposing its text.
func serverError(w http.ResponseWriter, err error) {
	log.WithError(err).Error("audit: request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
