package tools

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// RegisterRoutes mounts AI tools catalog endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/api/tools", listToolsHandler(store))
	r.Get("/api/tools/categories", listCategoriesHandler(store))
	r.Post("/api/tools", createToolHandler(store))
	r.Get("/api/tools/{id}", getToolHandler(store))
	r.Put("/api/tools/{id}", updateToolHandler(store))
	r.Delete("/api/tools/{id}", deleteToolHandler(store))
}

func listToolsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := Filter{Category: q.Get("category"), Query: q.Get("q")}
		if v := q.Get("sovereign"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid sovereign parameter")
				return
			}
			f.Sovereign = &b
		}
		list, err := store.List(r.Context(), f)
		if err != nil {
			serverError(w, err)
			return
		}
		if list == nil {
			list = []Tool{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func listCategoriesHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := store.Categories(r.Context())
		if err != nil {
			serverError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cats)
	}
}

func getToolHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			serverError(w, err)
			return
		}
		if t == nil {
			writeError(w, http.StatusNotFound, "tool not found")
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func createToolHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t Tool
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(t.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		t.ID = ""
		if err := store.Create(r.Context(), &t); err != nil {
			serverError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func updateToolHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t Tool
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		t.ID = chi.URLParam(r, "id")
		if err := store.Update(r.Context(), &t); err != nil {
			writeError(w, http.StatusNotFound, "tool not found")
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func deleteToolHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, http.StatusNotFound, "tool not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
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

func serverError(w http.ResponseWriter, err error) {
	log.WithError(err).Error("tools: request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
