package pages

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts page and onboarding endpoints on the given router.
// They are public.
func RegisterRoutes(r chi.Router, lib *Library) {
	r.Get("/api/pages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, lib.List())
	})

	r.Get("/api/pages/{slug}", func(w http.ResponseWriter, r *http.Request) {
		p := lib.Get(chi.URLParam(r, "slug"))
		if p == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "page introuvable"})
			return
		}
		writeJSON(w, http.StatusOK, p)
	})

	r.Get("/api/onboarding/steps", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, lib.Steps())
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
