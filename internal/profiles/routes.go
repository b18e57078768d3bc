package profiles

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/referents-ia/portail/internal/auth"
	log "github.com/sirupsen/logrus"
)

// RegisterRoutes mounts profile endpoints. They expect auth.Middleware to
// have set the user id.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/api/profiles", listProfilesHandler(store))
	r.Get("/api/profiles/me", getMyProfileHandler(store))
	r.Put("/api/profiles/me", updateMyProfileHandler(store))
	r.Get("/api/profiles/me/dashboard", getDashboardHandler(store))
	r.Put("/api/profiles/me/dashboard", saveDashboardHandler(store))
	r.Put("/api/profiles/me/onboarding", onboardingHandler(store))
	r.Get("/api/profiles/{id}", getProfileHandler(store))
}

func listProfilesHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := store.List(r.Context(), Filter{
			Region:       q.Get("region"),
			Organization: q.Get("organization"),
			Query:        q.Get("q"),
		})
		if err != nil {
			serverError(w, err)
			return
		}
		if list == nil {
			list = []Profile{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func getProfileHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveProfile(w, r, store, chi.URLParam(r, "id"))
	}
}

func getMyProfileHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveProfile(w, r, store, auth.UserID(r.Context()))
	}
}

func serveProfile(w http.ResponseWriter, r *http.Request, store *Store, id string) {
	p, err := store.Get(r.Context(), id)
	if err != nil {
		serverError(w, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func updateMyProfileHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := auth.UserID(r.Context())
		existing, err := store.Get(r.Context(), id)
		if err != nil {
			serverError(w, err)
			return
		}
		var p Profile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		p.ID = id
		if existing != nil {
			// The email belongs to the account and is not editable here.
			p.Email = existing.Email
			p.CreatedAt = existing.CreatedAt
			p.OnboardingStep = existing.OnboardingStep
		}
		if err := store.Upsert(r.Context(), &p); err != nil {
			serverError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func getDashboardHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := store.GetDashboardConfig(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			serverError(w, err)
			return
		}
		if cfg == nil {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

func saveDashboardHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		err = store.SaveDashboardConfig(r.Context(), auth.UserID(r.Context()), raw)
		switch {
		case errors.Is(err, ErrInvalidDashboard):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "profile not found")
			return
		case err != nil:
			serverError(w, err)
			return
		}
		cfg, _ := store.GetDashboardConfig(r.Context(), auth.UserID(r.Context()))
		writeJSON(w, http.StatusOK, cfg)
	}
}

func onboardingHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Step int `json:"step"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Step < 0 {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := store.SetOnboardingStep(r.Context(), auth.UserID(r.Context()), body.Step); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				writeError(w, http.StatusNotFound, "profile not found")
				return
			}
			serverError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"step": body.Step})
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
	log.WithError(err).Error("profiles: request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
