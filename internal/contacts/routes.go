package contacts

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// RegisterRoutes mounts reference contact endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/api/contacts", listContactsHandler(store))
	r.Get("/api/contacts/types", listTypesHandler(store))
	r.Post("/api/contacts", createContactHandler(store))
	r.Get("/api/contacts/{id}", getContactHandler(store))
	r.Put("/api/contacts/{id}", updateContactHandler(store))
	r.Delete("/api/contacts/{id}", deleteContactHandler(store))
}

// listContactsHandler answers with an empty list when the store fails so
// the page can show its "no contacts" state.
func listContactsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := store.List(r.Context(), Filter{ContactType: q.Get("type"), Query: q.Get("q")})
		if err != nil {
			log.Errorf("contacts: listing: %v", err)
			list = nil
		}
		if list == nil {
			list = []Contact{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func listTypesHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, err := store.Types(r.Context())
		if err != nil {
			log.Errorf("contacts: listing types: %v", err)
			types = []string{AllTypes}
		}
		writeJSON(w, http.StatusOK, types)
	}
}

func getContactHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			serverError(w, err)
			return
		}
		if c == nil {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func createContactHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c Contact
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(c.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if c.ContactType == AllTypes {
			writeError(w, http.StatusBadRequest, "contact_type cannot be "+AllTypes)
			return
		}
		c.ID = ""
		if err := store.Create(r.Context(), &c); err != nil {
			serverError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func updateContactHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c Contact
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		c.ID = chi.URLParam(r, "id")
		if err := store.Update(r.Context(), &c); err != nil {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func deleteContactHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, http.StatusNotFound, "contact not found")
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

// serverError logs err and answers a 500 without exposing its text.
func serverError(w http.ResponseWriter, err error) {
	log.WithError(err).Error("contacts: request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
