package recueil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/referents-ia/portail/internal/auth"
	log "github.com/sirupsen/logrus"
)

// Filename is the attachment name of every generated document.
const Filename = "recueil-de-besoin.pdf"

// RegisterRoutes mounts recueil endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Post("/api/recueil", handleSave(store))
	r.Get("/api/recueil", handleList(store))
	r.Get("/api/recueil/{id}/pdf", handleSubmissionPDF(store))
	r.Post("/api/recueil/pdf", handleRenderPDF(store))
}

func handleSave(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f Form
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if f.Empty() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "le formulaire est vide"})
			return
		}
		sub, err := store.Save(r.Context(), auth.UserID(r.Context()), f)
		if err != nil {
			serverError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	}
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			serverError(w, err)
			return
		}
		if list == nil {
			list = []Submission{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleSubmissionPDF(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := store.Get(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			serverError(w, err)
			return
		}
		if sub == nil {
			writeError(w, http.StatusNotFound, "recueil not found")
			return
		}
		writePDF(w, sub.Form, sub.CreatedAt)
	}
}

func handleRenderPDF(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f Form
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		writePDF(w, f, store.now())
	}
}

// writePDF renders the whole document before writing any header.
func writePDF(w http.ResponseWriter, f Form, at time.Time) {
	var buf bytes.Buffer
	if err := RenderPDF(&buf, f, at); err != nil {
		log.WithError(err).Error("rendering recueil pdf")
		writeError(w, http.StatusInternalServerError, "could not generate document")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+Filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
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
	log.WithError(err).Error("recueil: request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
