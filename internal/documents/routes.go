package documents

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// RegisterRoutes mounts document endpoints on the given router.
func RegisterRoutes(r chi.Router, catalog *Catalog, fetcher Fetcher) {
	r.Get("/api/documents", handleList(catalog))
	r.Get("/api/documents/{id}/download", handleDownload(catalog, fetcher))
}

func handleList(catalog *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, catalog.List())
	}
}

func handleDownload(catalog *Catalog, fetcher Fetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := catalog.Get(chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, ErrUnknownDocument):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "document introuvable"})
			return
		case err != nil:
			log.WithError(err).Error("documents: catalog lookup failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}

		blob, err := fetcher.Fetch(r.Context(), doc)
		if err != nil {
			log.WithError(err).WithField("document", doc.ID).Warn("document download failed")
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "document indisponible"})
			return
		}
		defer blob.Body.Close()

		ct := blob.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
		if blob.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(blob.Size, 10))
		}
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, blob.Body); err != nil {
			log.WithError(err).WithField("document", doc.ID).Debug("document stream interrupted")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
