package veille

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// RegisterRoutes mounts veille endpoints on the given router.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/api/veille", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Dashboard(r.Context()))
	})

	r.Get("/api/veille/question", func(w http.ResponseWriter, r *http.Request) {
		q, err := svc.DailyQuestion(r.Context())
		if err != nil {
			writeUpstreamError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	})

	r.Get("/api/veille/news", func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.News(r.Context())
		if err != nil {
			writeUpstreamError(w, err)
			return
		}
		if items == nil {
			items = []NewsItem{}
		}
		writeJSON(w, http.StatusOK, items)
	})

	r.Get("/api/veille/experts", func(w http.ResponseWriter, r *http.Request) {
		experts, err := svc.Experts(r.Context())
		if err != nil {
			writeUpstreamError(w, err)
			return
		}
		if experts == nil {
			experts = []Expert{}
		}
		writeJSON(w, http.StatusOK, experts)
	})

	r.Post("/api/veille/refresh", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Refresh(r.Context()); err != nil {
			serverError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func writeUpstreamError(w http.ResponseWriter, err error) {
	log.Warnf("veille: %v", err)
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "service de veille indisponible"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func serverError(w http.ResponseWriter, err error) {
	log.WithError(err).Error("veille: request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
