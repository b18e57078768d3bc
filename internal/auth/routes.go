package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// RegisterRoutes mounts the login endpoint and the authenticated /me endpoint.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/api/auth/login", loginHandler(svc))
	r.With(svc.Middleware).Get("/api/auth/me", meHandler(svc))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func loginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		token, user, err := svc.Login(r.Context(), req.Email, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": ErrInvalidCredentials.Error()})
			return
		}
		if err != nil {
			log.Errorf("auth: login: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
	}
}

func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.store.GetByID(r.Context(), UserID(r.Context()))
		if err != nil {
			serverError(w, err)
			return
		}
		if u == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// serverError logs err and answers a 500 without exposing its text.
func serverError(w http.ResponseWriter, err error) {
	log.WithError(err).Error("auth: request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
