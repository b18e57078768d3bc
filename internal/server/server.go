package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"github.com/referents-ia/portail/internal/audit"
	"github.com/referents-ia/portail/internal/auth"
	"github.com/referents-ia/portail/internal/charters"
	"github.com/referents-ia/portail/internal/chat"
	"github.com/referents-ia/portail/internal/contacts"
	"github.com/referents-ia/portail/internal/db"
	"github.com/referents-ia/portail/internal/documents"
	"github.com/referents-ia/portail/internal/forum"
	"github.com/referents-ia/portail/internal/pages"
	"github.com/referents-ia/portail/internal/profiles"
	"github.com/referents-ia/portail/internal/recueil"
	"github.com/referents-ia/portail/internal/tools"
	"github.com/referents-ia/portail/internal/training"
	"github.com/referents-ia/portail/internal/veille"
)

// RequestTimeout bounds every request except the streaming ones.
const RequestTimeout = 60 * time.Second

// Config holds server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	AllowAll       bool // allow all CORS origins (dev mode)
}

// Deps are the feature services mounted by the server. Veille, Chat,
// Documents and Audit are optional.
type Deps struct {
	Auth      *auth.Service
	Audit     *audit.Store
	Profiles  *profiles.Store
	Contacts  *contacts.Store
	Tools     *tools.Store
	Charters  *charters.Store
	Training  *training.Store
	Forum     *forum.Store
	Recueil   *recueil.Store
	Pages     *pages.Library
	Veille    *veille.Service
	Chat      *chat.Service
	Catalog   *documents.Catalog
	Documents documents.Fetcher
}

// Server is the portal HTTP API.
type Server struct {
	cfg        Config
	db         *db.DB
	deps       Deps
	router     chi.Router
	httpServer *http.Server
}

// New creates a server and builds its routes.
func New(cfg Config, database *db.DB, deps Deps) *Server {
	s := &Server{
		cfg:  cfg,
		db:   database,
		deps: deps,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.StandardLogger(), NoColor: true}))
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(s.cfg.AllowedOrigins) > 0 {
		corsOpts.AllowedOrigins = s.cfg.AllowedOrigins
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
		corsOpts.AllowCredentials = false
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", s.handleHealth)

	d := s.deps

	// Public.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(RequestTimeout))
		if d.Auth != nil {
			auth.RegisterRoutes(r, d.Auth)
		}
		if d.Pages != nil {
			pages.RegisterRoutes(r, d.Pages)
		}
	})

	if d.Auth == nil {
		log.Warn("server: no auth service, protected routes are not mounted")
		return r
	}

	// Authenticated.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(RequestTimeout))
		r.Use(d.Auth.Middleware)
		if d.Audit != nil {
			r.Use(audit.Recorder(d.Audit, auth.UserID))
			audit.RegisterRoutes(r, d.Audit, auth.UserID)
		}

		if d.Profiles != nil {
			profiles.RegisterRoutes(r, d.Profiles)
		}
		if d.Contacts != nil {
			contacts.RegisterRoutes(r, d.Contacts)
		}
		if d.Tools != nil {
			tools.RegisterRoutes(r, d.Tools)
		}
		if d.Charters != nil {
			charters.RegisterRoutes(r, d.Charters)
		}
		if d.Training != nil {
			training.RegisterRoutes(r, d.Training)
		}
		if d.Forum != nil {
			forum.RegisterRoutes(r, d.Forum, s.authorName)
		}
		if d.Recueil != nil {
			recueil.RegisterRoutes(r, d.Recueil)
		}
		if d.Catalog != nil && d.Documents != nil {
			documents.RegisterRoutes(r, d.Catalog, d.Documents)
		}
		if d.Veille != nil {
			veille.RegisterRoutes(r, d.Veille)
		}
		if d.Chat != nil {
			chat.RegisterRoutes(r, d.Chat)
		}
	})

	// Authenticated, without the request timeout.
	if d.Chat != nil {
		r.Group(func(r chi.Router) {
			r.Use(d.Auth.Middleware)
			chat.RegisterStreamRoutes(r, d.Chat)
		})
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			log.WithError(err).Warn("server: health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// authorName is the forum display name: the profile name, else the email.
func (s *Server) authorName(ctx context.Context, userID string) string {
	if s.deps.Profiles == nil {
		return ""
	}
	p, err := s.deps.Profiles.Get(ctx, userID)
	if err != nil || p == nil {
		return ""
	}
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port. There is no write
// timeout; streaming responses stay open as long as the answer lasts.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Infof("portail server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
