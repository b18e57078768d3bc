package audit

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Recorder returns a middleware that journals every successful mutating
// request. actor extracts the authenticated user id from the request
// context. Journal failures are logged and never fail the request.
func Recorder(store *Store, actor func(context.Context) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			action, ok := methodAction(r.Method)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= 400 {
				return
			}

			pattern := r.URL.Path
			var resourceID string
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					pattern = p
				}
				resourceID = rctx.URLParam("id")
			}

			entry := Entry{
				ActorType:  ActorUser,
				ActorID:    actor(r.Context()),
				Action:     action,
				Resource:   resourceName(pattern),
				ResourceID: resourceID,
				Summary:    r.Method + " " + pattern,
				Status:     status,
			}
			if _, err := store.Log(context.WithoutCancel(r.Context()), entry); err != nil {
				log.WithError(err).WithField("path", r.URL.Path).Warn("audit: recording request")
			}
		})
	}
}

func methodAction(method string) (Action, bool) {
	switch method {
	case http.MethodPost:
		return ActionCreate, true
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate, true
	case http.MethodDelete:
		return ActionDelete, true
	}
	return "", false
}

// resourceName is the first path segment after /api/, e.g. "contacts"
// for /api/contacts/{id}.
func resourceName(pattern string) string {
	p := strings.TrimPrefix(pattern, "/")
	p = strings.TrimPrefix(p, "api/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}
