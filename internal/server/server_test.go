package server

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/referents-ia/portail/internal/auth"
	"github.com/referents-ia/portail/internal/chat"
	"github.com/referents-ia/portail/internal/contacts"
	"github.com/referents-ia/portail/internal/db"
	"github.com/referents-ia/portail/internal/llm"
	"github.com/referents-ia/portail/internal/pages"
	"github.com/referents-ia/portail/internal/profiles"
)

type echoStreamer struct{}

func (echoStreamer) Name() string { return "echo" }

func (echoStreamer) Stream(ctx context.Context, req llm.CompletionRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("écho : "+req.Messages[len(req.Messages)-1].Content, nil)
	}
}

func setupServer(t *testing.T, cfg Config) (*Server, *auth.Service) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	svc := auth.NewService(auth.NewStore(database), "0123456789abcdef0123456789abcdef", time.Hour)
	lib, err := pages.Load()
	if err != nil {
		t.Fatalf("pages.Load: %v", err)
	}
	profileStore := profiles.NewStore(database)
	chatSvc := chat.NewService(chat.NewStore(database),
		map[chat.Panel]chat.Chain{chat.PanelAssistant: {Primary: echoStreamer{}}}, profileStore, 0)

	srv := New(cfg, database, Deps{
		Auth:     svc,
		Profiles: profileStore,
		Contacts: contacts.NewStore(database),
		Pages:    lib,
		Chat:     chatSvc,
	})
	return srv, svc
}

func login(t *testing.T, srv *Server, svc *auth.Service) string {
	t.Helper()
	if _, err := svc.Store().CreateUser(context.Background(), "referent@example.org", "motdepasse-solide", "Camille"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"referent@example.org","password":"motdepasse-solide"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	return resp.Token
}

func TestHealthCheck(t *testing.T) {
	srv, _ := setupServer(t, Config{})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, _ := setupServer(t, Config{AllowAll: true})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestPublicRoutes(t *testing.T) {
	srv, _ := setupServer(t, Config{})

	for _, path := range []string{"/api/pages", "/api/pages/missions", "/api/onboarding/steps"} {
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"nobody@example.org","password":"x"}`)))
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "Email ou mot de passe incorrect") {
		t.Errorf("bad login: %d %s", w.Code, w.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, svc := setupServer(t, Config{})

	for _, path := range []string{"/api/contacts", "/api/profiles/me", "/api/chat/panels"} {
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: expected 401, got %d", path, w.Code)
		}
	}

	token := login(t, srv, svc)
	req := httptest.NewRequest(http.MethodGet, "/api/contacts?type=Tous", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("with token: expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/profiles/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Camille") {
		t.Errorf("profile: %d %s", w.Code, w.Body.String())
	}
}

func TestChatStreamMounted(t *testing.T) {
	srv, svc := setupServer(t, Config{})
	token := login(t, srv, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/assistant/stream", strings.NewReader(`{"content":"bonjour"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "écho : bonjour") {
		t.Errorf("unexpected stream: %s", w.Body.String())
	}
}
