package profiles

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/referents-ia/portail/internal/auth"
	"github.com/referents-ia/portail/internal/db"
)

func setupTestStore(t *testing.T) (*Store, *auth.Store) {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d), auth.NewStore(d)
}

func newUser(t *testing.T, users *auth.Store, email, name string) string {
	t.Helper()
	u, err := users.CreateUser(context.Background(), email, "pw", name)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u.ID
}

func TestGetCreatedProfile(t *testing.T) {
	store, users := setupTestStore(t)
	id := newUser(t, users, "a@b.fr", "Alice")

	p, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p == nil || p.FullName != "Alice" || p.Email != "a@b.fr" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p.Skills == nil || len(p.Skills) != 0 {
		t.Errorf("expected empty skills, got %v", p.Skills)
	}
}

func TestGetMissingProfile(t *testing.T) {
	store, _ := setupTestStore(t)
	p, err := store.Get(context.Background(), "missing")
	if err != nil || p != nil {
		t.Errorf("expected nil, nil; got %v, %v", p, err)
	}
}

func TestUpsertUpdatesFields(t *testing.T) {
	store, users := setupTestStore(t)
	ctx := context.Background()
	id := newUser(t, users, "a@b.fr", "Alice")

	if err := store.SetOnboardingStep(ctx, id, 3); err != nil {
		t.Fatal(err)
	}
	p := &Profile{ID: id, Email: "a@b.fr", FullName: "Alice Martin", Region: "Bretagne", Skills: []string{"RGPD", "LLM"}}
	if err := store.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, _ := store.Get(ctx, id)
	if got.FullName != "Alice Martin" || got.Region != "Bretagne" {
		t.Errorf("fields not updated: %+v", got)
	}
	if len(got.Skills) != 2 || got.Skills[1] != "LLM" {
		t.Errorf("skills = %v", got.Skills)
	}
	if got.OnboardingStep != 3 {
		t.Errorf("onboarding step overwritten: %d", got.OnboardingStep)
	}
}

func TestListFilters(t *testing.T) {
	store, users := setupTestStore(t)
	ctx := context.Background()
	a := newUser(t, users, "a@b.fr", "Alice")
	b := newUser(t, users, "b@b.fr", "Bruno")
	store.Upsert(ctx, &Profile{ID: a, Email: "a@b.fr", FullName: "Alice", Region: "Bretagne", Skills: []string{"vision"}})
	store.Upsert(ctx, &Profile{ID: b, Email: "b@b.fr", FullName: "Bruno", Region: "Occitanie", JobTitle: "Data scientist"})

	all, err := store.List(ctx, Filter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("List all: %d, %v", len(all), err)
	}
	if all[0].FullName != "Alice" {
		t.Errorf("expected ordering by name, got %q first", all[0].FullName)
	}

	got, _ := store.List(ctx, Filter{Region: "Occitanie"})
	if len(got) != 1 || got[0].ID != b {
		t.Errorf("region filter: %+v", got)
	}
	got, _ = store.List(ctx, Filter{Query: "DATA"})
	if len(got) != 1 || got[0].ID != b {
		t.Errorf("query on job title: %+v", got)
	}
	got, _ = store.List(ctx, Filter{Query: "vision"})
	if len(got) != 1 || got[0].ID != a {
		t.Errorf("query on skills: %+v", got)
	}
}

func TestDashboardConfig(t *testing.T) {
	store, users := setupTestStore(t)
	ctx := context.Background()
	id := newUser(t, users, "a@b.fr", "")

	cfg, err := store.GetDashboardConfig(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Widgets) != len(DefaultDashboard().Widgets) {
		t.Errorf("expected default widgets, got %+v", cfg)
	}

	raw := []byte(`{"widgets":[{"id":"forum","visible":true,"order":0},{"id":"experts","visible":false,"order":1}]}`)
	if err := store.SaveDashboardConfig(ctx, id, raw); err != nil {
		t.Fatalf("SaveDashboardConfig: %v", err)
	}
	cfg, _ = store.GetDashboardConfig(ctx, id)
	if len(cfg.Widgets) != 2 || cfg.Widgets[1].Visible {
		t.Errorf("unexpected saved config %+v", cfg)
	}

	for _, bad := range []string{`not json`, `{"widgets":[{"id":""}]}`, `{"widgets":[{"id":"a"},{"id":"a"}]}`} {
		if err := store.SaveDashboardConfig(ctx, id, []byte(bad)); err == nil {
			t.Errorf("expected error for %s", bad)
		}
	}
}

func TestDashboardConfigMissingProfile(t *testing.T) {
	store, _ := setupTestStore(t)
	cfg, err := store.GetDashboardConfig(context.Background(), "nope")
	if err != nil || cfg != nil {
		t.Errorf("expected nil, nil; got %v, %v", cfg, err)
	}
}

// --- HTTP tests ---

func setupRouter(t *testing.T, userID string, store *Store) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUserID(req.Context(), userID)))
		})
	})
	RegisterRoutes(r, store)
	return r
}

func TestUpdateMyProfileHandler(t *testing.T) {
	store, users := setupTestStore(t)
	id := newUser(t, users, "me@b.fr", "Moi")
	r := setupRouter(t, id, store)

	body, _ := json.Marshal(Profile{Email: "hack@b.fr", FullName: "Moi Même", Organization: "Préfecture"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/profiles/me", bytes.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profiles/me", nil))
	var p Profile
	json.NewDecoder(w.Body).Decode(&p)
	if p.Organization != "Préfecture" || p.Email != "me@b.fr" {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	store, _ := setupTestStore(t)
	r := setupRouter(t, "x", store)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profiles/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestDashboardHandlers(t *testing.T) {
	store, users := setupTestStore(t)
	id := newUser(t, users, "me@b.fr", "")
	r := setupRouter(t, id, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/profiles/me/dashboard", bytes.NewBufferString(`{oops`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid json: expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/profiles/me/dashboard",
		bytes.NewBufferString(`{"widgets":[{"id":"forum","visible":true,"order":0}]}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/profiles/me/onboarding", bytes.NewBufferString(`{"step":2}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("onboarding: expected 200, got %d", w.Code)
	}
	p, _ := store.Get(context.Background(), id)
	if p.OnboardingStep != 2 {
		t.Errorf("step = %d", p.OnboardingStep)
	}
}
