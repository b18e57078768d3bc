package pages

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"
)

func loadEmbedded(t *testing.T) *Library {
	t.Helper()
	lib, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return lib
}

func TestLoadEmbeddedPages(t *testing.T) {
	lib := loadEmbedded(t)

	want := []string{"missions", "ethique", "chartes", "impact-environnemental", "glossaire", "historique", "parcours"}
	list := lib.List()
	if len(list) != len(want) {
		t.Fatalf("expected %d pages, got %d: %+v", len(want), len(list), list)
	}
	for i, slug := range want {
		if list[i].Slug != slug {
			t.Errorf("page %d: got %q, want %q", i, list[i].Slug, slug)
		}
		if list[i].Title == "" {
			t.Errorf("page %q has no title", slug)
		}
		if list[i].HTML != "" {
			t.Errorf("List should not include bodies")
		}
	}
}

func TestGetRendersMarkdown(t *testing.T) {
	lib := loadEmbedded(t)

	p := lib.Get("chartes")
	if p == nil {
		t.Fatal("chartes page missing")
	}
	if p.Title != "Chartes d'usage" {
		t.Errorf("title = %q", p.Title)
	}
	if !strings.Contains(p.HTML, "<table>") {
		t.Error("expected GFM table in rendered html")
	}
	if !strings.Contains(p.HTML, `<h2 id="`) {
		t.Errorf("expected heading ids, got %s", p.HTML)
	}
	if lib.Get("inconnue") != nil {
		t.Error("unknown slug should return nil")
	}
}

func TestSteps(t *testing.T) {
	lib := loadEmbedded(t)
	steps := lib.Steps()
	if len(steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(steps))
	}
	if steps[0].Number != 1 || steps[0].Title != "Compléter votre profil" {
		t.Errorf("first step: %+v", steps[0])
	}
	if steps[4].Number != 5 || !strings.Contains(steps[4].HTML, "recueil de besoin") {
		t.Errorf("last step: %+v", steps[4])
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"pages/b.md":            {Data: []byte("# Bravo\n\ntexte")},
		"pages/10-alpha.md":     {Data: []byte("sans titre")},
		"pages/sub/parcours.md": {Data: []byte("# P\n\nintro\n\n## Un\nA\n\n## Deux\nB\n")},
		"pages/ignore.txt":      {Data: []byte("x")},
	}
	lib, err := LoadFS(fsys, "pages")
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if got := len(lib.List()); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if p := lib.Get("alpha"); p == nil || p.Title != "alpha" {
		t.Errorf("numeric prefix and title fallback: %+v", p)
	}
	if steps := lib.Steps(); len(steps) != 2 || steps[1].Title != "Deux" {
		t.Errorf("steps: %+v", steps)
	}
}

func TestLoadFSDuplicateSlug(t *testing.T) {
	fsys := fstest.MapFS{
		"p/01-a.md": {Data: []byte("# A")},
		"p/02-a.md": {Data: []byte("# A bis")},
	}
	if _, err := LoadFS(fsys, "p"); err == nil {
		t.Error("expected duplicate slug error")
	}
}

func TestRoutes(t *testing.T) {
	r := chi.NewRouter()
	RegisterRoutes(r, loadEmbedded(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/pages/ethique", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var p Page
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.Slug != "ethique" || p.Title != "Éthique de l'IA" || p.HTML == "" {
		t.Errorf("unexpected page: %+v", p)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/pages/absente", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/onboarding/steps", nil))
	var steps []Step
	json.NewDecoder(w.Body).Decode(&steps)
	if w.Code != http.StatusOK || len(steps) != 5 {
		t.Errorf("steps: %d %d", w.Code, len(steps))
	}
}
