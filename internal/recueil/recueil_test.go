package recueil

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ledongthuc/pdf"
	"github.com/referents-ia/portail/internal/auth"
	"github.com/referents-ia/portail/internal/db"
	"github.com/referents-ia/portail/internal/notifications"
)

var fixedDate = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	s := NewStore(d)
	s.now = func() time.Time { return fixedDate }
	return s
}

func TestRows(t *testing.T) {
	rows := Rows(Form{Direction: "  DSI  ", Objectifs: "Gagner du temps"})

	want := []string{
		"Direction / Service",
		"Porteur du besoin",
		"Intitulé du projet",
		"Contexte",
		"Problématique",
		"Objectifs attendus",
		"Données disponibles",
		"Contraintes (RGPD, sécurité, budget)",
		"Échéance souhaitée",
	}
	for i, label := range want {
		if rows[i][0] != label {
			t.Errorf("row %d label = %q, want %q", i, rows[i][0], label)
		}
	}
	if rows[0][1] != "DSI" {
		t.Errorf("expected trimmed value, got %q", rows[0][1])
	}
	if rows[5][1] != "Gagner du temps" {
		t.Errorf("objectifs = %q", rows[5][1])
	}
	if rows[1][1] != NotProvided || rows[8][1] != NotProvided {
		t.Errorf("empty answers should read %q, got %q / %q", NotProvided, rows[1][1], rows[8][1])
	}
}

func TestEmpty(t *testing.T) {
	if !(Form{Contexte: "   "}).Empty() {
		t.Error("blank form should be empty")
	}
	if (Form{Echeance: "juin"}).Empty() {
		t.Error("form with an answer should not be empty")
	}
}

func TestRenderPDF(t *testing.T) {
	f := Form{
		Direction:     "Direction du numérique",
		Intitule:      "Assistant de rédaction",
		Problematique: strings.Repeat("Les agents passent beaucoup de temps sur les courriers. ", 12),
	}
	var buf bytes.Buffer
	if err := RenderPDF(&buf, f, fixedDate); err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:16])
	}

	r, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading generated pdf: %v", err)
	}
	if n := r.NumPage(); n != 1 {
		t.Errorf("expected 1 page, got %d", n)
	}
	text, err := r.Page(1).GetPlainText(nil)
	if err != nil {
		t.Fatalf("GetPlainText: %v", err)
	}
	for _, want := range []string{"Recueil de besoin IA", "Contexte", "Assistant de r"} {
		if !strings.Contains(text, want) {
			t.Errorf("page text missing %q", want)
		}
	}
}

func TestRenderPDFLongAnswerSpansPages(t *testing.T) {
	f := Form{
		Intitule: "Tri du courrier",
		Contexte: strings.Repeat("Le service reçoit chaque jour plusieurs centaines de courriers à trier. ", 70),
		Echeance: "Septembre",
	}
	var buf bytes.Buffer
	if err := RenderPDF(&buf, f, fixedDate); err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	r, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading generated pdf: %v", err)
	}
	n := r.NumPage()
	if n < 2 || n > 4 {
		t.Fatalf("expected the long answer to span 2 to 4 pages, got %d", n)
	}
	text, err := r.Page(n).GetPlainText(nil)
	if err != nil {
		t.Fatalf("GetPlainText: %v", err)
	}
	if !strings.Contains(text, "souhait") {
		t.Errorf("last page should end with the remaining rows, got %q", text)
	}
}

func TestRenderPDFDeterministic(t *testing.T) {
	f := Form{Porteur: "Camille", Echeance: "Septembre"}
	var a, b bytes.Buffer
	if err := RenderPDF(&a, f, fixedDate); err != nil {
		t.Fatal(err)
	}
	if err := RenderPDF(&b, f, fixedDate); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("same form and date should render identical documents")
	}
}

func TestStoreSaveListGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	sub, err := store.Save(ctx, "u1", Form{Intitule: "Tri du courrier"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Save(ctx, "u2", Form{Intitule: "Autre"}); err != nil {
		t.Fatal(err)
	}

	list, err := store.List(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Form.Intitule != "Tri du courrier" {
		t.Errorf("List: %+v", list)
	}

	got, err := store.Get(ctx, "u1", sub.ID)
	if err != nil || got == nil || got.Form.Intitule != "Tri du courrier" {
		t.Fatalf("Get: %+v, %v", got, err)
	}
	if got, _ := store.Get(ctx, "u2", sub.ID); got != nil {
		t.Error("another user should not see the submission")
	}
}

func newRouter(store *Store, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	})
	RegisterRoutes(r, store)
	return r
}

type recordingNotifier struct {
	got []notifications.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notifications.Notification) {
	r.got = append(r.got, n)
}

func TestSaveNotifies(t *testing.T) {
	store := setupTestStore(t)
	rec := &recordingNotifier{}
	store.SetNotifier(rec)

	if _, err := store.Save(context.Background(), "u1", Form{Intitule: "Tri du courrier", Porteur: "Jean"}); err != nil {
		t.Fatal(err)
	}
	if len(rec.got) != 1 {
		t.Fatalf("expected one notification, got %d", len(rec.got))
	}
	n := rec.got[0]
	if n.Type != notifications.TypeRecueilSubmitted {
		t.Errorf("Type = %q", n.Type)
	}
	if n.Message != "Tri du courrier (Non renseigné)" {
		t.Errorf("Message = %q", n.Message)
	}
	if n.Author != "Jean" || !n.CreatedAt.Equal(fixedDate) {
		t.Errorf("unexpected notification %+v", n)
	}
}

func TestRenderPDFHandler(t *testing.T) {
	r := newRouter(setupTestStore(t), "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/recueil/pdf", strings.NewReader(`{"contexte":"Pilote"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="recueil-de-besoin.pdf"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestSaveHandlerAndDownload(t *testing.T) {
	store := setupTestStore(t)
	r := newRouter(store, "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/recueil", strings.NewReader(`{}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty form: expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/recueil", strings.NewReader(`{"intitule":"Chatbot RH"}`)))
	if w.Code != http.StatusCreated {
		t.Fatalf("save: expected 201, got %d", w.Code)
	}

	list, _ := store.List(context.Background(), "u1")
	if len(list) != 1 {
		t.Fatalf("expected one submission, got %d", len(list))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/recueil/"+list[0].ID+"/pdf", nil))
	if w.Code != http.StatusOK || !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Errorf("download: %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/recueil/missing/pdf", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing: expected 404, got %d", w.Code)
	}
}
