package contacts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/referents-ia/portail/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d)
}

func seed(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	for _, c := range []Contact{
		{Name: "Claire Dubois", ContactType: "Référent", Organization: "DINUM"},
		{Name: "Albert Martin", ContactType: "Expert", Organization: "INRIA", Description: "vision par ordinateur"},
		{Name: "Bénédicte Roy", ContactType: "Référent", Organization: "Préfecture du Nord"},
	} {
		c := c
		if err := store.Create(ctx, &c); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
}

func TestListAllContacts(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)

	for _, filter := range []string{"", AllTypes} {
		list, err := store.List(context.Background(), Filter{ContactType: filter})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 3 {
			t.Errorf("filter %q: expected 3 contacts, got %d", filter, len(list))
		}
		if list[0].Name != "Albert Martin" {
			t.Errorf("expected ordering by name, got %q first", list[0].Name)
		}
	}
}

func TestListByType(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)

	list, err := store.List(context.Background(), Filter{ContactType: "Référent"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 référents, got %d", len(list))
	}
	for _, c := range list {
		if c.ContactType != "Référent" {
			t.Errorf("unexpected type %q", c.ContactType)
		}
	}

	list, _ = store.List(context.Background(), Filter{ContactType: "Inexistant"})
	if len(list) != 0 {
		t.Errorf("expected no contacts, got %d", len(list))
	}
}

func TestListQuery(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)

	list, _ := store.List(context.Background(), Filter{Query: "VISION"})
	if len(list) != 1 || list[0].Name != "Albert Martin" {
		t.Errorf("unexpected result %+v", list)
	}
}

func TestTypes(t *testing.T) {
	store := setupTestStore(t)
	types, err := store.Types(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(types) != 1 || types[0] != AllTypes {
		t.Errorf("empty table: got %v", types)
	}

	seed(t, store)
	types, _ = store.Types(context.Background())
	want := []string{AllTypes, "Expert", "Référent"}
	if len(types) != len(want) {
		t.Fatalf("got %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("types[%d] = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestUpdateAndDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	c := &Contact{Name: "X", ContactType: "Expert"}
	store.Create(ctx, c)

	c.Phone = "01 02 03 04 05"
	if err := store.Update(ctx, c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := store.GetByID(ctx, c.ID)
	if got.Phone != "01 02 03 04 05" {
		t.Errorf("phone = %q", got.Phone)
	}

	if err := store.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := store.GetByID(ctx, c.ID); got != nil {
		t.Error("contact still present after delete")
	}
	if err := store.Delete(ctx, c.ID); err == nil {
		t.Error("expected error deleting missing contact")
	}
}

// --- HTTP tests ---

func setupRouter(store *Store) *chi.Mux {
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r
}

func TestListContactsHandlerFilter(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)
	r := setupRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/contacts?type=Expert", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list []Contact
	json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 1 || list[0].ContactType != "Expert" {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestListContactsHandlerStoreFailure(t *testing.T) {
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(d)
	d.Close()
	r := setupRouter(store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/contacts", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with empty list, got %d", w.Code)
	}
	if body := bytes.TrimSpace(w.Body.Bytes()); string(body) != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

func TestCreateContactHandler(t *testing.T) {
	store := setupTestStore(t)
	r := setupRouter(store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/contacts", bytes.NewBufferString(`{"name":""}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty name: expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/contacts", bytes.NewBufferString(`{"name":"Z","contact_type":"Tous"}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("reserved type: expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/contacts", bytes.NewBufferString(`{"name":"Zoé","contact_type":"Expert"}`)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var c Contact
	json.NewDecoder(w.Body).Decode(&c)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/contacts/"+c.ID, nil))
	if w.Code != http.StatusOK {
		t.Errorf("get: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/contacts/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing: expected 404, got %d", w.Code)
	}
}

func TestHandlerErrorsAreJSON(t *testing.T) {
	store := setupTestStore(t)
	r := setupRouter(store)

	tests := []struct {
		name   string
		req    *http.Request
		status int
		want   string
	}{
		{"missing contact", httptest.NewRequest(http.MethodGet, "/api/contacts/nope", nil), http.StatusNotFound, "contact not found"},
		{"bad body", httptest.NewRequest(http.MethodPost, "/api/contacts", bytes.NewBufferString("{")), http.StatusBadRequest, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, tt.req)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if body["error"] != tt.want {
				t.Errorf("error = %q, want %q", body["error"], tt.want)
			}
		})
	}
}

func TestHandlerHidesStoreErrors(t *testing.T) {
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(d)
	d.Close()
	r := setupRouter(store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/contacts/c-1", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body["error"] != "internal error" {
		t.Errorf("store error leaked to the client: %q", body["error"])
	}
}
