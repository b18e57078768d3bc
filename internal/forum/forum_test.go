package forum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/referents-ia/portail/internal/auth"
	"github.com/referents-ia/portail/internal/db"
	"github.com/referents-ia/portail/internal/notifications"
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

func newCategory(t *testing.T, store *Store, name string, pos int) *Category {
	t.Helper()
	c := &Category{Name: name, Position: pos}
	if err := store.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return c
}

func TestCategoriesWithCounts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	b := newCategory(t, store, "Retours d'expérience", 2)
	a := newCategory(t, store, "Questions juridiques", 1)

	store.CreateThread(ctx, &Thread{CategoryID: b.ID, AuthorID: "u1", Title: "t", Content: "c"})
	store.CreateThread(ctx, &Thread{CategoryID: b.ID, AuthorID: "u1", Title: "t2", Content: "c"})

	cats, err := store.ListCategories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 || cats[0].ID != a.ID {
		t.Fatalf("expected ordering by position, got %+v", cats)
	}
	if cats[0].ThreadCount != 0 || cats[1].ThreadCount != 2 {
		t.Errorf("thread counts: %d, %d", cats[0].ThreadCount, cats[1].ThreadCount)
	}
}

func TestDuplicateCategoryName(t *testing.T) {
	store := setupTestStore(t)
	newCategory(t, store, "Général", 0)
	if err := store.CreateCategory(context.Background(), &Category{Name: "Général"}); err == nil {
		t.Error("expected unique constraint error")
	}
}

func TestCreateThreadUnknownCategory(t *testing.T) {
	store := setupTestStore(t)
	err := store.CreateThread(context.Background(), &Thread{CategoryID: "nope", Title: "t", Content: "c"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

type recordingNotifier struct {
	got []notifications.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notifications.Notification) {
	r.got = append(r.got, n)
}

func TestCreateThreadNotifies(t *testing.T) {
	store := setupTestStore(t)
	rec := &recordingNotifier{}
	store.SetNotifier(rec)
	cat := newCategory(t, store, "Usages", 1)

	th := &Thread{CategoryID: cat.ID, AuthorID: "u1", AuthorName: "Marie", Title: "Copilote et RGPD", Content: "?"}
	if err := store.CreateThread(context.Background(), th); err != nil {
		t.Fatal(err)
	}
	store.CreateThread(context.Background(), &Thread{CategoryID: "nope", Title: "x", Content: "y"})

	if len(rec.got) != 1 {
		t.Fatalf("expected one notification, got %d", len(rec.got))
	}
	n := rec.got[0]
	if n.Type != notifications.TypeThreadCreated || n.Message != "Copilote et RGPD" || n.Author != "Marie" {
		t.Errorf("unexpected notification %+v", n)
	}
}

func TestThreadOrderingAndReplies(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	cat := newCategory(t, store, "Général", 0)

	old := &Thread{CategoryID: cat.ID, AuthorID: "u1", Title: "ancien", Content: "c"}
	pinned := &Thread{CategoryID: cat.ID, AuthorID: "u1", Title: "épinglé", Content: "c", Pinned: true}
	recent := &Thread{CategoryID: cat.ID, AuthorID: "u1", Title: "récent", Content: "c"}
	for _, th := range []*Thread{old, pinned, recent} {
		if err := store.CreateThread(ctx, th); err != nil {
			t.Fatal(err)
		}
	}

	threads, _ := store.ListThreads(ctx, cat.ID)
	if len(threads) != 3 || threads[0].ID != pinned.ID || threads[1].ID != recent.ID {
		t.Fatalf("unexpected order: %v, %v, %v", threads[0].Title, threads[1].Title, threads[2].Title)
	}

	// A reply moves the old thread above the recent one.
	if err := store.CreateReply(ctx, &Reply{ThreadID: old.ID, AuthorID: "u2", Content: "première"}); err != nil {
		t.Fatalf("CreateReply: %v", err)
	}
	if err := store.CreateReply(ctx, &Reply{ThreadID: old.ID, AuthorID: "u3", Content: "seconde"}); err != nil {
		t.Fatalf("CreateReply: %v", err)
	}
	threads, _ = store.ListThreads(ctx, cat.ID)
	if threads[1].ID != old.ID || threads[1].ReplyCount != 2 {
		t.Errorf("expected bumped thread second with 2 replies, got %+v", threads[1])
	}

	got, err := store.GetThread(ctx, old.ID)
	if err != nil || got == nil {
		t.Fatalf("GetThread: %v", err)
	}
	if len(got.Replies) != 2 || got.Replies[0].Content != "première" {
		t.Errorf("replies not oldest first: %+v", got.Replies)
	}
}

func TestCreateReplyUnknownThread(t *testing.T) {
	store := setupTestStore(t)
	err := store.CreateReply(context.Background(), &Reply{ThreadID: "nope", Content: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAuthorOnly(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	cat := newCategory(t, store, "Général", 0)
	th := &Thread{CategoryID: cat.ID, AuthorID: "owner", Title: "t", Content: "c"}
	store.CreateThread(ctx, th)
	reply := &Reply{ThreadID: th.ID, AuthorID: "other", Content: "r"}
	store.CreateReply(ctx, reply)

	if err := store.DeleteThread(ctx, th.ID, "other"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := store.DeleteReply(ctx, reply.ID, "other"); err != nil {
		t.Errorf("author should delete own reply: %v", err)
	}
	if err := store.DeleteThread(ctx, th.ID, "owner"); err != nil {
		t.Errorf("owner delete: %v", err)
	}
	if err := store.DeleteThread(ctx, th.ID, "owner"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// --- HTTP tests ---

func setupRouter(store *Store, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUserID(req.Context(), userID)))
		})
	})
	RegisterRoutes(r, store, func(_ context.Context, id string) string { return "Nom de " + id })
	return r
}

func TestForumHandlers(t *testing.T) {
	store := setupTestStore(t)
	cat := newCategory(t, store, "Général", 0)
	r := setupRouter(store, "u1")

	body, _ := json.Marshal(Thread{CategoryID: cat.ID, Title: "Bonjour", Content: "Premier message"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/forum/threads", bytes.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("create thread: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var th Thread
	json.NewDecoder(w.Body).Decode(&th)
	if th.AuthorID != "u1" || th.AuthorName != "Nom de u1" {
		t.Errorf("author not set from context: %+v", th)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/forum/threads/"+th.ID+"/replies", bytes.NewBufferString(`{"content":"Réponse"}`)))
	if w.Code != http.StatusCreated {
		t.Fatalf("create reply: expected 201, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/forum/threads/"+th.ID, nil))
	var got Thread
	json.NewDecoder(w.Body).Decode(&got)
	if len(got.Replies) != 1 {
		t.Errorf("expected 1 reply, got %d", len(got.Replies))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/forum/threads/missing/replies", bytes.NewBufferString(`{"content":"x"}`)))
	if w.Code != http.StatusNotFound {
		t.Errorf("reply to missing thread: expected 404, got %d", w.Code)
	}

	other := setupRouter(store, "u2")
	w = httptest.NewRecorder()
	other.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/forum/threads/"+th.ID, nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("delete by other: expected 403, got %d", w.Code)
	}
}
