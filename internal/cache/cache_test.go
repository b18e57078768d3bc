package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, ok, _ := m.Get(ctx, "absent"); ok {
		t.Error("expected miss for absent key")
	}

	m.Set(ctx, "k", []byte("valeur"), 0)
	v, ok, err := m.Get(ctx, "k")
	if err != nil || !ok || string(v) != "valeur" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}

	// Returned slices are copies.
	v[0] = 'X'
	v2, _, _ := m.Get(ctx, "k")
	if string(v2) != "valeur" {
		t.Errorf("cache value mutated through returned slice: %q", v2)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	m.Set(ctx, "k", []byte("v"), time.Minute)
	now = now.Add(59 * time.Second)
	if _, ok, _ := m.Get(ctx, "k"); !ok {
		t.Error("expected hit before expiry")
	}
	now = now.Add(time.Second)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Error("expected miss at expiry")
	}
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.Set(ctx, "a", []byte("1"), 0)
	m.Set(ctx, "b", []byte("2"), 0)
	m.Delete(ctx, "a", "b", "c")
	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Error("a still present")
	}
	if _, ok, _ := m.Get(ctx, "b"); ok {
		t.Error("b still present")
	}
}

func TestNewRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedis(ctx, RedisOptions{Addr: "127.0.0.1:1"}); err == nil {
		t.Error("expected error connecting to a closed port")
	}
}

var (
	_ Cache = (*Memory)(nil)
	_ Cache = (*Redis)(nil)
)
