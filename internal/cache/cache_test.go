package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestKeyNormalization(t *testing.T) {
	cases := []struct{ a, b string }{
		{"AAPL price", "aapl price"},
		{"  AAPL   price ", "AAPL price"},
		{"What is\tTSLA doing", "what is tsla doing"},
	}
	for _, c := range cases {
		if Key("api_plan", c.a) != Key("api_plan", c.b) {
			t.Fatalf("expected %q and %q to share a cache key", c.a, c.b)
		}
	}
}

func TestKeyPrefixesDiffer(t *testing.T) {
	if PlanKey("AAPL price") == ResponseKey("AAPL price") {
		t.Fatal("plan and response keys must not collide")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	key := ResponseKey("msft outlook")
	if err := s.Set(ctx, key, []byte(`{"answer":"ok"}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"answer":"ok"}` {
		t.Fatalf("unexpected value: %s", got)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	key := ResponseKey("short lived")
	if err := s.Set(ctx, key, []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := s.Get(ctx, key); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after expiry, got %v", err)
	}
}

func TestNoopAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	var s Noop
	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}
