package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStoreAppendAndHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20)

	if err := s.Append(ctx, "sess-1", "user", "AAPL price"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, "sess-1", "assistant", "AAPL closed at $150"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	msgs, err := s.History(ctx, "sess-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Fatalf("unexpected roles: %+v", msgs)
	}
}

func TestMemoryStoreIsolatesSessions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20)

	_ = s.Append(ctx, "a", "user", "hello")
	msgs, err := s.History(ctx, "b")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty history for fresh session, got %d", len(msgs))
	}
}

func TestMemoryStoreTruncatesOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20)

	for i := 0; i < 25; i++ {
		_ = s.Append(ctx, "sess", "user", fmt.Sprintf("message %d", i))
	}
	msgs, _ := s.History(ctx, "sess")
	if len(msgs) != 20 {
		t.Fatalf("expected history capped at 20, got %d", len(msgs))
	}
	if msgs[0].Content != "message 5" {
		t.Fatalf("expected oldest entries dropped, first is %q", msgs[0].Content)
	}
	if msgs[19].Content != "message 24" {
		t.Fatalf("expected newest entry kept, last is %q", msgs[19].Content)
	}
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Append(ctx, "sess", "user", fmt.Sprintf("m%d", i))
		}(i)
	}
	wg.Wait()

	msgs, _ := s.History(ctx, "sess")
	if len(msgs) != 50 {
		t.Fatalf("expected 50 messages, got %d", len(msgs))
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20)
	_ = s.Append(ctx, "sess", "user", "original")

	msgs, _ := s.History(ctx, "sess")
	msgs[0].Content = "mutated"

	again, _ := s.History(ctx, "sess")
	if again[0].Content != "original" {
		t.Fatal("History must return a copy, not the backing slice")
	}
}
