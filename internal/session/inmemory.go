package session

import (
	"context"
	"sync"
)

type memorySession struct {
	mu       sync.Mutex
	messages []Message
}

// MemoryStore keeps histories in a process-local map. Mutation funnels
// through a per-session lock so concurrent appends on one session never
// corrupt the slice.
type MemoryStore struct {
	mu          sync.Mutex
	sessions    map[string]*memorySession
	maxMessages int
}

func NewMemoryStore(maxMessages int) *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]*memorySession),
		maxMessages: maxMessages,
	}
}

func (s *MemoryStore) session(id string) *memorySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &memorySession{}
		s.sessions[id] = sess
	}
	return sess
}

func (s *MemoryStore) Append(ctx context.Context, sessionID, role, content string) error {
	sess := s.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.messages = append(sess.messages, Message{Role: role, Content: content})
	sess.messages = truncate(sess.messages, s.maxMessages)
	return nil
}

func (s *MemoryStore) History(ctx context.Context, sessionID string) ([]Message, error) {
	sess := s.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]Message, len(sess.messages))
	copy(out, sess.messages)
	return out, nil
}
