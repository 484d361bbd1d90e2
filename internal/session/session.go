package session

import "context"

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store keeps per-session conversation history. History is bounded to the
// store's configured maximum, truncated oldest-first, and lives only for the
// session TTL (or process lifetime for the in-memory backing). Append and
// History are individually safe for concurrent use, but two requests racing
// on the same session id can interleave between a History read and a later
// Append; that window is a documented weakness, not guarded.
type Store interface {
	Append(ctx context.Context, sessionID, role, content string) error
	History(ctx context.Context, sessionID string) ([]Message, error)
}

func truncate(msgs []Message, max int) []Message {
	if max > 0 && len(msgs) > max {
		return msgs[len(msgs)-max:]
	}
	return msgs
}
