package session

import "context"

// Message is one conversational turn kept in session history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store keeps a rolling window of recent exchanges per session, where one
// exchange is a user message and the assistant reply. Appending past the
// window silently drops the oldest messages.
type Store interface {
	// Append records one message at the end of the session history.
	Append(ctx context.Context, sessionID string, msg Message) error
	// Window returns the retained messages, oldest first.
	Window(ctx context.Context, sessionID string) ([]Message, error)
	// Clear removes all history for the session.
	Clear(ctx context.Context, sessionID string) error
	// Close releases any backing resources.
	Close() error
}
