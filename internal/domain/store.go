package domain

import "context"

// DefaultContextWindow is the number of trailing messages used to build a
// conversational prompt.
const DefaultContextWindow = 19

// SessionStore owns every conversation. Callers only ever receive copies.
// Operations on one session id are linearizable; different ids are
// independent.
type SessionStore interface {
	// Create registers an empty session under a fresh unique id.
	Create(ctx context.Context) (string, error)
	// Ensure returns the session, creating an empty one if id is unknown.
	Ensure(ctx context.Context, id string) (Session, error)
	// Append stamps the current time and adds the message at the tail.
	Append(ctx context.Context, id string, role Role, content string) (Message, error)
	// Recent returns at most limit messages from the tail, oldest first.
	Recent(ctx context.Context, id string, limit int) ([]Message, error)
	// History returns all messages and whether the session exists.
	History(ctx context.Context, id string) ([]Message, bool, error)
}
