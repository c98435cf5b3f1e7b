package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Label is the speaker prefix used when a message is rendered into a prompt.
func (r Role) Label() string {
	if r == RoleUser {
		return "User"
	}
	return "Assistant"
}

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Session struct {
	ID       string    `json:"session_id"`
	Messages []Message `json:"messages"`
}

// History is the read model returned to callers inspecting a session.
type History struct {
	SessionID string
	Exists    bool
	Messages  []Message
}
