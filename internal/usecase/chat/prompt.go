package chat

import (
	"strings"

	"voice-agent/internal/domain"
)

// MaxResponseChars caps every generated answer, counted in characters.
const MaxResponseChars = 2500

const (
	conversationPreamble = "You are a helpful AI assistant. Here's our conversation so far:\n\n"
	conversationClosing  = "\n\nPlease provide a helpful response (under 2500 chars):"
	queryPreamble        = "Please provide a helpful and concise response (under 2500 chars) to this:\n\n"
	queryClosing         = "\n\nResponse:"
)

// ConversationPrompt renders window minus its last message, then the current
// utterance. The last window entry is the just-appended utterance, so it is
// skipped and written explicitly to appear exactly once.
func ConversationPrompt(window []domain.Message, utterance string) string {
	var b strings.Builder
	b.WriteString(conversationPreamble)
	if len(window) > 0 {
		for _, m := range window[:len(window)-1] {
			b.WriteString(m.Role.Label())
			b.WriteString(": ")
			b.WriteString(m.Content)
			b.WriteByte('\n')
		}
	}
	b.WriteString(domain.RoleUser.Label())
	b.WriteString(": ")
	b.WriteString(utterance)
	b.WriteString(conversationClosing)
	return b.String()
}

// QueryPrompt wraps a single utterance for a history-free answer.
func QueryPrompt(utterance string) string {
	return queryPreamble + domain.RoleUser.Label() + ": " + utterance + queryClosing
}

// Truncate returns the first limit characters of s.
func Truncate(s string, limit int) string {
	if limit < 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
