package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"voice-agent/internal/domain"
)

var _ domain.SessionStore = (*Store)(nil)

// Store keeps every session in process memory behind one mutex. It never
// returns an error.
type Store struct {
	mu       sync.Mutex
	sessions map[string][]domain.Message
	now      func() time.Time
	newID    func() string
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string][]domain.Message),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *Store) Create(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for {
		if _, taken := s.sessions[id]; !taken {
			break
		}
		id = s.newID()
	}
	s.sessions[id] = []domain.Message{}
	return id, nil
}

func (s *Store) Ensure(_ context.Context, id string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.sessions[id]
	if !ok {
		history = []domain.Message{}
		s.sessions[id] = history
	}
	return domain.Session{ID: id, Messages: cloneMessages(history)}, nil
}

func (s *Store) Append(_ context.Context, id string, role domain.Role, content string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := domain.Message{
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}
	s.sessions[id] = append(s.sessions[id], msg)
	return msg, nil
}

func (s *Store) Recent(_ context.Context, id string, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.sessions[id]
	if limit <= 0 || len(history) == 0 {
		return nil, nil
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return cloneMessages(history), nil
}

func (s *Store) History(_ context.Context, id string) ([]domain.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.sessions[id]
	if !ok {
		return []domain.Message{}, false, nil
	}
	return cloneMessages(history), true, nil
}

func cloneMessages(msgs []domain.Message) []domain.Message {
	return append([]domain.Message{}, msgs...)
}
