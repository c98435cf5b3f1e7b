// Package redis stores conversations in Redis: one list per session holding
// JSON-encoded messages plus a set of known session ids.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"voice-agent/internal/domain"
)

const defaultPrefix = "voice-agent:"

var _ domain.SessionStore = (*Store)(nil)

type Store struct {
	rdb    goredis.UniversalClient
	prefix string
	now    func() time.Time
}

// Options holds connection settings for Open.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, opts Options) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: connect to %s: %w", opts.Addr, err)
	}
	return New(rdb), nil
}

// New wraps an existing client.
func New(rdb goredis.UniversalClient) *Store {
	return &Store{
		rdb:    rdb,
		prefix: defaultPrefix,
		now:    time.Now,
	}
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) sessionsKey() string {
	return s.prefix + "sessions"
}

func (s *Store) messagesKey(id string) string {
	return s.prefix + "session:" + id + ":messages"
}

func (s *Store) Create(ctx context.Context) (string, error) {
	for {
		id := uuid.NewString()
		added, err := s.rdb.SAdd(ctx, s.sessionsKey(), id).Result()
		if err != nil {
			return "", fmt.Errorf("redis: create session: %w", err)
		}
		if added == 1 {
			return id, nil
		}
	}
}

func (s *Store) Ensure(ctx context.Context, id string) (domain.Session, error) {
	if err := s.rdb.SAdd(ctx, s.sessionsKey(), id).Err(); err != nil {
		return domain.Session{}, fmt.Errorf("redis: ensure session %s: %w", id, err)
	}
	msgs, err := s.lrange(ctx, id, 0, -1)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{ID: id, Messages: msgs}, nil
}

func (s *Store) Append(ctx context.Context, id string, role domain.Role, content string) (domain.Message, error) {
	msg := domain.Message{
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("redis: encode message: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.SAdd(ctx, s.sessionsKey(), id)
		pipe.RPush(ctx, s.messagesKey(id), data)
		return nil
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("redis: append to %s: %w", id, err)
	}
	return msg, nil
}

func (s *Store) Recent(ctx context.Context, id string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	return s.lrange(ctx, id, -int64(limit), -1)
}

func (s *Store) History(ctx context.Context, id string) ([]domain.Message, bool, error) {
	exists, err := s.rdb.SIsMember(ctx, s.sessionsKey(), id).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis: lookup session %s: %w", id, err)
	}
	if !exists {
		return []domain.Message{}, false, nil
	}
	msgs, err := s.lrange(ctx, id, 0, -1)
	if err != nil {
		return nil, false, err
	}
	return msgs, true, nil
}

func (s *Store) lrange(ctx context.Context, id string, start, stop int64) ([]domain.Message, error) {
	raw, err := s.rdb.LRange(ctx, s.messagesKey(id), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: read %s: %w", id, err)
	}
	msgs := make([]domain.Message, 0, len(raw))
	for _, item := range raw {
		var m domain.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("redis: decode message in %s: %w", id, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
