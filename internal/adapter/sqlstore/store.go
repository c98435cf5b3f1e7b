// Package sqlstore persists conversations through GORM. SQLite and MySQL
// are supported.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"voice-agent/internal/domain"
)

var _ domain.SessionStore = (*Store)(nil)

// sessionRow marks a session as existing even before it has messages.
type sessionRow struct {
	ID        string `gorm:"primaryKey;size:64"`
	CreatedAt time.Time
}

func (sessionRow) TableName() string { return "sessions" }

// messageRow ids are auto-incremented, so ordering by id is insertion order.
type messageRow struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"size:64;index;not null"`
	Role      string `gorm:"size:16;not null"`
	Content   string `gorm:"type:text;not null"`
	Timestamp time.Time
}

func (messageRow) TableName() string { return "session_messages" }

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Open connects using driver ("sqlite" or "mysql") and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: connect %s: %w", driver, err)
	}
	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlstore: %w", err)
		}
		// SQLite allows a single writer; in-memory databases are per connection.
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: db is required")
	}
	if err := db.AutoMigrate(&sessionRow{}, &messageRow{}); err != nil {
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Create(ctx context.Context) (string, error) {
	row := sessionRow{ID: uuid.NewString(), CreatedAt: s.now()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("sqlstore: create session: %w", err)
	}
	return row.ID, nil
}

func (s *Store) Ensure(ctx context.Context, id string) (domain.Session, error) {
	var msgs []domain.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureRow(tx, id); err != nil {
			return err
		}
		var err error
		msgs, err = s.load(tx.Order("id ASC"), id)
		return err
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("sqlstore: ensure session %s: %w", id, err)
	}
	return domain.Session{ID: id, Messages: msgs}, nil
}

func (s *Store) Append(ctx context.Context, id string, role domain.Role, content string) (domain.Message, error) {
	msg := domain.Message{Role: role, Content: content, Timestamp: s.now()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureRow(tx, id); err != nil {
			return err
		}
		return tx.Create(&messageRow{
			SessionID: id,
			Role:      string(role),
			Content:   content,
			Timestamp: msg.Timestamp,
		}).Error
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("sqlstore: append to %s: %w", id, err)
	}
	return msg, nil
}

func (s *Store) Recent(ctx context.Context, id string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	msgs, err := s.load(s.db.WithContext(ctx).Order("id DESC").Limit(limit), id)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: recent %s: %w", id, err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *Store) History(ctx context.Context, id string) ([]domain.Message, bool, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&sessionRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, false, fmt.Errorf("sqlstore: lookup session %s: %w", id, err)
	}
	if count == 0 {
		return []domain.Message{}, false, nil
	}
	msgs, err := s.load(db.Order("id ASC"), id)
	if err != nil {
		return nil, false, fmt.Errorf("sqlstore: history %s: %w", id, err)
	}
	return msgs, true, nil
}

// ensureRow inserts the session row unless it exists. A concurrent insert
// of the same id is not an error.
func (s *Store) ensureRow(tx *gorm.DB, id string) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&sessionRow{ID: id, CreatedAt: s.now()}).Error
}

func (s *Store) load(q *gorm.DB, id string) ([]domain.Message, error) {
	var rows []messageRow
	if err := q.Where("session_id = ?", id).Find(&rows).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, len(rows))
	for i, r := range rows {
		msgs[i] = domain.Message{
			Role:      domain.Role(r.Role),
			Content:   r.Content,
			Timestamp: r.Timestamp,
		}
	}
	return msgs, nil
}
