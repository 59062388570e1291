package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shohag/pubsubsink/internal/models"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	// AUTOINCREMENT keeps ids from being reused after a bulk clear.
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		data TEXT NOT NULL
	)`)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) CreateMessage(ctx context.Context, msg *models.Message) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO messages (data) VALUES (?)`, msg.Data)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted message id: %w", err)
	}
	msg.ID = id
	return nil
}

func (s *SQLiteStorage) ListMessages(ctx context.Context) ([]models.Message, error) {
	return listMessages(ctx, s.db)
}

func (s *SQLiteStorage) CountMessages(ctx context.Context) (int64, error) {
	return countMessages(ctx, s.db)
}

func (s *SQLiteStorage) DeleteAllMessages(ctx context.Context) (int64, error) {
	return deleteAllMessages(ctx, s.db)
}
