package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/shohag/pubsubsink/internal/models"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStorage{db: db}, nil
}

func (s *PostgresStorage) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		data TEXT NOT NULL
	)`)
	return err
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) CreateMessage(ctx context.Context, msg *models.Message) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO messages (data) VALUES ($1) RETURNING id`, msg.Data,
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListMessages(ctx context.Context) ([]models.Message, error) {
	return listMessages(ctx, s.db)
}

func (s *PostgresStorage) CountMessages(ctx context.Context) (int64, error) {
	return countMessages(ctx, s.db)
}

func (s *PostgresStorage) DeleteAllMessages(ctx context.Context) (int64, error) {
	return deleteAllMessages(ctx, s.db)
}
