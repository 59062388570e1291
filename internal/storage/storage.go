package storage

import (
	"context"

	"github.com/shohag/pubsubsink/internal/models"
)

// Storage is the append-only message table behind the push and read endpoints.
type Storage interface {
	// Messages
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context) ([]models.Message, error)
	CountMessages(ctx context.Context) (int64, error)
	DeleteAllMessages(ctx context.Context) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
