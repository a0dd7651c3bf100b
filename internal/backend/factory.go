package backend

import (
	"context"
	"fmt"
	"log/slog"

	"hisab/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new store factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// Create implements Factory.Create
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLite(config)
	case PostgresBackend:
		return f.createPostgres(ctx, config)
	case MemoryBackend:
		return f.createMemory()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLite(config Config) (*Result, error) {
	store, err := storage.NewSQLiteShareStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite share store: %w", err)
	}

	f.logger.Info("Initialized SQLite share store", "db_path", config.SQLiteDBPath)

	return &Result{Store: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createPostgres(ctx context.Context, config Config) (*Result, error) {
	store, err := storage.NewPostgresShareStore(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL share store: %w", err)
	}

	f.logger.Info("Initialized PostgreSQL share store")

	return &Result{Store: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createMemory() (*Result, error) {
	store := storage.NewMemoryShareStore()

	f.logger.Warn("Using in-memory share store, links are lost on restart")

	return &Result{Store: store, Cleanup: store.Close}, nil
}
