package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaenox/micatbot/internal/models"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a catbot id does not exist.
var ErrNotFound = errors.New("catbot not found")

// DataSourceError reports a failed read or write against a backend.
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source: %s: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

func dataSourceError(op string, err error) error {
	return &DataSourceError{Op: op, Err: err}
}

// RosterSource lists public catbots, newest first.
type RosterSource interface {
	ListPublicCatbots(ctx context.Context) ([]models.Catbot, error)
}

type Storage interface {
	RosterSource

	CreateCatbot(ctx context.Context, catbot *models.Catbot) error
	GetCatbot(ctx context.Context, id string) (*models.Catbot, error)
	IncrementInteractions(ctx context.Context, id string) error
	IncrementLikes(ctx context.Context, id string) error
	Close() error
}

// DatabaseConfig selects and configures a backend
type DatabaseConfig struct {
	// Driver is "postgres", "sqlite" or "memory"; empty means postgres
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Path is the SQLite database file
	Path     string
}

// Open returns the backend named by config.Driver.
func Open(config DatabaseConfig, logger *zap.Logger) (Storage, error) {
	switch config.Driver {
	case "memory":
		logger.Info("Using in-memory storage")
		return NewMemoryStorage(), nil
	case "sqlite":
		logger.Info("Using SQLite storage", zap.String("path", config.Path))
		return NewSQLiteStorage(config.Path, logger)
	case "", "postgres":
		logger.Info("Using PostgreSQL storage", zap.String("host", config.Host))
		return NewPostgresStorage(config, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", config.Driver)
	}
}
