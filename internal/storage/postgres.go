package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/xaenox/micatbot/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

const catbotColumns = `id, owner_id, name, description, public_profile, avatar_url, is_public,
	created_at, last_active_at, like_count, interaction_count, tags`

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func postgresDSN(config DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", postgresDSN(config))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}
	if err := storage.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", config.Host),
		zap.String("dbname", config.DBName))
	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations/postgres.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (s *PostgresStorage) CreateCatbot(ctx context.Context, catbot *models.Catbot) error {
	if catbot.ID == "" {
		catbot.ID = uuid.New().String()
	}
	if catbot.CreatedAt.IsZero() {
		catbot.CreatedAt = time.Now()
	}
	catbot.Normalize()

	query := `
		INSERT INTO catbots (` + catbotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.ExecContext(ctx, query,
		catbot.ID,
		catbot.OwnerID,
		catbot.Name,
		catbot.Description,
		catbot.PublicProfile,
		catbot.AvatarURL,
		catbot.IsPublic,
		catbot.CreatedAt,
		catbot.LastActiveAt,
		catbot.LikeCount,
		catbot.InteractionCount,
		pq.Array(catbot.Tags),
	)
	if err != nil {
		return dataSourceError("create catbot", err)
	}
	return nil
}

func (s *PostgresStorage) GetCatbot(ctx context.Context, id string) (*models.Catbot, error) {
	query := `SELECT ` + catbotColumns + ` FROM catbots WHERE id = $1`

	catbot, err := scanPostgresCatbot(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dataSourceError("get catbot", err)
	}
	return catbot, nil
}

func (s *PostgresStorage) ListPublicCatbots(ctx context.Context) ([]models.Catbot, error) {
	query := `
		SELECT ` + catbotColumns + `
		FROM catbots
		WHERE is_public = TRUE
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dataSourceError("list public catbots", err)
	}
	defer rows.Close()

	var catbots []models.Catbot
	for rows.Next() {
		catbot, err := scanPostgresCatbot(rows)
		if err != nil {
			return nil, dataSourceError("scan catbot", err)
		}
		catbots = append(catbots, *catbot)
	}
	if err := rows.Err(); err != nil {
		return nil, dataSourceError("list public catbots", err)
	}
	return catbots, nil
}

func (s *PostgresStorage) IncrementInteractions(ctx context.Context, id string) error {
	return s.exec(ctx, "increment interactions", `
		UPDATE catbots
		SET interaction_count = interaction_count + 1, last_active_at = NOW()
		WHERE id = $1`, id)
}

func (s *PostgresStorage) IncrementLikes(ctx context.Context, id string) error {
	return s.exec(ctx, "increment likes",
		`UPDATE catbots SET like_count = like_count + 1 WHERE id = $1`, id)
}

func (s *PostgresStorage) exec(ctx context.Context, op, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return dataSourceError(op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return dataSourceError(op, fmt.Errorf("error getting rows affected: %w", err))
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgresCatbot(row rowScanner) (*models.Catbot, error) {
	catbot := &models.Catbot{}
	err := row.Scan(
		&catbot.ID,
		&catbot.OwnerID,
		&catbot.Name,
		&catbot.Description,
		&catbot.PublicProfile,
		&catbot.AvatarURL,
		&catbot.IsPublic,
		&catbot.CreatedAt,
		&catbot.LastActiveAt,
		&catbot.LikeCount,
		&catbot.InteractionCount,
		pq.Array(&catbot.Tags),
	)
	if err != nil {
		return nil, err
	}
	catbot.Normalize()
	return catbot, nil
}
