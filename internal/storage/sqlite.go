package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/xaenox/micatbot/internal/models"
	"go.uber.org/zap"
)

const sqliteColumns = `id, owner_id, name, description, public_profile, avatar_url, is_public,
	created_at_ms, last_active_at_ms, like_count, interaction_count, tags_json`

// SQLiteStorage keeps catbots in a single local database file.
type SQLiteStorage struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewSQLiteStorage(path string, logger *zap.Logger) (*SQLiteStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite storage: empty path")
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// one writer keeps sqlite from returning SQLITE_BUSY under concurrent handlers
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{db: db, logger: logger, now: time.Now}
	if err := s.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}
	logger.Info("Opened SQLite storage", zap.String("path", path))
	return s, nil
}

func (s *SQLiteStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations/sqlite.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}
	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) CreateCatbot(ctx context.Context, catbot *models.Catbot) error {
	if catbot.ID == "" {
		catbot.ID = uuid.New().String()
	}
	if catbot.CreatedAt.IsZero() {
		catbot.CreatedAt = s.now()
	}
	catbot.Normalize()

	tagsJSON, err := json.Marshal(catbot.Tags)
	if err != nil {
		return fmt.Errorf("error encoding tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO catbots (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		catbot.ID,
		catbot.OwnerID,
		catbot.Name,
		catbot.Description,
		catbot.PublicProfile,
		catbot.AvatarURL,
		catbot.IsPublic,
		catbot.CreatedAt.UnixMilli(),
		catbot.LastActiveAt.UnixMilli(),
		catbot.LikeCount,
		catbot.InteractionCount,
		string(tagsJSON),
	)
	if err != nil {
		return dataSourceError("create catbot", err)
	}
	return nil
}

func (s *SQLiteStorage) GetCatbot(ctx context.Context, id string) (*models.Catbot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM catbots WHERE id = ?`, id)
	catbot, err := scanSQLiteCatbot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dataSourceError("get catbot", err)
	}
	return catbot, nil
}

func (s *SQLiteStorage) ListPublicCatbots(ctx context.Context) ([]models.Catbot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteColumns+`
		FROM catbots
		WHERE is_public = 1
		ORDER BY created_at_ms DESC`)
	if err != nil {
		return nil, dataSourceError("list public catbots", err)
	}
	defer rows.Close()

	var catbots []models.Catbot
	for rows.Next() {
		catbot, err := scanSQLiteCatbot(rows)
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

func (s *SQLiteStorage) IncrementInteractions(ctx context.Context, id string) error {
	return s.exec(ctx, "increment interactions", `
		UPDATE catbots
		SET interaction_count = interaction_count + 1, last_active_at_ms = ?
		WHERE id = ?`, s.now().UnixMilli(), id)
}

func (s *SQLiteStorage) IncrementLikes(ctx context.Context, id string) error {
	return s.exec(ctx, "increment likes",
		`UPDATE catbots SET like_count = like_count + 1 WHERE id = ?`, id)
}

func (s *SQLiteStorage) exec(ctx context.Context, op, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return dataSourceError(op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return dataSourceError(op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanSQLiteCatbot(row rowScanner) (*models.Catbot, error) {
	var (
		catbot       models.Catbot
		createdAtMs  int64
		lastActiveMs int64
		tagsJSON     string
	)
	err := row.Scan(
		&catbot.ID,
		&catbot.OwnerID,
		&catbot.Name,
		&catbot.Description,
		&catbot.PublicProfile,
		&catbot.AvatarURL,
		&catbot.IsPublic,
		&createdAtMs,
		&lastActiveMs,
		&catbot.LikeCount,
		&catbot.InteractionCount,
		&tagsJSON,
	)
	if err != nil {
		return nil, err
	}
	catbot.CreatedAt = time.UnixMilli(createdAtMs).UTC()
	catbot.LastActiveAt = time.UnixMilli(lastActiveMs).UTC()
	if err := json.Unmarshal([]byte(tagsJSON), &catbot.Tags); err != nil {
		return nil, fmt.Errorf("error decoding tags: %w", err)
	}
	catbot.Normalize()
	return &catbot, nil
}
