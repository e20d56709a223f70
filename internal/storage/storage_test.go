package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/micatbot/internal/models"
	"go.uber.org/zap"
)

func newSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "catbots.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func backends(t *testing.T) map[string]Storage {
	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"sqlite": newSQLite(t),
	}
}

func seed(t *testing.T, s Storage) {
	t.Helper()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	catbots := []models.Catbot{
		{ID: "1", Name: "Mochi", IsPublic: true, Tags: []string{"Funny"}, CreatedAt: base},
		{ID: "2", Name: "Shadow", IsPublic: false, CreatedAt: base.Add(time.Hour)},
		{ID: "3", Name: "Luna the Cat", Description: "sleepy", IsPublic: true, CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range catbots {
		require.NoError(t, s.CreateCatbot(context.Background(), &catbots[i]))
	}
}

func TestListPublicCatbots(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)

			got, err := s.ListPublicCatbots(context.Background())
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "3", got[0].ID, "newest first")
			assert.Equal(t, "1", got[1].ID)
			for _, c := range got {
				assert.True(t, c.IsPublic)
			}
			assert.Equal(t, "sleepy", got[0].Profile)
			assert.Equal(t, models.PlaceholderAvatar("Luna the Cat"), got[0].AvatarURL)
			assert.Equal(t, []string{"Funny"}, got[1].Tags)
			assert.Equal(t, []string{}, got[0].Tags)
		})
	}
}

func TestCounters(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)
			ctx := context.Background()

			require.NoError(t, s.IncrementInteractions(ctx, "1"))
			require.NoError(t, s.IncrementInteractions(ctx, "1"))
			require.NoError(t, s.IncrementLikes(ctx, "1"))

			c, err := s.GetCatbot(ctx, "1")
			require.NoError(t, err)
			assert.Equal(t, int64(2), c.InteractionCount)
			assert.Equal(t, int64(1), c.LikeCount)
			assert.True(t, c.LastActiveAt.After(c.CreatedAt))

			assert.ErrorIs(t, s.IncrementLikes(ctx, "missing"), ErrNotFound)
			_, err = s.GetCatbot(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestCreateAssignsID(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := &models.Catbot{Name: "Pixel", IsPublic: true}
			require.NoError(t, s.CreateCatbot(context.Background(), c))
			assert.NotEmpty(t, c.ID)
			assert.False(t, c.CreatedAt.IsZero())

			got, err := s.GetCatbot(context.Background(), c.ID)
			require.NoError(t, err)
			assert.Equal(t, "Pixel", got.Name)
		})
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	s := NewMemoryStorage()
	seed(t, s)

	got, err := s.ListPublicCatbots(context.Background())
	require.NoError(t, err)
	got[1].Tags[0] = "mutated"

	c, err := s.GetCatbot(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Funny"}, c.Tags)
}

func TestMemoryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStorage().ListPublicCatbots(ctx)
	var dsErr *DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, "list public catbots", dsErr.Op)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSQLiteClosedReturnsDataSourceError(t *testing.T) {
	s := newSQLite(t)
	require.NoError(t, s.Close())

	_, err := s.ListPublicCatbots(context.Background())
	var dsErr *DataSourceError
	assert.True(t, errors.As(err, &dsErr))
}

func TestSQLiteRejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ", zap.NewNop())
	assert.Error(t, err)
}

func TestOpenSelectsBackend(t *testing.T) {
	logger := zap.NewNop()

	s, err := Open(DatabaseConfig{Driver: "memory"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, s)

	path := filepath.Join(t.TempDir(), "open.db")
	s, err = Open(DatabaseConfig{Driver: "sqlite", Path: path}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	assert.IsType(t, &SQLiteStorage{}, s)
	_, err = os.Stat(path)
	assert.NoError(t, err)

	_, err = Open(DatabaseConfig{Driver: "sqlite"}, logger)
	assert.Error(t, err)

	_, err = Open(DatabaseConfig{Driver: "mongo"}, logger)
	assert.EqualError(t, err, `unknown database driver "mongo"`)
}

func TestPostgresDSN(t *testing.T) {
	dsn := postgresDSN(DatabaseConfig{
		Host: "db", Port: 5433, User: "cat", Password: "meow", DBName: "micatbot", SSLMode: "disable",
	})
	assert.Equal(t, "host=db port=5433 user=cat password=meow dbname=micatbot sslmode=disable", dsn)
}

func TestPostgresIntegration(t *testing.T) {
	if os.Getenv("MICATBOT_TEST_POSTGRES") == "" {
		t.Skip("MICATBOT_TEST_POSTGRES not set")
	}
	s, err := NewPostgresStorage(DatabaseConfig{
		Host:     os.Getenv("PGHOST"),
		Port:     5432,
		User:     os.Getenv("PGUSER"),
		Password: os.Getenv("PGPASSWORD"),
		DBName:   os.Getenv("PGDATABASE"),
		SSLMode:  "disable",
	}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.db.Exec(`TRUNCATE catbots`)
	require.NoError(t, err)
	seed(t, s)

	got, err := s.ListPublicCatbots(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
}
