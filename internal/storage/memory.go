package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/micatbot/internal/models"
)

type MemoryStorage struct {
	mu      sync.RWMutex
	catbots map[string]*models.Catbot
	now     func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		catbots: make(map[string]*models.Catbot),
		now:     time.Now,
	}
}

func (s *MemoryStorage) CreateCatbot(ctx context.Context, catbot *models.Catbot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if catbot.ID == "" {
		catbot.ID = uuid.New().String()
	}
	if catbot.CreatedAt.IsZero() {
		catbot.CreatedAt = s.now()
	}
	catbot.Normalize()

	stored := *catbot
	stored.Tags = append([]string(nil), catbot.Tags...)
	s.catbots[catbot.ID] = &stored
	return nil
}

func (s *MemoryStorage) GetCatbot(ctx context.Context, id string) (*models.Catbot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.catbots[id]
	if !exists {
		return nil, ErrNotFound
	}
	out := copyCatbot(c)
	return &out, nil
}

func (s *MemoryStorage) ListPublicCatbots(ctx context.Context) ([]models.Catbot, error) {
	if err := ctx.Err(); err != nil {
		return nil, dataSourceError("list public catbots", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Catbot, 0, len(s.catbots))
	for _, c := range s.catbots {
		if c.IsPublic {
			out = append(out, copyCatbot(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStorage) IncrementInteractions(ctx context.Context, id string) error {
	return s.update(id, func(c *models.Catbot) {
		c.InteractionCount++
		c.LastActiveAt = s.now()
	})
}

func (s *MemoryStorage) IncrementLikes(ctx context.Context, id string) error {
	return s.update(id, func(c *models.Catbot) { c.LikeCount++ })
}

func (s *MemoryStorage) update(id string, fn func(*models.Catbot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.catbots[id]
	if !exists {
		return ErrNotFound
	}
	fn(c)
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

func copyCatbot(c *models.Catbot) models.Catbot {
	out := *c
	out.Tags = append([]string{}, c.Tags...)
	return out
}
