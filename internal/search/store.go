// Package search holds the public catbot roster and the live filtered
// view under the current query and tag selection.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/xaenox/micatbot/internal/models"
	"github.com/xaenox/micatbot/internal/storage"
	"github.com/xaenox/micatbot/internal/tags"
	"go.uber.org/zap"
)

// ErrClosed is returned by Load after Close.
var ErrClosed = errors.New("search store closed")

// State is a point-in-time view of the store's flags and filter.
type State struct {
	Query        string
	SelectedTags []string
	IsSearching  bool
	Loading      bool
	LoadFailed   bool
	RosterSize   int
}

// Store is owned by one consumer. Only its own methods mutate it.
type Store struct {
	source storage.RosterSource
	logger *zap.Logger

	mu            sync.RWMutex
	roster        []models.Catbot
	availableTags []string
	query         string
	selectedTags  []string
	filtered      []models.Catbot
	loadFailed    bool
	closed        bool

	// latest started load; only its result is applied
	loadSeq uint64
	pending map[uint64]context.CancelFunc
}

func New(source storage.RosterSource, logger *zap.Logger) *Store {
	return &Store{
		source:  source,
		logger:  logger,
		pending: make(map[uint64]context.CancelFunc),
	}
}

// Load replaces the roster with the source's public catbots. On failure
// the previous roster is kept and LoadFailed is set. When loads overlap
// the most recently started one wins; results of older loads and of
// loads still pending at Close are dropped.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.loadSeq++
	seq := s.loadSeq
	ctx, cancel := context.WithCancel(ctx)
	s.pending[seq] = cancel
	s.mu.Unlock()

	catbots, err := s.source.ListPublicCatbots(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()
	delete(s.pending, seq)

	if s.closed {
		s.logger.Debug("Discarding roster load after close", zap.Uint64("load", seq))
		return ErrClosed
	}
	if seq != s.loadSeq {
		s.logger.Debug("Discarding superseded roster load",
			zap.Uint64("load", seq),
			zap.Uint64("latest", s.loadSeq))
		return nil
	}

	if err != nil {
		s.loadFailed = true
		s.logger.Error("Failed to load catbot roster", zap.Error(err))
		var dsErr *storage.DataSourceError
		if !errors.As(err, &dsErr) {
			err = &storage.DataSourceError{Op: "list public catbots", Err: err}
		}
		return err
	}

	roster := make([]models.Catbot, 0, len(catbots))
	for _, c := range catbots {
		if !c.IsPublic {
			s.logger.Error("Roster source returned a private catbot", zap.String("catbot_id", c.ID))
			continue
		}
		roster = append(roster, c)
	}

	s.roster = roster
	s.availableTags = tags.ListTags()
	s.loadFailed = false
	s.recompute()

	s.logger.Info("Loaded catbot roster", zap.Int("count", len(roster)))
	return nil
}

// Close tears the store down. Pending loads are canceled and their
// results discarded.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for seq, cancel := range s.pending {
		cancel()
		delete(s.pending, seq)
	}
}

func (s *Store) SetQuery(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.query = text
	s.recompute()
}

func (s *Store) SetSelectedTags(selected []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectedTags = dedupe(selected)
	s.recompute()
}

// Clear resets the query and tag selection. Idempotent.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.query = ""
	s.selectedTags = nil
	s.recompute()
}

func (s *Store) IsSearching() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSearching()
}

// Filtered returns the catbots matching the current filter. It is only
// meaningful while IsSearching is true; use Visible otherwise.
func (s *Store) Filtered() []models.Catbot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Catbot(nil), s.filtered...)
}

// Roster returns the full public roster, newest first.
func (s *Store) Roster() []models.Catbot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Catbot(nil), s.roster...)
}

// Visible is the filtered view while searching and the roster otherwise.
func (s *Store) Visible() []models.Catbot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.isSearching() {
		return append([]models.Catbot(nil), s.filtered...)
	}
	return append([]models.Catbot(nil), s.roster...)
}

func (s *Store) AvailableTags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.availableTags...)
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending) > 0
}

func (s *Store) LoadFailed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadFailed
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Query:        s.query,
		SelectedTags: append([]string(nil), s.selectedTags...),
		IsSearching:  s.isSearching(),
		Loading:      len(s.pending) > 0,
		LoadFailed:   s.loadFailed,
		RosterSize:   len(s.roster),
	}
}

func (s *Store) isSearching() bool {
	return strings.TrimSpace(s.query) != "" || len(s.selectedTags) > 0
}

// recompute must be called with mu held for writing.
func (s *Store) recompute() {
	if !s.isSearching() {
		s.filtered = nil
		return
	}

	query := strings.ToLower(strings.TrimSpace(s.query))
	filtered := make([]models.Catbot, 0, len(s.roster))
	for i := range s.roster {
		c := &s.roster[i]
		if query != "" && !matchesText(c, query) {
			continue
		}
		if len(s.selectedTags) > 0 && !c.HasAnyTag(s.selectedTags) {
			continue
		}
		filtered = append(filtered, *c)
	}
	s.filtered = filtered
}

func matchesText(c *models.Catbot, query string) bool {
	for _, field := range []string{c.Name, c.Description, c.PublicProfile} {
		if field != "" && strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
