package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/vidaplena/analytics/internal/domain/clinical"
	"github.com/vidaplena/analytics/internal/domain/hr"
	"github.com/vidaplena/analytics/internal/domain/supply"
	"github.com/vidaplena/analytics/internal/generate"
	"github.com/vidaplena/analytics/internal/platform/tabular"
	"github.com/vidaplena/analytics/internal/platform/telemetry"
)

// NotGeneratedError reports a dataset file that does not exist yet. It
// unwraps to tabular.ErrNotFound.
type NotGeneratedError struct {
	Dataset generate.Dataset
	Path    string
}

func (e *NotGeneratedError) Error() string {
	return fmt.Sprintf("dataset %s has not been generated (expected at %s); run `vidaplena generate %s`", e.Dataset, e.Path, e.Dataset)
}

func (e *NotGeneratedError) Unwrap() error { return tabular.ErrNotFound }

// cacheEntry holds a loaded table and its expiration time.
type cacheEntry struct {
	table     any
	expiresAt time.Time
}

// Store loads dataset tables on first use and keeps them for a TTL. Concurrent
// requests for the same dataset share one load. Each dataset carries a
// generation number bumped by Invalidate; a load started under an older
// generation is returned to its callers but never cached.
type Store struct {
	paths   generate.Paths
	ttl     time.Duration
	metrics *telemetry.Metrics
	logger  zerolog.Logger

	mu      sync.RWMutex
	entries map[generate.Dataset]*cacheEntry
	gens    map[generate.Dataset]uint64
	group   singleflight.Group
	now     func() time.Time
}

// NewStore returns a Store. A zero ttl disables caching; metrics may be nil.
func NewStore(paths generate.Paths, ttl time.Duration, metrics *telemetry.Metrics, logger zerolog.Logger) *Store {
	return &Store{
		paths:   paths,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
		entries: make(map[generate.Dataset]*cacheEntry),
		gens:    make(map[generate.Dataset]uint64),
		now:     time.Now,
	}
}

// Clinical returns the encounters table.
func (s *Store) Clinical(ctx context.Context) (*clinical.Table, error) {
	v, err := s.get(ctx, generate.Clinical, func(ctx context.Context, path string) (any, int, error) {
		t, err := clinical.Load(ctx, path)
		if err != nil {
			return nil, 0, err
		}
		return t, t.Skipped, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*clinical.Table), nil
}

// Supply returns the purchase-orders table.
func (s *Store) Supply(ctx context.Context) (*supply.Table, error) {
	v, err := s.get(ctx, generate.Supply, func(ctx context.Context, path string) (any, int, error) {
		t, err := supply.Load(ctx, path)
		if err != nil {
			return nil, 0, err
		}
		return t, t.Skipped, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*supply.Table), nil
}

// HR returns the employees table.
func (s *Store) HR(ctx context.Context) (*hr.Table, error) {
	v, err := s.get(ctx, generate.HR, func(ctx context.Context, path string) (any, int, error) {
		t, err := hr.Load(ctx, path)
		if err != nil {
			return nil, 0, err
		}
		return t, t.Skipped, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*hr.Table), nil
}

// Invalidate drops the cached table of d.
func (s *Store) Invalidate(d generate.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, d)
	s.gens[d]++
}

// Clear drops every cached table.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[generate.Dataset]*cacheEntry)
	for _, d := range generate.Datasets {
		s.gens[d]++
	}
}

type loadFunc func(ctx context.Context, path string) (table any, skipped int, err error)

// get performs lazy expiration: an expired entry is dropped and reloaded.
func (s *Store) get(ctx context.Context, d generate.Dataset, load loadFunc) (any, error) {
	s.mu.RLock()
	entry, ok := s.entries[d]
	gen := s.gens[d]
	s.mu.RUnlock()
	if ok && s.now().Before(entry.expiresAt) {
		return entry.table, nil
	}

	key := fmt.Sprintf("%s#%d", d, gen)
	v, err, _ := s.group.Do(key, func() (any, error) {
		path := s.paths.For(d)
		log := s.logger.With().Str("dataset", string(d)).Str("path", path).Logger()
		start := time.Now()
		table, skipped, err := load(log.WithContext(ctx), path)
		if err != nil {
			if errors.Is(err, tabular.ErrNotFound) {
				return nil, &NotGeneratedError{Dataset: d, Path: path}
			}
			return nil, err
		}
		elapsed := time.Since(start)
		if s.metrics != nil {
			s.metrics.RecordLoad(string(d), skipped, elapsed)
		}
		log.Info().Int("skipped", skipped).Dur("elapsed", elapsed).Msg("dataset loaded")

		if s.ttl > 0 {
			s.mu.Lock()
			if s.gens[d] == gen {
				s.entries[d] = &cacheEntry{table: table, expiresAt: s.now().Add(s.ttl)}
			} else {
				log.Debug().Msg("dataset invalidated during load; result not cached")
			}
			s.mu.Unlock()
		}
		return table, nil
	})
	return v, err
}
