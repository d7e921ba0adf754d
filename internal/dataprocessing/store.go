package dataprocessing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pronafmonitor/pkg/contracts/domain"
)

// LoadObserver is notified after each successful load from disk.
type LoadObserver func(ctx context.Context, source string, rows int, took time.Duration)

// Store memoizes cleaned datasets by source path for the life of the
// process. Concurrent first requests for the same path share one read.
// Failed loads are not remembered.
type Store struct {
	loader   *Loader
	logger   *slog.Logger
	observer LoadObserver

	mu       sync.RWMutex
	datasets map[string]*domain.Dataset
	group    singleflight.Group
}

// NewStore creates a store reading through loader.
func NewStore(loader *Loader, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		loader:   loader,
		logger:   logger.With(slog.String("component", "dataset_store")),
		datasets: make(map[string]*domain.Dataset),
	}
}

// OnLoad registers a callback invoked after each disk read.
func (s *Store) OnLoad(fn LoadObserver) {
	s.observer = fn
}

// Get returns the cleaned dataset for path, loading it on first use.
func (s *Store) Get(ctx context.Context, path string) (*domain.Dataset, error) {
	s.mu.RLock()
	ds, ok := s.datasets[path]
	s.mu.RUnlock()
	if ok {
		return ds, nil
	}

	v, err, shared := s.group.Do(path, func() (interface{}, error) {
		s.mu.RLock()
		cached, ok := s.datasets[path]
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}

		start := time.Now()
		raw, err := s.loader.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		ds := Clean(raw)

		s.mu.Lock()
		s.datasets[path] = ds
		s.mu.Unlock()

		if s.observer != nil {
			s.observer(ctx, path, ds.Len(), time.Since(start))
		}
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "dataset load shared", slog.String("path", path))
	}
	return v.(*domain.Dataset), nil
}

// Loaded reports whether path is already cached.
func (s *Store) Loaded(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.datasets[path]
	return ok
}
