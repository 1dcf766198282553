package memory

import (
	"context"
	"sync"

	"sat-prep-service/internal/domain"
)

// GuestStore is an in-memory implementation of engine.GuestStore.
type GuestStore struct {
	mu    sync.RWMutex
	stats domain.Stats
	daily domain.Daily
	theme string
	saved bool
}

func NewGuestStore() *GuestStore {
	return &GuestStore{}
}

func (s *GuestStore) Load(_ context.Context) (domain.Stats, domain.Daily, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return domain.Stats{}, domain.Daily{}, false, nil
	}
	return domain.CloneStats(s.stats), s.daily, true, nil
}

func (s *GuestStore) Save(_ context.Context, stats domain.Stats, daily domain.Daily) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = domain.CloneStats(stats)
	s.daily = daily
	s.saved = true
	return nil
}

func (s *GuestStore) Theme(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme, nil
}

func (s *GuestStore) SetTheme(_ context.Context, theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
	return nil
}
