package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"sat-prep-service/internal/domain"
)

// AccountStore is an in-memory implementation of engine.AccountStore.
// Credentials are compared in the clear, matching the local-only account
// model this service replicates; it must never back a multi-device setup.
type AccountStore struct {
	now func() time.Time

	mu       sync.RWMutex
	accounts map[string]domain.Account
	current  string
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		now:      time.Now,
		accounts: make(map[string]domain.Account),
	}
}

// NewAccountStoreWithClock allows deterministic timestamps in tests.
func NewAccountStoreWithClock(now func() time.Time) *AccountStore {
	store := NewAccountStore()
	store.now = now
	return store
}

func (s *AccountStore) CurrentUser(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func (s *AccountStore) Lookup(_ context.Context, username string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[username]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (s *AccountStore) Login(_ context.Context, username, password string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[username]
	if !ok || account.Password != password {
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	s.current = username
	return account, nil
}

func (s *AccountStore) Signup(_ context.Context, username, password string, stats domain.Stats, daily domain.Daily) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[username]; ok {
		return domain.Account{}, domain.ErrUsernameTaken
	}
	now := s.now()
	account := domain.Account{
		ID:         uuid.NewString(),
		Username:   username,
		Password:   password,
		Stats:      stats,
		Daily:      daily,
		Created:    now,
		LastActive: now,
	}
	s.accounts[username] = account
	s.current = username
	return account, nil
}

func (s *AccountStore) Logout(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = ""
	return nil
}

func (s *AccountStore) SaveProgress(_ context.Context, username string, stats domain.Stats, daily domain.Daily) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[username]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.Stats = stats
	account.Daily = daily
	account.LastActive = s.now()
	s.accounts[username] = account
	return nil
}
