package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"sat-prep-service/internal/domain"
)

const (
	accountsKey   = "satprep:accounts"
	currentKey    = "satprep:session:current"
	sessionTokens = "satprep:session:tokens"
)

// AccountStore keeps accounts in a Redis hash, one JSON document per
// username, with the signed-in pointer in a separate key. Mirrors the
// single-device, local-storage account model: passwords stored and compared
// in the clear.
type AccountStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewAccountStore(client *redis.Client) *AccountStore {
	return &AccountStore{client: client, now: time.Now}
}

func (s *AccountStore) CurrentUser(ctx context.Context) (string, error) {
	user, err := s.client.Get(ctx, currentKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("current user: %w", err)
	}
	return user, nil
}

func (s *AccountStore) Lookup(ctx context.Context, username string) (domain.Account, error) {
	raw, err := s.client.HGet(ctx, accountsKey, username).Result()
	if err == redis.Nil {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}
	var account domain.Account
	if err := json.Unmarshal([]byte(raw), &account); err != nil {
		return domain.Account{}, fmt.Errorf("unmarshal account: %w", err)
	}
	account.Stats = domain.NormalizeStats(account.Stats)
	return account, nil
}

func (s *AccountStore) Login(ctx context.Context, username, password string) (domain.Account, error) {
	account, err := s.Lookup(ctx, username)
	if err != nil || account.Password != password {
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	if err := s.setCurrent(ctx, username); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

func (s *AccountStore) Signup(ctx context.Context, username, password string, stats domain.Stats, daily domain.Daily) (domain.Account, error) {
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
	raw, err := json.Marshal(account)
	if err != nil {
		return domain.Account{}, fmt.Errorf("marshal account: %w", err)
	}
	created, err := s.client.HSetNX(ctx, accountsKey, username, raw).Result()
	if err != nil {
		return domain.Account{}, fmt.Errorf("store account: %w", err)
	}
	if !created {
		return domain.Account{}, domain.ErrUsernameTaken
	}
	if err := s.setCurrent(ctx, username); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

func (s *AccountStore) Logout(ctx context.Context) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, currentKey)
	pipe.Del(ctx, sessionTokens)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *AccountStore) SaveProgress(ctx context.Context, username string, stats domain.Stats, daily domain.Daily) error {
	account, err := s.Lookup(ctx, username)
	if err != nil {
		return err
	}
	account.Stats = stats
	account.Daily = daily
	account.LastActive = s.now()
	raw, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	if err := s.client.HSet(ctx, accountsKey, username, raw).Err(); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// setCurrent records the signed-in username plus an opaque device session
// token, so a later restore can distinguish sessions.
func (s *AccountStore) setCurrent(ctx context.Context, username string) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, currentKey, username, 0)
	pipe.HSet(ctx, sessionTokens, username, uuid.NewString())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set current user: %w", err)
	}
	return nil
}
