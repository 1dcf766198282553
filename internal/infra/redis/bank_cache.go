package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"sat-prep-service/internal/domain"
	"sat-prep-service/internal/questions"
)

// BankCache caches question banks in Redis (one JSON value per
// subject:difficulty pair) and falls back to a loader on cache miss, so
// multiple service instances share one warm bank.
type BankCache struct {
	client *redis.Client
	loader questions.BankLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewBankCache(client *redis.Client, loader questions.BankLoader, ttl time.Duration) *BankCache {
	return &BankCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *BankCache) LoadBank(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty) ([]domain.Question, error) {
	key := c.key(subject, difficulty)

	if bank, ok := c.cached(ctx, key); ok {
		return bank, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if bank, ok := c.cached(ctx, key); ok {
			return bank, nil
		}

		bank, err := c.loader.LoadBank(ctx, subject, difficulty)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(bank)
		if err != nil {
			return nil, fmt.Errorf("marshal bank: %w", err)
		}
		// best-effort write; a failed cache fill must not fail the load
		_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *BankCache) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var bank []domain.Question
	if err := json.Unmarshal([]byte(raw), &bank); err != nil || len(bank) == 0 {
		return nil, false
	}
	return bank, true
}

func (c *BankCache) key(subject domain.Subject, difficulty domain.Difficulty) string {
	return "satprep:bank:" + string(subject) + ":" + string(difficulty)
}

func (c *BankCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
