package questions

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"sat-prep-service/internal/domain"
)

// BankLoader fetches a full question bank from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty) ([]domain.Question, error)
}

// CachedBank caches loaded banks with a TTL to avoid repeated store hits,
// deduplicating concurrent misses with singleflight. It samples the cached
// bank to serve fetch requests, cycling when the bank is smaller than the
// requested count.
type CachedBank struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewCachedBank(loader BankLoader, ttl time.Duration) *CachedBank {
	return &CachedBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

func (c *CachedBank) FetchQuestions(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	bank, err := c.bank(ctx, subject, difficulty)
	if err != nil {
		return nil, err
	}
	if len(bank) == 0 || count <= 0 {
		return nil, nil
	}

	c.mu.Lock()
	shuffled := append([]domain.Question(nil), bank...)
	c.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	c.mu.Unlock()

	out := make([]domain.Question, 0, count)
	for len(out) < count {
		need := count - len(out)
		if need > len(shuffled) {
			need = len(shuffled)
		}
		out = append(out, shuffled[:need]...)
	}
	return out, nil
}

func (c *CachedBank) bank(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty) ([]domain.Question, error) {
	key := string(subject) + ":" + string(difficulty)
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.loader.LoadBank(ctx, subject, difficulty)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[key] = cachedBank{
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *CachedBank) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations; caller holds c.mu
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
