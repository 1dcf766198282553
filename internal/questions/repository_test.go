package questions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sat-prep-service/internal/domain"
)

type countingLoader struct {
	mu    sync.Mutex
	loads int
	bank  []domain.Question
	err   error
}

func (l *countingLoader) LoadBank(_ context.Context, _ domain.Subject, _ domain.Difficulty) ([]domain.Question, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	return l.bank, l.err
}

func testBank(n int) []domain.Question {
	out := make([]domain.Question, n)
	for i := range out {
		out[i] = domain.Question{Text: string(rune('a' + i)), Options: []string{"1", "2", "3", "4"}}
	}
	return out
}

func TestCachedBankLoadsOnce(t *testing.T) {
	loader := &countingLoader{bank: testBank(6)}
	c := NewCachedBank(loader, time.Minute)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		qs, err := c.FetchQuestions(ctx, domain.SubjectMath, domain.DifficultyEasy, 3)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if len(qs) != 3 {
			t.Fatalf("fetch %d: got %d questions", i, len(qs))
		}
	}
	if loader.loads != 1 {
		t.Fatalf("expected a single store load, got %d", loader.loads)
	}
}

func TestCachedBankReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{bank: testBank(6)}
	c := NewCachedBank(loader, time.Minute)

	now := time.Now()
	c.clock = func() time.Time { return now }

	ctx := context.Background()
	if _, err := c.FetchQuestions(ctx, domain.SubjectMath, domain.DifficultyEasy, 3); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	// Past the TTL plus the maximum jitter.
	now = now.Add(2 * time.Minute)
	if _, err := c.FetchQuestions(ctx, domain.SubjectMath, domain.DifficultyEasy, 3); err != nil {
		t.Fatalf("fetch after expiry: %v", err)
	}
	if loader.loads != 2 {
		t.Fatalf("expected reload after expiry, got %d loads", loader.loads)
	}
}

func TestCachedBankKeysBySubjectAndDifficulty(t *testing.T) {
	loader := &countingLoader{bank: testBank(6)}
	c := NewCachedBank(loader, time.Minute)

	ctx := context.Background()
	if _, err := c.FetchQuestions(ctx, domain.SubjectMath, domain.DifficultyEasy, 3); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, err := c.FetchQuestions(ctx, domain.SubjectMath, domain.DifficultyHard, 3); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if loader.loads != 2 {
		t.Fatalf("expected independent loads per difficulty, got %d", loader.loads)
	}
}

func TestCachedBankPropagatesLoadErrors(t *testing.T) {
	loader := &countingLoader{err: errors.New("store unreachable")}
	c := NewCachedBank(loader, time.Minute)

	if _, err := c.FetchQuestions(context.Background(), domain.SubjectMath, domain.DifficultyEasy, 3); err == nil {
		t.Fatalf("expected load error")
	}
	// A failed load must not be cached.
	loader.mu.Lock()
	loader.err = nil
	loader.bank = testBank(4)
	loader.mu.Unlock()
	if qs, err := c.FetchQuestions(context.Background(), domain.SubjectMath, domain.DifficultyEasy, 3); err != nil || len(qs) != 3 {
		t.Fatalf("expected recovery after store came back, got %d %v", len(qs), err)
	}
}
