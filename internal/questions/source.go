package questions

import (
	"context"

	"golang.org/x/sync/errgroup"

	"sat-prep-service/internal/domain"
)

// Source supplies questions for a subject and difficulty. Implementations
// fail soft: errors surface as an empty slice plus the error, and callers
// must treat an empty result as a hard failure to start a quiz.
type Source interface {
	FetchQuestions(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty, count int) ([]domain.Question, error)
}

// batchSize is the largest request the generator handles reliably; bigger
// totals are split and merged.
const batchSize = 5

// Batcher splits a fetch into parallel batches and merges results in
// request order, preserving the requested total when all batches succeed.
type Batcher struct {
	source Source
}

func NewBatcher(source Source) *Batcher {
	return &Batcher{source: source}
}

func (b *Batcher) FetchQuestions(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	if count <= batchSize {
		return b.source.FetchQuestions(ctx, subject, difficulty, count)
	}

	numBatches := (count + batchSize - 1) / batchSize
	results := make([][]domain.Question, numBatches)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < numBatches; i++ {
		i := i
		size := batchSize
		if remaining := count - i*batchSize; remaining < size {
			size = remaining
		}
		g.Go(func() error {
			qs, err := b.source.FetchQuestions(ctx, subject, difficulty, size)
			if err != nil {
				return err
			}
			results[i] = qs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]domain.Question, 0, count)
	for _, qs := range results {
		merged = append(merged, qs...)
	}
	return merged, nil
}

// Fallback tries a primary source and falls back to a secondary one when
// the primary yields nothing. Used to back the generator with the static
// bank so a generation outage degrades instead of blocking play.
type Fallback struct {
	primary   Source
	secondary Source
}

func NewFallback(primary, secondary Source) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) FetchQuestions(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	qs, err := f.primary.FetchQuestions(ctx, subject, difficulty, count)
	if err == nil && len(qs) > 0 {
		return qs, nil
	}
	return f.secondary.FetchQuestions(ctx, subject, difficulty, count)
}
