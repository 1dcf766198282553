package questions

import (
	"context"
	"fmt"

	"sat-prep-service/internal/domain"
)

// Explainer produces a user-displayable explanation for a question. It
// always resolves; failures surface as fallback text, never as an error.
type Explainer interface {
	Explain(ctx context.Context, q domain.Question) string
}

// StaticExplainer restates the correct answer when no generator is wired.
type StaticExplainer struct{}

func (StaticExplainer) Explain(_ context.Context, q domain.Question) string {
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return explainFallback
	}
	return fmt.Sprintf("The correct answer is %q. Review the related concept and try similar questions to build fluency.", q.Options[q.Correct])
}
