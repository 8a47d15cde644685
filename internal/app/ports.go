package app

import (
	"context"

	"github.com/alexanderramin/caseflow/internal/domain"
)

// HandwritingClassifier scores a handwriting sample. The engine only sees
// the finished verdict.
type HandwritingClassifier interface {
	Classify(ctx context.Context, sample HandwritingSample) (*domain.HandwritingAnalysis, error)
}

// IdentityResolver turns caller credentials into an authenticated caller.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (domain.Caller, error)
}
