package sources

import (
	"context"

	"github.com/Devinfern/sanghos-sub001/internal/domain"
)

// Provider supplies retreat candidates from one feed. Implementations tag
// their own provenance; callers decide how to treat failures.
type Provider interface {
	Name() string
	Candidates(ctx context.Context) ([]domain.RetreatCandidate, error)
}
