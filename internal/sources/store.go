package sources

import (
	"context"
	"time"

	"github.com/Devinfern/sanghos-sub001/internal/domain"
)

// RetreatStore is the read-only slice of the internal record store the
// pipeline consumes.
type RetreatStore interface {
	ListUpcoming(ctx context.Context, from time.Time) ([]domain.RetreatCandidate, error)
}

// StoreProvider reads live candidates from the internal retreat store.
type StoreProvider struct {
	Store RetreatStore
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (p *StoreProvider) Name() string { return "internal" }

// Candidates returns all retreats dated today or later, ascending by date.
func (p *StoreProvider) Candidates(ctx context.Context) ([]domain.RetreatCandidate, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	today := now().Truncate(24 * time.Hour)
	return p.Store.ListUpcoming(ctx, today)
}
