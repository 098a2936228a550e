package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devinfern/sanghos-sub001/internal/domain"
)

type fakeStore struct {
	from time.Time
	err  error
}

func (f *fakeStore) ListUpcoming(_ context.Context, from time.Time) ([]domain.RetreatCandidate, error) {
	f.from = from
	if f.err != nil {
		return nil, f.err
	}
	return []domain.RetreatCandidate{{ID: "r1", Source: domain.SourceInternal}}, nil
}

func TestStoreProvider_QueriesFromToday(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	now := time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)
	p := &StoreProvider{Store: store, Now: func() time.Time { return now }}

	got, err := p.Candidates(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), store.from)
}

func TestStoreProvider_PropagatesError(t *testing.T) {
	t.Parallel()

	p := &StoreProvider{Store: &fakeStore{err: errors.New("unreachable")}}
	_, err := p.Candidates(context.Background())
	assert.Error(t, err)
}

func TestPartnerProvider_NeverFailsAndTagsProvenance(t *testing.T) {
	t.Parallel()

	p := NewPartnerProvider()
	got, err := p.Candidates(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, got)

	ids := make(map[string]struct{})
	for _, c := range got {
		assert.Equal(t, domain.SourcePartner, c.Source)
		assert.False(t, c.IsFresh)
		assert.Greater(t, c.Price, 0.0)
		_, dup := ids[c.ID]
		assert.False(t, dup, "partner feed ids must be unique")
		ids[c.ID] = struct{}{}
	}

	// Callers may mutate their copy without corrupting the feed.
	got[0].Title = "mutated"
	again, _ := p.Candidates(context.Background())
	assert.NotEqual(t, "mutated", again[0].Title)
}
