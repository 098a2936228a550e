package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/Devinfern/sanghos-sub001/internal/domain"
	"github.com/Devinfern/sanghos-sub001/internal/sources"
)

// aggregate fans in all providers concurrently, preserving the configured
// provider order in the output. A failing provider is logged and
// contributes an empty list; it is never fatal to the request.
func (p *Pipeline) aggregate(ctx context.Context) []domain.RetreatCandidate {
	results := make([][]domain.RetreatCandidate, len(p.providers))
	var wg sync.WaitGroup
	for i, prov := range p.providers {
		wg.Add(1)
		go func(i int, prov sources.Provider) {
			defer wg.Done()
			candidates, err := prov.Candidates(ctx)
			if err != nil {
				p.log.Warn().Err(err).Str("component", "aggregator").Str("provider", prov.Name()).
					Msg("source unavailable, treated as empty")
				return
			}
			results[i] = candidates
		}(i, prov)
	}
	wg.Wait()

	var merged []domain.RetreatCandidate
	for _, batch := range results {
		merged = append(merged, batch...)
	}
	return merged
}

// identityKey is the cross-source identity heuristic: a scraped listing
// whose normalized title and location collide with an internal or partner
// candidate is considered the same retreat.
func identityKey(c domain.RetreatCandidate) string {
	return strings.ToLower(strings.TrimSpace(c.Title)) + "-" + strings.ToLower(strings.TrimSpace(c.Location))
}

// dropKnown filters scraped candidates that duplicate an existing one. The
// existing candidate always wins.
func dropKnown(existing, scraped []domain.RetreatCandidate) []domain.RetreatCandidate {
	known := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		known[identityKey(c)] = struct{}{}
	}
	out := scraped[:0]
	for _, c := range scraped {
		if _, dup := known[identityKey(c)]; dup {
			continue
		}
		out = append(out, c)
	}
	return out
}
