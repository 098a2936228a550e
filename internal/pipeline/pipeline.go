// Package pipeline orchestrates one recommendation request end to end:
// aggregation, conditional discovery scraping, scoring, intent
// classification, and response composition.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Devinfern/sanghos-sub001/internal/compose"
	"github.com/Devinfern/sanghos-sub001/internal/domain"
	"github.com/Devinfern/sanghos-sub001/internal/intent"
	"github.com/Devinfern/sanghos-sub001/internal/prefs"
	"github.com/Devinfern/sanghos-sub001/internal/scrape"
	"github.com/Devinfern/sanghos-sub001/internal/scoring"
	"github.com/Devinfern/sanghos-sub001/internal/sources"
)

// Request types.
const (
	RequestConversation    = "conversation"
	RequestFollowup        = "followup"
	RequestSearch          = "search"
	RequestSemanticSearch  = "semantic_search"
	RequestIntentDetection = "intent_detection"
)

// Request is the single request/response boundary's input shape.
type Request struct {
	RequestType  string                    `json:"requestType" validate:"required,oneof=conversation followup search semantic_search intent_detection"`
	Messages     []domain.ConversationTurn `json:"messages" validate:"dive"`
	UserLocation string                    `json:"userLocation"`
	Preferences  *prefs.Partial            `json:"preferences,omitempty"`
	Query        string                    `json:"query,omitempty"`
}

// RecommendationResponse is the conversation-mode output envelope. Error is
// set only on the fatal path; the body still carries a user-facing message
// and empty arrays so callers never crash on a malformed payload.
type RecommendationResponse struct {
	compose.Response
	Error bool `json:"error,omitempty"`
}

// IntentResponse is the intent_detection-mode output.
type IntentResponse struct {
	Intent domain.Intent `json:"intent"`
}

const apologyMessage = "I'm having trouble putting recommendations together right now. " +
	"Please try again in a moment."

type Pipeline struct {
	providers  []sources.Provider
	scraper    *scrape.Scraper
	engine     *scoring.Engine
	composer   *compose.Composer
	classifier *intent.Classifier
	// minCandidates is the internal+partner count below which discovery
	// scraping kicks in.
	minCandidates int
	log           zerolog.Logger
}

func New(providers []sources.Provider, scraper *scrape.Scraper, engine *scoring.Engine, composer *compose.Composer, classifier *intent.Classifier, minCandidates int, log zerolog.Logger) *Pipeline {
	if minCandidates <= 0 {
		minCandidates = 5
	}
	return &Pipeline{
		providers:     providers,
		scraper:       scraper,
		engine:        engine,
		composer:      composer,
		classifier:    classifier,
		minCandidates: minCandidates,
		log:           log,
	}
}

// DetectIntent handles the intent_detection request mode.
func (p *Pipeline) DetectIntent(ctx context.Context, req Request) IntentResponse {
	return IntentResponse{Intent: p.classifier.Classify(ctx, req.Messages)}
}

// Recommend handles the conversation, followup, search, and semantic_search
// request modes. It never returns an error: a degraded pipeline still
// produces a best-effort list, and a fatal composition failure produces the
// apologetic envelope.
func (p *Pipeline) Recommend(ctx context.Context, req Request) RecommendationResponse {
	profile := p.buildProfile(ctx, req)

	candidates := p.aggregate(ctx)

	var scraped []domain.RetreatCandidate
	if len(candidates) < p.minCandidates && p.scraper != nil {
		if query, ok := scrape.DeriveQuery(req.Messages, profile); ok {
			scraped = dropKnown(candidates, p.scraper.Discover(ctx, query))
			candidates = append(candidates, scraped...)
		}
	}

	scores := p.engine.Rank(profile, req.UserLocation, candidates)

	resp, err := p.composer.Compose(ctx, candidates, scores, profile, req.Messages)
	if err != nil {
		p.log.Error().Err(err).Str("component", "pipeline").Msg("composition failed")
		return RecommendationResponse{
			Response: compose.Response{
				Message:              apologyMessage,
				Recommendations:      []compose.Recommendation{},
				FollowUpQuestions:    []string{},
				ExtractedPreferences: prefs.Partial{},
			},
			Error: true,
		}
	}

	if len(scraped) > 0 {
		resp.ScrapingInfo = &compose.ScrapingInfo{
			NewRetreatsFound: len(scraped),
			Sources:          p.scraper.Sources(),
		}
	}
	return RecommendationResponse{Response: resp}
}

// buildProfile merges explicit request preferences, the standalone
// extraction step for followup/search modes, and the free-text query into
// the session profile.
func (p *Pipeline) buildProfile(ctx context.Context, req Request) domain.UserPreferenceProfile {
	var profile domain.UserPreferenceProfile
	if req.Preferences != nil {
		profile = prefs.Merge(profile, *req.Preferences)
	}

	if req.RequestType == RequestFollowup || req.RequestType == RequestSearch {
		partial, err := p.composer.ExtractPreferences(ctx, req.Messages)
		if err != nil {
			p.log.Warn().Err(err).Str("component", "pipeline").Msg("preference extraction skipped")
		} else {
			profile = prefs.Merge(profile, partial)
		}
	}

	if req.Query != "" {
		profile = prefs.Merge(profile, prefs.Partial{Interests: []string{req.Query}})
	}
	return profile
}
