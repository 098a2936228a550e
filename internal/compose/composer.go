// Package compose builds the language-model prompt and assembles the final
// recommendation response. The deterministic scoring engine stays
// authoritative for ranking; the model only supplies prose, follow-up
// questions, and free-text preference extraction.
package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Devinfern/sanghos-sub001/internal/domain"
	"github.com/Devinfern/sanghos-sub001/internal/llm"
	"github.com/Devinfern/sanghos-sub001/internal/prefs"
)

// maxRecommendations caps the ranked list surfaced to the caller.
const maxRecommendations = 5

// Recommendation is one ranked retreat in the response.
type Recommendation struct {
	RetreatID  string  `json:"retreatId"`
	Title      string  `json:"title"`
	MatchScore int     `json:"matchScore"`
	Reason     string  `json:"reason"`
	Location   string  `json:"location"`
	Date       string  `json:"date"`
	Time       string  `json:"time,omitempty"`
	Description string `json:"description,omitempty"`
	Price      float64 `json:"price"`
	Duration   string  `json:"duration,omitempty"`
	Category   string  `json:"category,omitempty"`
	IsScraped  bool    `json:"isScraped"`
}

// ScrapingInfo surfaces a "new retreats discovered" notice to callers.
type ScrapingInfo struct {
	NewRetreatsFound int      `json:"newRetreatsFound"`
	Sources          []string `json:"sources"`
}

// Response is the conversation-mode output.
type Response struct {
	Message              string           `json:"message"`
	Recommendations      []Recommendation `json:"recommendations"`
	FollowUpQuestions    []string         `json:"followUpQuestions"`
	ExtractedPreferences prefs.Partial    `json:"extractedPreferences"`
	ScrapingInfo         *ScrapingInfo    `json:"scrapingInfo,omitempty"`
}

var genericFollowUps = []string{
	"What kind of practice are you most drawn to right now?",
	"Do you have a budget or dates in mind for your retreat?",
}

type Composer struct {
	llm llm.Client
	log zerolog.Logger
}

func NewComposer(client llm.Client, log zerolog.Logger) *Composer {
	return &Composer{llm: client, log: log}
}

const systemRole = `You are a warm, knowledgeable wellness retreat concierge.
You help people find retreats that genuinely fit their needs.
You never invent retreats: only discuss the candidates provided.
Respond with JSON only, in this shape:
{"message": "<natural-language reply>", "followUpQuestions": ["<q1>", "<q2>"], "extractedPreferences": {"budgetMin": null, "budgetMax": null, "location": null, "interests": [], "experienceLevel": null, "dateStart": null, "dateEnd": null}}
Omit extractedPreferences fields the user has not stated.`

// scoringMethodology keeps the model's commentary consistent with the
// deterministic scores it is shown.
const scoringMethodology = `Match scores were computed deterministically: base 50, plus
location fit (same state +40, same region +30, reachable +10), budget fit
(mid-range +30, near edge +20, over budget -20), category fit (exact interest
+20, related +15, general wellness +10), experience-level match +10,
availability (ample +10, limited +5, waitlist -10), preferred-date fit +5,
and freshly discovered listings +10, clipped to 1-100. Treat these scores as
final; do not re-rank or restate different numbers.`

// BuildMessages assembles the single prompt: system role, serialized
// candidates with scores, the scoring methodology, and the transcript.
func BuildMessages(candidates []domain.RetreatCandidate, scores []domain.ScoreResult, profile domain.UserPreferenceProfile, turns []domain.ConversationTurn) []llm.Message {
	byID := make(map[string]domain.RetreatCandidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	var b strings.Builder
	b.WriteString(systemRole)
	b.WriteString("\n\n")
	b.WriteString(scoringMethodology)
	b.WriteString("\n\nCandidate retreats, ranked:\n")
	for i, s := range scores {
		c, ok := byID[s.RetreatID]
		if !ok {
			continue
		}
		fresh := ""
		if c.IsFresh {
			fresh = " [newly discovered]"
		}
		fmt.Fprintf(&b, "%d. [%s] %q — %s | %s %s | %s | $%.0f | categories: %s | availability: %s | source: %s%s | score %d (%s)\n",
			i+1, c.ID, c.Title, c.Location, c.Date.Format("2006-01-02"), c.Time, c.Duration,
			c.Price, strings.Join(c.Categories, ", "), orUnknown(c.AvailabilityHint),
			c.Source, fresh, s.Score, s.Rationale)
		if c.Description != "" {
			fmt.Fprintf(&b, "   %s (instructor: %s)\n", c.Description, c.Instructor)
		}
	}
	if pb, err := json.Marshal(profile); err == nil {
		b.WriteString("\nKnown user preferences so far: ")
		b.Write(pb)
		b.WriteString("\n")
	}

	messages := make([]llm.Message, 0, len(turns)+1)
	messages = append(messages, llm.Message{Role: "system", Content: b.String()})
	for _, t := range turns {
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}
	return messages
}

// composerReply is the JSON shape expected from the model.
type composerReply struct {
	Message              string        `json:"message"`
	FollowUpQuestions    []string      `json:"followUpQuestions"`
	ExtractedPreferences prefs.Partial `json:"extractedPreferences"`
}

// Compose calls the language-model service and assembles the final
// response. A failed call is returned as an error for the pipeline's fatal
// path; a successful call with an unparsable reply degrades to the raw text
// with an empty recommendation list.
func (c *Composer) Compose(ctx context.Context, candidates []domain.RetreatCandidate, scores []domain.ScoreResult, profile domain.UserPreferenceProfile, turns []domain.ConversationTurn) (Response, error) {
	raw, err := c.llm.Complete(ctx, BuildMessages(candidates, scores, profile, turns))
	if err != nil {
		return Response{}, fmt.Errorf("composition call: %w", err)
	}

	var reply composerReply
	if uerr := json.Unmarshal([]byte(extractJSON(raw)), &reply); uerr != nil || strings.TrimSpace(reply.Message) == "" {
		c.log.Warn().Str("component", "composer").Msg("non-JSON model reply, degrading to raw text")
		return Response{
			Message:              raw,
			Recommendations:      []Recommendation{},
			FollowUpQuestions:    append([]string(nil), genericFollowUps...),
			ExtractedPreferences: prefs.Partial{},
		}, nil
	}

	followUps := reply.FollowUpQuestions
	if len(followUps) == 0 {
		followUps = append([]string(nil), genericFollowUps...)
	}

	return Response{
		Message:              reply.Message,
		Recommendations:      BuildRecommendations(candidates, scores),
		FollowUpQuestions:    followUps,
		ExtractedPreferences: reply.ExtractedPreferences,
	}, nil
}

// BuildRecommendations converts engine results into response entries,
// preserving the deterministic ranking.
func BuildRecommendations(candidates []domain.RetreatCandidate, scores []domain.ScoreResult) []Recommendation {
	byID := make(map[string]domain.RetreatCandidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	out := make([]Recommendation, 0, maxRecommendations)
	for _, s := range scores {
		if len(out) >= maxRecommendations {
			break
		}
		c, ok := byID[s.RetreatID]
		if !ok {
			continue
		}
		out = append(out, Recommendation{
			RetreatID:   c.ID,
			Title:       c.Title,
			MatchScore:  s.Score,
			Reason:      s.Rationale,
			Location:    c.Location,
			Date:        c.Date.Format("2006-01-02"),
			Time:        c.Time,
			Description: c.Description,
			Price:       c.Price,
			Duration:    c.Duration,
			Category:    firstCategory(c.Categories),
			IsScraped:   c.Source == domain.SourceScraped,
		})
	}
	return out
}

const extractionInstruction = `Extract the user's stated retreat preferences from the conversation.
Respond with JSON only: {"budgetMin": <number|null>, "budgetMax": <number|null>,
"location": <string|null>, "interests": [<strings>], "experienceLevel": <string|null>,
"dateStart": <"YYYY-MM-DD"|null>, "dateEnd": <"YYYY-MM-DD"|null>}
Use null for anything the user has not said. Never guess.`

// ExtractPreferences runs the standalone preference-extraction call used by
// the followup and search request modes.
func (c *Composer) ExtractPreferences(ctx context.Context, turns []domain.ConversationTurn) (prefs.Partial, error) {
	messages := make([]llm.Message, 0, len(turns)+1)
	messages = append(messages, llm.Message{Role: "system", Content: extractionInstruction})
	for _, t := range turns {
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}

	raw, err := c.llm.Complete(ctx, messages)
	if err != nil {
		return prefs.Partial{}, fmt.Errorf("preference extraction call: %w", err)
	}
	var p prefs.Partial
	if err := json.Unmarshal([]byte(extractJSON(raw)), &p); err != nil {
		return prefs.Partial{}, fmt.Errorf("unparsable preference reply: %w", err)
	}
	return p, nil
}

func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

func firstCategory(cats []string) string {
	if len(cats) == 0 {
		return ""
	}
	return cats[0]
}
