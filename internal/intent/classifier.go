// Package intent classifies the conversational stance of the user from the
// transcript. Classification is a single language-model call with no
// heuristic fallback: any failure reports unknown, which callers treat as
// browsing.
package intent

import (
	"context"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Devinfern/sanghos-sub001/internal/domain"
	"github.com/Devinfern/sanghos-sub001/internal/llm"
)

const systemInstruction = `You classify the intent of a user browsing wellness retreats.
Read the conversation and pick exactly one label:
- "browsing": casually exploring options, no commitment signals
- "comparing": weighing two or more specific retreats against each other
- "ready_to_book": asking about booking, payment, or reserving a spot
- "urgent": needs a retreat very soon, time pressure in their words
- "planning_ahead": organizing a trip months out, flexible on details
Respond with JSON only: {"intent": "<label>"}`

type Classifier struct {
	llm llm.Client
	log zerolog.Logger
}

func NewClassifier(client llm.Client, log zerolog.Logger) *Classifier {
	return &Classifier{llm: client, log: log}
}

// Classify maps the transcript to one of the five labels, or unknown when
// the call or its reply cannot be used.
func (c *Classifier) Classify(ctx context.Context, turns []domain.ConversationTurn) domain.Intent {
	messages := make([]llm.Message, 0, len(turns)+1)
	messages = append(messages, llm.Message{Role: "system", Content: systemInstruction})
	for _, t := range turns {
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}

	reply, err := c.llm.Complete(ctx, messages)
	if err != nil {
		c.log.Warn().Err(err).Str("component", "intent").Msg("classification call failed")
		return domain.IntentUnknown
	}

	var parsed struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(extractJSON(reply)), &parsed); err != nil {
		c.log.Warn().Err(err).Str("component", "intent").Msg("unparsable classification reply")
		return domain.IntentUnknown
	}
	label := strings.ToLower(strings.TrimSpace(parsed.Intent))
	if !domain.KnownIntent(label) {
		return domain.IntentUnknown
	}
	return domain.Intent(label)
}

// extractJSON trims prose or code fences around a JSON object; models
// routinely wrap their answer despite the JSON-only instruction.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
