package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devinfern/sanghos-sub001/internal/compose"
	"github.com/Devinfern/sanghos-sub001/internal/domain"
	"github.com/Devinfern/sanghos-sub001/internal/intent"
	"github.com/Devinfern/sanghos-sub001/internal/llm"
	"github.com/Devinfern/sanghos-sub001/internal/pipeline"
	"github.com/Devinfern/sanghos-sub001/internal/scoring"
	"github.com/Devinfern/sanghos-sub001/internal/sources"
)

type fakeLLM struct {
	reply string
}

func (f *fakeLLM) Complete(context.Context, []llm.Message) (string, error) {
	return f.reply, nil
}

func newTestServer(t *testing.T, model llm.Client) *httptest.Server {
	t.Helper()
	log := zerolog.Nop()
	pipe := pipeline.New(
		[]sources.Provider{sources.NewPartnerProvider()},
		nil, // discovery scraping disabled
		scoring.NewEngine(scoring.DefaultPoints()),
		compose.NewComposer(model, log),
		intent.NewClassifier(model, log),
		5,
		log,
	)
	srv := NewServer(pipe, nil, log)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPOSTRecommendations_ConversationMode(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeLLM{reply: `{"message": "A few ideas for you.", "followUpQuestions": ["q?"], "extractedPreferences": {}}`})

	resp := postJSON(t, ts.URL+"/api/recommendations", pipeline.Request{
		RequestType:  pipeline.RequestConversation,
		UserLocation: "Los Angeles, CA",
		Messages:     []domain.ConversationTurn{{Role: domain.RoleUser, Content: "weekend meditation near me"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got pipeline.RecommendationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "A few ideas for you.", got.Message)
	assert.NotEmpty(t, got.Recommendations)
	assert.False(t, got.Error)
}

func TestPOSTRecommendations_IntentMode(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeLLM{reply: `{"intent": "planning_ahead"}`})

	resp := postJSON(t, ts.URL+"/api/recommendations", pipeline.Request{
		RequestType: pipeline.RequestIntentDetection,
		Messages:    []domain.ConversationTurn{{Role: domain.RoleUser, Content: "thinking about next spring"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got pipeline.IntentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, domain.IntentPlanningAhead, got.Intent)
}

func TestPOSTRecommendations_RejectsBadRequestType(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeLLM{reply: "{}"})

	resp := postJSON(t, ts.URL+"/api/recommendations", map[string]any{
		"requestType": "make_me_a_sandwich",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPOSTRecommendations_RejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeLLM{reply: "{}"})

	resp, err := http.Post(ts.URL+"/api/recommendations", "application/json", bytes.NewReader([]byte("{nope")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGETHealth(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeLLM{reply: "{}"})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
