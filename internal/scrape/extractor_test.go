package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPExtractor_Extract(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var req extractRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://example.com/retreats", req.URL)
		assert.Contains(t, req.Fields, "price")
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(extractResponse{
			Success: true,
			Data:    json.RawMessage(`[{"title": "T", "location": "L", "price": 100}]`),
		})
	}))
	defer upstream.Close()

	e := NewHTTPExtractor(upstream.URL, "test-key", time.Second)
	data, err := e.Extract(context.Background(), "https://example.com/retreats", "extract listings", extractionFields)
	require.NoError(t, err)

	listings, err := parseListings(data)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "T", listings[0].Title)
}

func TestHTTPExtractor_UpstreamErrorSurfaces(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	e := NewHTTPExtractor(upstream.URL, "", time.Second)
	_, err := e.Extract(context.Background(), "https://example.com", "x", nil)
	assert.Error(t, err)
}

func TestHTTPExtractor_FailedExtractionSurfaces(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(extractResponse{Success: false, Error: "page blocked"})
	}))
	defer upstream.Close()

	e := NewHTTPExtractor(upstream.URL, "", time.Second)
	_, err := e.Extract(context.Background(), "https://example.com", "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page blocked")
}

func TestHTTPExtractor_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	var hits int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	e := NewHTTPExtractor(upstream.URL, "", time.Second)
	for i := 0; i < 6; i++ {
		_, err := e.Extract(context.Background(), "https://example.com", "x", nil)
		assert.Error(t, err)
	}
	// After four consecutive failures the breaker stops hitting upstream.
	assert.Equal(t, 4, hits)
}
