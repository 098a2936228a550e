package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
)

// Extractor fetches and structures third-party retreat listings from a
// target page via the external web extraction service.
type Extractor interface {
	Extract(ctx context.Context, targetURL, instruction string, fields []string) (json.RawMessage, error)
}

// HTTPExtractor calls the extraction service over HTTP. A circuit breaker
// guards the endpoint: once it trips, calls fail fast and the scraper
// degrades to internal/partner candidates only.
type HTTPExtractor struct {
	serviceURL string
	apiKey     string
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker[json.RawMessage]
}

func NewHTTPExtractor(serviceURL, apiKey string, timeout time.Duration) *HTTPExtractor {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	settings := gobreaker.Settings{
		Name:    "extraction-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 4
		},
	}
	return &HTTPExtractor{
		serviceURL: serviceURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker[json.RawMessage](settings),
	}
}

type extractRequest struct {
	URL         string   `json:"url"`
	Instruction string   `json:"instruction"`
	Fields      []string `json:"fields"`
}

type extractResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// Extract issues one structured-extraction request for the target URL and
// returns the service's raw structured payload.
func (e *HTTPExtractor) Extract(ctx context.Context, targetURL, instruction string, fields []string) (json.RawMessage, error) {
	return e.breaker.Execute(func() (json.RawMessage, error) {
		return e.extract(ctx, targetURL, instruction, fields)
	})
}

func (e *HTTPExtractor) extract(ctx context.Context, targetURL, instruction string, fields []string) (json.RawMessage, error) {
	body, err := json.Marshal(extractRequest{
		URL:         targetURL,
		Instruction: instruction,
		Fields:      fields,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.serviceURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling extraction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction service returned status %d", resp.StatusCode)
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("extraction failed: %s", out.Error)
	}
	return out.Data, nil
}
