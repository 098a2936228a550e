// Package scrape discovers third-party retreat listings through the web
// extraction service when internal sources run sparse.
package scrape

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Devinfern/sanghos-sub001/internal/domain"
)

// DefaultQuery is used when no interest keyword can be derived.
const DefaultQuery = "wellness retreat"

// interestKeywords are the interests the query derivation recognizes,
// checked in order against recent user turns and the profile.
var interestKeywords = []string{
	"yoga",
	"meditation",
	"wellness",
	"mindfulness",
	"sound healing",
	"silent retreat",
}

var extractionFields = []string{
	"title", "description", "instructor", "location", "price",
	"date", "duration", "image", "category", "url",
}

const extractionInstruction = "Extract only actual retreat listings from this page. " +
	"For each listing return the fields: title, description, instructor, location, " +
	"price, date, duration, image, category, url. Skip navigation, ads, and blog content."

// Scraper issues extraction requests against a fixed set of source
// endpoints, validates the returned records, and caps the result count.
type Scraper struct {
	extractor  Extractor
	endpoints  []string
	maxResults int
	log        zerolog.Logger
	// now is overridable for tests.
	now func() time.Time
	// newID generates scraped-candidate ids; overridable for tests.
	newID func() string
}

func NewScraper(extractor Extractor, endpoints []string, maxResults int, log zerolog.Logger) *Scraper {
	if maxResults <= 0 {
		maxResults = 5
	}
	if len(endpoints) > 2 {
		endpoints = endpoints[:2]
	}
	return &Scraper{
		extractor:  extractor,
		endpoints:  endpoints,
		maxResults: maxResults,
		log:        log,
		now:        time.Now,
		newID:      func() string { return "scraped-" + uuid.NewString()[:8] },
	}
}

// DeriveQuery scans the last five user turns and the profile interests for
// known keywords. It returns the query and whether a usable one was found;
// the default query still counts as usable when any user turn exists.
func DeriveQuery(turns []domain.ConversationTurn, profile domain.UserPreferenceProfile) (string, bool) {
	var recent []string
	for i := len(turns) - 1; i >= 0 && len(recent) < 5; i-- {
		if turns[i].Role == domain.RoleUser {
			recent = append(recent, strings.ToLower(turns[i].Content))
		}
	}
	for _, kw := range interestKeywords {
		for _, content := range recent {
			if strings.Contains(content, kw) {
				return kw + " retreat", true
			}
		}
		for _, interest := range profile.Interests {
			if strings.Contains(strings.ToLower(interest), kw) {
				return kw + " retreat", true
			}
		}
	}
	if len(recent) > 0 || len(profile.Interests) > 0 {
		return DefaultQuery, true
	}
	return "", false
}

// Discover runs one extraction request per endpoint, each as an isolated
// unit of work: a failed or malformed endpoint contributes zero candidates
// without aborting its siblings. The merged result is validated,
// deduplicated, and capped.
func (s *Scraper) Discover(ctx context.Context, query string) []domain.RetreatCandidate {
	if s.extractor == nil || len(s.endpoints) == 0 {
		return nil
	}

	instruction := extractionInstruction + " Search focus: " + query + "."

	raws := make([][]rawListing, len(s.endpoints))
	var wg sync.WaitGroup
	for i, endpoint := range s.endpoints {
		wg.Add(1)
		go func(i int, endpoint string) {
			defer wg.Done()
			payload, err := s.extractor.Extract(ctx, endpoint, instruction, extractionFields)
			if err != nil {
				s.log.Warn().Err(err).Str("component", "scraper").Str("endpoint", endpoint).
					Msg("extraction call failed, endpoint skipped")
				return
			}
			listings, err := parseListings(payload)
			if err != nil {
				s.log.Warn().Err(err).Str("component", "scraper").Str("endpoint", endpoint).
					Msg("malformed extraction payload, endpoint skipped")
				return
			}
			for j := range listings {
				listings[j].sourceEndpoint = endpoint
			}
			raws[i] = listings
		}(i, endpoint)
	}
	wg.Wait()

	var merged []rawListing
	for _, batch := range raws {
		merged = append(merged, batch...)
	}
	return s.validate(merged)
}

// Sources returns the configured endpoint list, for surfacing in responses.
func (s *Scraper) Sources() []string {
	out := make([]string, len(s.endpoints))
	copy(out, s.endpoints)
	return out
}

// rawListing is one unvalidated record from the extraction payload. Price
// may arrive as a number or an arbitrary currency string.
type rawListing struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Instructor  string `json:"instructor"`
	Location    string `json:"location"`
	Price       any    `json:"price"`
	Date        string `json:"date"`
	Duration    string `json:"duration"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	URL         string `json:"url"`

	sourceEndpoint string
}

// parseListings accepts either a bare array or an object wrapping one under
// "retreats" or "listings".
func parseListings(payload json.RawMessage) ([]rawListing, error) {
	var listings []rawListing
	if err := json.Unmarshal(payload, &listings); err == nil {
		return listings, nil
	}
	var wrapped struct {
		Retreats []rawListing `json:"retreats"`
		Listings []rawListing `json:"listings"`
	}
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Retreats != nil {
		return wrapped.Retreats, nil
	}
	return wrapped.Listings, nil
}

// validate applies per-record validation, first-wins deduplication on
// lowercase(title)-lowercase(location), and the result cap. It is
// idempotent over its own output.
func (s *Scraper) validate(raws []rawListing) []domain.RetreatCandidate {
	seen := make(map[string]struct{}, len(raws))
	var out []domain.RetreatCandidate

	for _, raw := range raws {
		if len(out) >= s.maxResults {
			break
		}
		title := strings.TrimSpace(raw.Title)
		location := strings.TrimSpace(raw.Location)
		if title == "" || location == "" || raw.Price == nil {
			continue
		}
		price, ok := coercePrice(raw.Price)
		if !ok {
			// Unparsable prices drop the record at every ingestion
			// boundary rather than defaulting to zero.
			continue
		}

		key := strings.ToLower(title) + "-" + strings.ToLower(location)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, domain.RetreatCandidate{
			ID:          s.newID(),
			Title:       title,
			Description: raw.Description,
			Instructor:  instructorOrTBD(raw.Instructor),
			Location:    location,
			Date:        s.coerceDate(raw.Date),
			Duration:    raw.Duration,
			Price:       price,
			Categories:  categories(raw.Category),
			Image:       imageOrPlaceholder(raw.Image, raw.Category),
			SourceURL:   firstNonEmpty(raw.URL, raw.sourceEndpoint),
			Source:      domain.SourceScraped,
			IsFresh:     true,
		})
	}
	return out
}

// coercePrice strips currency symbols and grouping characters, then parses
// the remainder as a float. A record whose price cannot be parsed, or is
// negative, is rejected.
func coercePrice(v any) (float64, bool) {
	switch p := v.(type) {
	case float64:
		if p < 0 {
			return 0, false
		}
		return p, true
	case string:
		var b strings.Builder
		for _, r := range p {
			if (r >= '0' && r <= '9') || r == '.' {
				b.WriteRune(r)
			}
		}
		f, err := strconv.ParseFloat(b.String(), 64)
		if err != nil || f < 0 {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
}

func (s *Scraper) coerceDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d
		}
	}
	return s.now().Truncate(24 * time.Hour)
}

var placeholderImages = map[string]string{
	"yoga":           "/images/placeholders/yoga.jpg",
	"meditation":     "/images/placeholders/meditation.jpg",
	"sound healing":  "/images/placeholders/sound-healing.jpg",
	"silent retreat": "/images/placeholders/silence.jpg",
	"mindfulness":    "/images/placeholders/meditation.jpg",
}

func imageOrPlaceholder(image, category string) string {
	if strings.TrimSpace(image) != "" {
		return image
	}
	if img, ok := placeholderImages[strings.ToLower(strings.TrimSpace(category))]; ok {
		return img
	}
	return "/images/placeholders/wellness.jpg"
}

func categories(category string) []string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return []string{"wellness"}
	}
	return []string{c}
}

func instructorOrTBD(s string) string {
	if strings.TrimSpace(s) == "" {
		return "TBD"
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
