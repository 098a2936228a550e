package scrape

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devinfern/sanghos-sub001/internal/domain"
)

// fakeExtractor returns a canned payload per endpoint URL.
type fakeExtractor struct {
	payloads map[string]json.RawMessage
	errs     map[string]error
	calls    atomic.Int32
}

func (f *fakeExtractor) Extract(_ context.Context, targetURL, _ string, _ []string) (json.RawMessage, error) {
	f.calls.Add(1)
	if err, ok := f.errs[targetURL]; ok {
		return nil, err
	}
	return f.payloads[targetURL], nil
}

func newTestScraper(e Extractor, endpoints ...string) *Scraper {
	s := NewScraper(e, endpoints, 5, zerolog.Nop())
	var seq atomic.Int32
	s.newID = func() string { return fmt.Sprintf("scraped-%d", seq.Add(1)) }
	s.now = func() time.Time { return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func listing(title, location string, price any) map[string]any {
	return map[string]any{
		"title":    title,
		"location": location,
		"price":    price,
	}
}

func payload(t *testing.T, listings ...map[string]any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(listings)
	require.NoError(t, err)
	return b
}

func TestDiscover_ValidatesAndCoerces(t *testing.T) {
	t.Parallel()

	raw := []map[string]any{
		listing("Forest Bathing Weekend", "Asheville, NC", "$1,200/person"),
		{"title": "No Price Retreat", "location": "Taos, NM"},              // missing price: dropped
		{"title": "", "location": "Moab, UT", "price": 300},               // missing title: dropped
		{"title": "No Location", "price": 300},                            // missing location: dropped
		listing("Unparsable Price", "Boulder, CO", "call for pricing"),    // unparsable: dropped
		listing("Numeric Price", "Santa Fe, NM", float64(450)),
	}
	b, err := json.Marshal(raw)
	require.NoError(t, err)

	ex := &fakeExtractor{payloads: map[string]json.RawMessage{"e1": b}}
	s := newTestScraper(ex, "e1")

	got := s.Discover(context.Background(), "wellness retreat")
	require.Len(t, got, 2)

	assert.Equal(t, "Forest Bathing Weekend", got[0].Title)
	assert.Equal(t, 1200.0, got[0].Price)
	assert.Equal(t, domain.SourceScraped, got[0].Source)
	assert.True(t, got[0].IsFresh)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, "TBD", got[0].Instructor)

	assert.Equal(t, 450.0, got[1].Price)
}

func TestDiscover_DedupFirstWins(t *testing.T) {
	t.Parallel()

	ex := &fakeExtractor{payloads: map[string]json.RawMessage{
		"e1": payload(t,
			listing("Desert Yoga", "Sedona, AZ", 400),
			listing("desert yoga", "sedona, az", 900), // same key, later price loses
		),
	}}
	s := newTestScraper(ex, "e1")

	got := s.Discover(context.Background(), "yoga retreat")
	require.Len(t, got, 1)
	assert.Equal(t, 400.0, got[0].Price)
}

func TestValidate_Idempotent(t *testing.T) {
	t.Parallel()

	raws := []rawListing{
		{Title: "A", Location: "X", Price: float64(100)},
		{Title: "A", Location: "X", Price: float64(200)},
		{Title: "B", Location: "Y", Price: "$50"},
	}
	s := newTestScraper(&fakeExtractor{})

	once := s.validate(raws)
	twice := s.validate(raws)

	require.Len(t, once, 2)
	require.Len(t, twice, 2)
	for i := range once {
		assert.Equal(t, once[i].Title, twice[i].Title)
		assert.Equal(t, once[i].Location, twice[i].Location)
		assert.Equal(t, once[i].Price, twice[i].Price)
	}
}

func TestDiscover_CapsAtFive(t *testing.T) {
	t.Parallel()

	var many []map[string]any
	for i := 0; i < 9; i++ {
		many = append(many, listing(fmt.Sprintf("Retreat %d", i), fmt.Sprintf("Town %d", i), 100+i))
	}
	b, err := json.Marshal(many)
	require.NoError(t, err)

	ex := &fakeExtractor{payloads: map[string]json.RawMessage{"e1": b}}
	s := newTestScraper(ex, "e1")

	got := s.Discover(context.Background(), "wellness retreat")
	assert.Len(t, got, 5)
}

func TestDiscover_EndpointFailureIsIsolated(t *testing.T) {
	t.Parallel()

	ex := &fakeExtractor{
		payloads: map[string]json.RawMessage{"good": payload(t, listing("Lakeside Stillness", "Madison, WI", 250))},
		errs:     map[string]error{"bad": errors.New("boom")},
	}
	s := newTestScraper(ex, "bad", "good")

	got := s.Discover(context.Background(), "meditation retreat")
	require.Len(t, got, 1)
	assert.Equal(t, "Lakeside Stillness", got[0].Title)
}

func TestDiscover_AllEndpointsFailReturnsEmpty(t *testing.T) {
	t.Parallel()

	ex := &fakeExtractor{errs: map[string]error{
		"e1": errors.New("unreachable"),
		"e2": errors.New("unreachable"),
	}}
	s := newTestScraper(ex, "e1", "e2")

	got := s.Discover(context.Background(), "wellness retreat")
	assert.Empty(t, got)
	assert.Equal(t, int32(2), ex.calls.Load())
}

func TestDiscover_MalformedPayloadSkipsEndpoint(t *testing.T) {
	t.Parallel()

	ex := &fakeExtractor{payloads: map[string]json.RawMessage{
		"e1": json.RawMessage(`this is not json`),
		"e2": payload(t, listing("Valid One", "Boise, ID", 300)),
	}}
	s := newTestScraper(ex, "e1", "e2")

	got := s.Discover(context.Background(), "wellness retreat")
	require.Len(t, got, 1)
	assert.Equal(t, "Valid One", got[0].Title)
}

func TestDeriveQuery(t *testing.T) {
	t.Parallel()

	turns := func(contents ...string) []domain.ConversationTurn {
		var out []domain.ConversationTurn
		for _, c := range contents {
			out = append(out, domain.ConversationTurn{Role: domain.RoleUser, Content: c})
		}
		return out
	}

	q, ok := DeriveQuery(turns("I'd love a yoga weekend somewhere warm"), domain.UserPreferenceProfile{})
	require.True(t, ok)
	assert.Equal(t, "yoga retreat", q)

	q, ok = DeriveQuery(nil, domain.UserPreferenceProfile{Interests: []string{"sound healing"}})
	require.True(t, ok)
	assert.Equal(t, "sound healing retreat", q)

	q, ok = DeriveQuery(turns("just looking around"), domain.UserPreferenceProfile{})
	require.True(t, ok)
	assert.Equal(t, DefaultQuery, q)

	_, ok = DeriveQuery(nil, domain.UserPreferenceProfile{})
	assert.False(t, ok)
}

func TestCoercePrice(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"$1,200/person", 1200, true},
		{"€350", 350, true},
		{"1200.50", 1200.5, true},
		{float64(75), 75, true},
		{"free-form text", 0, false},
		{"", 0, false},
		{nil, 0, false},
		{float64(-5), 0, false},
	}
	for _, tc := range cases {
		got, ok := coercePrice(tc.in)
		assert.Equal(t, tc.ok, ok, "input %v", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %v", tc.in)
		}
	}
}

func TestCoerceDate_FallsBackToToday(t *testing.T) {
	t.Parallel()

	s := newTestScraper(&fakeExtractor{})

	d := s.coerceDate("2026-10-05")
	assert.Equal(t, time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC), d)

	d = s.coerceDate("sometime next spring")
	assert.Equal(t, s.now(), d)
}
