package domain

import "time"

// Source identifies which feed produced a candidate.
type Source string

const (
	SourceInternal Source = "internal"
	SourcePartner  Source = "partner"
	SourceScraped  Source = "scraped"
)

// Rank orders sources for tie-breaking: internal wins over partner,
// partner over scraped.
func (s Source) Rank() int {
	switch s {
	case SourceInternal:
		return 0
	case SourcePartner:
		return 1
	case SourceScraped:
		return 2
	default:
		return 3
	}
}

// RetreatCandidate is one discoverable retreat offering. Internal records
// keep their native id; scraped records get a generated one.
type RetreatCandidate struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Instructor       string    `json:"instructor"`
	Location         string    `json:"location"`
	Date             time.Time `json:"date"`
	Time             string    `json:"time"`
	Duration         string    `json:"duration"`
	Price            float64   `json:"price"`
	Categories       []string  `json:"categories"`
	Image            string    `json:"image,omitempty"`
	SourceURL        string    `json:"source_url,omitempty"`
	AvailabilityHint string    `json:"availability_hint,omitempty"`
	Source           Source    `json:"source"`
	IsFresh          bool      `json:"is_fresh"`
}

// UserPreferenceProfile accumulates user-stated constraints across turns.
// Fields are only ever overwritten by newer non-null values, never cleared.
type UserPreferenceProfile struct {
	BudgetMin       *float64   `json:"budget_min,omitempty"`
	BudgetMax       *float64   `json:"budget_max,omitempty"`
	Location        string     `json:"location,omitempty"`
	Interests       []string   `json:"interests,omitempty"`
	ExperienceLevel string     `json:"experience_level,omitempty"`
	DateStart       *time.Time `json:"date_start,omitempty"`
	DateEnd         *time.Time `json:"date_end,omitempty"`
}

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one message of the transcript.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ScoreComponent records one applied scoring adjustment.
type ScoreComponent struct {
	Factor string `json:"factor"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// ScoreResult is the match score for one candidate against one profile.
// Score is always in [1,100] after clipping.
type ScoreResult struct {
	RetreatID string           `json:"retreat_id"`
	Score     int              `json:"score"`
	Breakdown []ScoreComponent `json:"breakdown"`
	Rationale string           `json:"rationale"`
}

// Intent is the classified conversational stance of the user.
type Intent string

const (
	IntentBrowsing      Intent = "browsing"
	IntentComparing     Intent = "comparing"
	IntentReadyToBook   Intent = "ready_to_book"
	IntentUrgent        Intent = "urgent"
	IntentPlanningAhead Intent = "planning_ahead"
	IntentUnknown       Intent = "unknown"
)

// KnownIntent reports whether s is one of the five classifier labels.
func KnownIntent(s string) bool {
	switch Intent(s) {
	case IntentBrowsing, IntentComparing, IntentReadyToBook, IntentUrgent, IntentPlanningAhead:
		return true
	}
	return false
}
