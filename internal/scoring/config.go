package scoring

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// Points defines the additive adjustment for each scoring factor.
type Points struct {
	Base int `json:"base"`

	LocationSameState int `json:"location_same_state"`
	LocationRegion    int `json:"location_region"`
	LocationReachable int `json:"location_reachable"`

	BudgetCenter  int `json:"budget_center"`
	BudgetEdge    int `json:"budget_edge"`
	BudgetOverMax int `json:"budget_over_max"`

	CategoryExact   int `json:"category_exact"`
	CategoryRelated int `json:"category_related"`
	CategoryGeneral int `json:"category_general"`

	ExperienceMatch int `json:"experience_match"`

	AvailabilityAmple    int `json:"availability_ample"`
	AvailabilityLimited  int `json:"availability_limited"`
	AvailabilityWaitlist int `json:"availability_waitlist"`

	TimingWindow int `json:"timing_window"`
	Freshness    int `json:"freshness"`
}

// DefaultPoints returns the standard adjustment table.
func DefaultPoints() Points {
	return Points{
		Base:                 50,
		LocationSameState:    40,
		LocationRegion:       30,
		LocationReachable:    10,
		BudgetCenter:         30,
		BudgetEdge:           20,
		BudgetOverMax:        -20,
		CategoryExact:        20,
		CategoryRelated:      15,
		CategoryGeneral:      10,
		ExperienceMatch:      10,
		AvailabilityAmple:    10,
		AvailabilityLimited:  5,
		AvailabilityWaitlist: -10,
		TimingWindow:         5,
		Freshness:            10,
	}
}

// LoadPointsFromFile loads points from a JSON file, falling back to defaults
// on read errors.
func LoadPointsFromFile(path string) (Points, error) {
	p := DefaultPoints()
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read points file: %w", err)
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("unmarshal points: %w", err)
	}
	return p, nil
}
