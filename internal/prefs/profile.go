// Package prefs maintains the cumulative, session-scoped preference profile.
package prefs

import (
	"strings"
	"time"

	"github.com/Devinfern/sanghos-sub001/internal/domain"
)

// Partial is one turn's extracted preference fields. Nil or empty fields
// mean "not stated this turn", never "clear".
type Partial struct {
	BudgetMin       *float64 `json:"budgetMin,omitempty"`
	BudgetMax       *float64 `json:"budgetMax,omitempty"`
	Location        string   `json:"location,omitempty"`
	Interests       []string `json:"interests,omitempty"`
	ExperienceLevel string   `json:"experienceLevel,omitempty"`
	DateStart       string   `json:"dateStart,omitempty"`
	DateEnd         string   `json:"dateEnd,omitempty"`
}

// Merge folds a turn's partial into the profile. Non-null incoming values
// overwrite; absent values leave prior state untouched. Interests are
// unioned preserving first-seen order. The merge is monotonic: no field is
// ever cleared within a session.
func Merge(profile domain.UserPreferenceProfile, p Partial) domain.UserPreferenceProfile {
	if p.BudgetMin != nil {
		profile.BudgetMin = p.BudgetMin
	}
	if p.BudgetMax != nil {
		profile.BudgetMax = p.BudgetMax
	}
	if strings.TrimSpace(p.Location) != "" {
		profile.Location = p.Location
	}
	if strings.TrimSpace(p.ExperienceLevel) != "" {
		profile.ExperienceLevel = strings.ToLower(strings.TrimSpace(p.ExperienceLevel))
	}
	if d, ok := parseDay(p.DateStart); ok {
		profile.DateStart = &d
	}
	if d, ok := parseDay(p.DateEnd); ok {
		profile.DateEnd = &d
	}
	profile.Interests = unionInterests(profile.Interests, p.Interests)
	return profile
}

func unionInterests(have, add []string) []string {
	if len(add) == 0 {
		return have
	}
	seen := make(map[string]struct{}, len(have)+len(add))
	out := make([]string, 0, len(have)+len(add))
	for _, lists := range [][]string{have, add} {
		for _, in := range lists {
			norm := strings.ToLower(strings.TrimSpace(in))
			if norm == "" {
				continue
			}
			if _, ok := seen[norm]; ok {
				continue
			}
			seen[norm] = struct{}{}
			out = append(out, norm)
		}
	}
	return out
}

func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
