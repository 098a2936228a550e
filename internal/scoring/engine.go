// Package scoring ranks retreat candidates against the user's cumulative
// preference profile with a deterministic additive scorer.
package scoring

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Devinfern/sanghos-sub001/internal/domain"
)

type Engine struct {
	points Points
}

func NewEngine(p Points) *Engine {
	return &Engine{points: p}
}

// Rank scores every candidate and returns results ordered by score
// descending. Ties break on earlier date, then provenance
// internal > partner > scraped.
func (e *Engine) Rank(profile domain.UserPreferenceProfile, userLocation string, candidates []domain.RetreatCandidate) []domain.ScoreResult {
	byID := make(map[string]domain.RetreatCandidate, len(candidates))
	out := make([]domain.ScoreResult, 0, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
		out = append(out, e.Score(c, profile, userLocation))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		ci, cj := byID[out[i].RetreatID], byID[out[j].RetreatID]
		if !ci.Date.Equal(cj.Date) {
			return ci.Date.Before(cj.Date)
		}
		return ci.Source.Rank() < cj.Source.Rank()
	})
	return out
}

// Score computes the 1..100 match score for one candidate. Adjustments are
// additive and independent; the sum is clipped to [1,100] at the end.
func (e *Engine) Score(c domain.RetreatCandidate, profile domain.UserPreferenceProfile, userLocation string) domain.ScoreResult {
	score := e.points.Base
	var breakdown []domain.ScoreComponent

	apply := func(factor string, points int, reason string) {
		if points == 0 {
			return
		}
		score += points
		breakdown = append(breakdown, domain.ScoreComponent{Factor: factor, Points: points, Reason: reason})
	}

	pts, reason := e.locationAdjustment(c, profile, userLocation)
	apply("location", pts, reason)
	pts, reason = e.budgetAdjustment(c, profile)
	apply("budget", pts, reason)
	pts, reason = e.categoryAdjustment(c, profile)
	apply("category", pts, reason)
	pts, reason = e.experienceAdjustment(c, profile)
	apply("experience", pts, reason)
	pts, reason = availabilityAdjustment(c, e.points)
	apply("availability", pts, reason)
	pts, reason = timingAdjustment(c, profile, e.points)
	apply("timing", pts, reason)
	if c.IsFresh {
		apply("freshness", e.points.Freshness, "freshly discovered listing")
	}

	if score > 100 {
		score = 100
	}
	if score < 1 {
		score = 1
	}

	reasons := make([]string, 0, len(breakdown))
	for _, b := range breakdown {
		reasons = append(reasons, b.Reason)
	}

	return domain.ScoreResult{
		RetreatID: c.ID,
		Score:     score,
		Breakdown: breakdown,
		Rationale: strings.Join(reasons, "; "),
	}
}

func (e *Engine) locationAdjustment(c domain.RetreatCandidate, profile domain.UserPreferenceProfile, userLocation string) (int, string) {
	userLoc := userLocation
	if strings.TrimSpace(profile.Location) != "" {
		userLoc = profile.Location
	}
	userState := stateCode(userLoc)
	candState := stateCode(c.Location)
	if userState == "" {
		return 0, ""
	}
	switch {
	case candState == userState:
		return e.points.LocationSameState, "in your state (" + userState + ")"
	case candState != "" && regionOf(candState) == regionOf(userState):
		return e.points.LocationRegion, "in your broader region"
	case c.Location != "":
		return e.points.LocationReachable, "within reasonable travel distance"
	}
	return 0, ""
}

func (e *Engine) budgetAdjustment(c domain.RetreatCandidate, profile domain.UserPreferenceProfile) (int, string) {
	if profile.BudgetMax == nil && profile.BudgetMin == nil {
		return 0, ""
	}
	min := 0.0
	if profile.BudgetMin != nil {
		min = *profile.BudgetMin
	}
	if profile.BudgetMax == nil {
		if c.Price >= min {
			return e.points.BudgetEdge, "meets your stated minimum budget"
		}
		return 0, ""
	}
	max := *profile.BudgetMax
	if c.Price > max {
		return e.points.BudgetOverMax, "above your stated budget"
	}
	if c.Price < min {
		return 0, ""
	}
	center := (min + max) / 2
	halfwidth := (max - min) / 2
	if halfwidth <= 0 || absF(c.Price-center) <= halfwidth/2 {
		return e.points.BudgetCenter, "comfortably within your budget"
	}
	return e.points.BudgetEdge, "within budget, near the edge of your range"
}

// relatedCategories maps each interest keyword to categories considered
// adjacent to it.
var relatedCategories = map[string][]string{
	"yoga":           {"meditation", "mindfulness", "wellness"},
	"meditation":     {"mindfulness", "yoga", "silent retreat", "sound healing"},
	"mindfulness":    {"meditation", "yoga", "wellness"},
	"wellness":       {"yoga", "meditation", "mindfulness", "sound healing"},
	"sound healing":  {"meditation", "wellness"},
	"silent retreat": {"meditation", "mindfulness"},
}

func (e *Engine) categoryAdjustment(c domain.RetreatCandidate, profile domain.UserPreferenceProfile) (int, string) {
	if len(profile.Interests) == 0 {
		for _, cat := range c.Categories {
			if strings.EqualFold(strings.TrimSpace(cat), "wellness") {
				return e.points.CategoryGeneral, "general wellness retreat"
			}
		}
		return 0, ""
	}

	for _, interest := range profile.Interests {
		in := strings.ToLower(strings.TrimSpace(interest))
		for _, cat := range c.Categories {
			if strings.ToLower(strings.TrimSpace(cat)) == in {
				return e.points.CategoryExact, "matches your interest in " + in
			}
		}
	}
	for _, interest := range profile.Interests {
		in := strings.ToLower(strings.TrimSpace(interest))
		for _, rel := range relatedCategories[in] {
			for _, cat := range c.Categories {
				if strings.ToLower(strings.TrimSpace(cat)) == rel {
					return e.points.CategoryRelated, "related to your interest in " + in
				}
			}
		}
	}
	return 0, ""
}

func (e *Engine) experienceAdjustment(c domain.RetreatCandidate, profile domain.UserPreferenceProfile) (int, string) {
	stated := strings.ToLower(strings.TrimSpace(profile.ExperienceLevel))
	if stated == "" {
		return 0, ""
	}
	implied := impliedLevel(c)
	if implied == "" {
		return 0, ""
	}
	if implied == "all levels" || implied == stated {
		return e.points.ExperienceMatch, "suits your " + stated + " experience level"
	}
	return 0, ""
}

// impliedLevel infers the candidate's target experience level from its
// title and description text.
func impliedLevel(c domain.RetreatCandidate) string {
	text := strings.ToLower(c.Title + " " + c.Description)
	switch {
	case strings.Contains(text, "all levels"):
		return "all levels"
	case strings.Contains(text, "beginner") || strings.Contains(text, "introduction") || strings.Contains(text, "intro to"):
		return "beginner"
	case strings.Contains(text, "advanced") || strings.Contains(text, "experienced practitioners"):
		return "advanced"
	case strings.Contains(text, "intermediate"):
		return "intermediate"
	}
	return ""
}

func availabilityAdjustment(c domain.RetreatCandidate, p Points) (int, string) {
	hint := strings.ToLower(strings.TrimSpace(c.AvailabilityHint))
	if hint == "" {
		return 0, ""
	}
	if strings.Contains(hint, "waitlist") {
		return p.AvailabilityWaitlist, "currently waitlist-only"
	}
	if n, ok := firstNumber(hint); ok {
		if n >= 10 {
			return p.AvailabilityAmple, "plenty of spots remaining"
		}
		if n > 0 {
			return p.AvailabilityLimited, "only a few spots remaining"
		}
		return p.AvailabilityWaitlist, "currently full"
	}
	if strings.Contains(hint, "limited") || strings.Contains(hint, "few") || strings.Contains(hint, "almost full") {
		return p.AvailabilityLimited, "limited spots remaining"
	}
	if strings.Contains(hint, "available") || strings.Contains(hint, "open") {
		return p.AvailabilityAmple, "plenty of spots remaining"
	}
	return 0, ""
}

func timingAdjustment(c domain.RetreatCandidate, profile domain.UserPreferenceProfile, p Points) (int, string) {
	if profile.DateStart == nil && profile.DateEnd == nil {
		return 0, ""
	}
	if profile.DateStart != nil && c.Date.Before(*profile.DateStart) {
		return 0, ""
	}
	if profile.DateEnd != nil && c.Date.After(*profile.DateEnd) {
		return 0, ""
	}
	return p.TimingWindow, "falls within your preferred dates"
}

func firstNumber(s string) (int, bool) {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, err := strconv.Atoi(s[start:i])
			return n, err == nil
		}
	}
	if start >= 0 {
		n, err := strconv.Atoi(s[start:])
		return n, err == nil
	}
	return 0, false
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
