package storage

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/Devinfern/sanghos-sub001/internal/domain"
)

// seedRetreat is the JSON shape of one seed-file record. Dates are plain
// ISO day strings in the file.
type seedRetreat struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Instructor   string   `json:"instructor"`
	Location     string   `json:"location"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Duration     string   `json:"duration"`
	Price        float64  `json:"price"`
	Categories   []string `json:"categories"`
	Image        string   `json:"image"`
	Availability string   `json:"availability"`
}

// LoadRetreatsFromFile reads seed retreats from a JSON file. Records with an
// unparsable date are rejected; there is no silent coercion at the store
// boundary.
func LoadRetreatsFromFile(path string) ([]domain.RetreatCandidate, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read retreats file: %w", err)
	}

	var seeds []seedRetreat
	if err := json.Unmarshal(b, &seeds); err != nil {
		return nil, fmt.Errorf("unmarshal retreats: %w", err)
	}

	out := make([]domain.RetreatCandidate, 0, len(seeds))
	for _, s := range seeds {
		d, err := time.Parse("2006-01-02", s.Date)
		if err != nil {
			return nil, fmt.Errorf("retreat %s: bad date %q: %w", s.ID, s.Date, err)
		}
		out = append(out, domain.RetreatCandidate{
			ID:               s.ID,
			Title:            s.Title,
			Description:      s.Description,
			Instructor:       instructorOrTBD(s.Instructor),
			Location:         s.Location,
			Date:             d,
			Time:             s.Time,
			Duration:         s.Duration,
			Price:            s.Price,
			Categories:       s.Categories,
			Image:            s.Image,
			AvailabilityHint: s.Availability,
			Source:           domain.SourceInternal,
		})
	}
	return out, nil
}
