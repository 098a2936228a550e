package sources

import (
	"context"
	"time"

	"github.com/Devinfern/sanghos-sub001/internal/domain"
)

// PartnerProvider serves the small fixed partner feed. It never fails.
type PartnerProvider struct {
	feed []domain.RetreatCandidate
}

func NewPartnerProvider() *PartnerProvider {
	return &PartnerProvider{feed: defaultPartnerFeed()}
}

func (p *PartnerProvider) Name() string { return "partner" }

func (p *PartnerProvider) Candidates(_ context.Context) ([]domain.RetreatCandidate, error) {
	out := make([]domain.RetreatCandidate, len(p.feed))
	copy(out, p.feed)
	return out, nil
}

func defaultPartnerFeed() []domain.RetreatCandidate {
	day := func(offset int) time.Time {
		return time.Now().AddDate(0, 0, offset).Truncate(24 * time.Hour)
	}
	return []domain.RetreatCandidate{
		{
			ID:               "partner-esalen-01",
			Title:            "Coastal Mindfulness Immersion",
			Description:      "A weekend of guided meditation and cliffside breathwork sessions overlooking the Pacific.",
			Instructor:       "Mara Whitfield",
			Location:         "Big Sur, CA",
			Date:             day(21),
			Time:             "4:00 PM",
			Duration:         "3 days",
			Price:            890,
			Categories:       []string{"meditation", "mindfulness"},
			AvailabilityHint: "12 spots left",
			Source:           domain.SourcePartner,
		},
		{
			ID:               "partner-ojai-02",
			Title:            "Sound Healing Under the Oaks",
			Description:      "Crystal bowl and gong immersion with restorative yoga, held in an oak grove sanctuary.",
			Instructor:       "Devon Park",
			Location:         "Ojai, CA",
			Date:             day(35),
			Time:             "10:00 AM",
			Duration:         "1 day",
			Price:            175,
			Categories:       []string{"sound healing", "yoga"},
			AvailabilityHint: "limited spots",
			Source:           domain.SourcePartner,
		},
		{
			ID:               "partner-sedona-03",
			Title:            "Desert Silence Retreat",
			Description:      "Five days of silent practice, canyon hikes, and evening dharma talks in red rock country.",
			Instructor:       "TBD",
			Location:         "Sedona, AZ",
			Date:             day(49),
			Time:             "3:00 PM",
			Duration:         "5 days",
			Price:            1450,
			Categories:       []string{"silent retreat", "meditation"},
			AvailabilityHint: "waitlist only",
			Source:           domain.SourcePartner,
		},
	}
}
