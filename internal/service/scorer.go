package service

import (
	"math"
	"sort"

	"carpool/internal/domain"
)

// ScoredOffer is a candidate that passed the time window filter.
// Lower scores are better.
type ScoredOffer struct {
	Offer *domain.Offer
	Score float64
}

// ScoreCandidates drops offers whose pickup time falls outside the wider of
// the two time windows and ranks the rest by pickup time difference in
// minutes, ties broken by offer ID. The result is truncated to limit after
// ranking; a non-positive limit keeps everything.
func ScoreCandidates(req *domain.Request, offers []*domain.Offer, limit int) []ScoredOffer {
	scored := make([]ScoredOffer, 0, len(offers))
	for _, offer := range offers {
		window := max(req.TimeWindowMinutes, offer.TimeWindowMinutes)
		diff := math.Abs(req.PickupTime.Sub(offer.PickupTime).Minutes())
		if diff > float64(window) {
			continue
		}
		scored = append(scored, ScoredOffer{Offer: offer, Score: diff})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score < scored[j].Score
		}
		return scored[i].Offer.ID < scored[j].Offer.ID
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
