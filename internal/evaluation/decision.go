package evaluation

import (
	"sort"

	"github.com/spigell/devils-advocate/internal/models"
)

// Count is the number of reviews that gave one recommendation.
type Count struct {
	Recommendation models.Recommendation `json:"recommendation"`
	Count          int                   `json:"count"`
}

// Decision is the aggregated verdict for a set of reviews.
type Decision struct {
	Recommendation models.Recommendation `json:"recommendation"`
	Threshold      int                   `json:"threshold"`
	// Tally is ordered by count, highest first; equal counts keep first-seen order.
	Tally []Count `json:"tally"`
	// Tied is set when the two most frequent recommendations within the threshold had equal counts.
	Tied bool `json:"tied"`
	// Confidence is the share of reviews that agree with the overall decision.
	Confidence float64 `json:"confidence"`
}

// Decide combines the recommendations of reviews into one decision.
//
// Recommendations are tallied in the order the reviews are given, which must be
// roster order. Only the top ceil(n/2) entries are considered: if two of them have
// equal counts the decision is reject, otherwise it is the most frequent one. With
// one or two reviews a single entry is considered and the first-seen value wins ties.
func Decide(reviews []models.ReviewerFeedback) (Decision, error) {
	if len(reviews) == 0 {
		return Decision{}, &AggregationError{Reason: "no reviews to aggregate"}
	}

	tally := make([]Count, 0, len(models.Recommendations))
	index := make(map[models.Recommendation]int, len(models.Recommendations))
	for _, review := range reviews {
		i, ok := index[review.Recommendation]
		if !ok {
			i = len(tally)
			index[review.Recommendation] = i
			tally = append(tally, Count{Recommendation: review.Recommendation})
		}
		tally[i].Count++
	}

	sort.SliceStable(tally, func(i, j int) bool {
		return tally[i].Count > tally[j].Count
	})

	threshold := (len(reviews) + 1) / 2
	top := tally[:min(threshold, len(tally))]

	decision := Decision{Threshold: threshold, Tally: tally}
	if len(top) > 1 && top[0].Count == top[1].Count {
		decision.Recommendation = models.Reject
		decision.Tied = true
	} else {
		decision.Recommendation = top[0].Recommendation
	}

	agreeing := 0
	for _, c := range tally {
		if c.Recommendation == decision.Recommendation {
			agreeing = c.Count
		}
	}
	decision.Confidence = float64(agreeing) / float64(len(reviews))

	return decision, nil
}
