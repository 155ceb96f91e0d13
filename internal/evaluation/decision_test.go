package evaluation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/devils-advocate/internal/models"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		recs       []models.Recommendation
		want       models.Recommendation
		tied       bool
		threshold  int
		confidence float64
	}{
		{name: "single review", recs: []models.Recommendation{models.Pending}, want: models.Pending, threshold: 1, confidence: 1},
		{name: "clear majority accept", recs: []models.Recommendation{models.Accept, models.Accept, models.Reject}, want: models.Accept, threshold: 2, confidence: 2.0 / 3},
		{name: "majority reject", recs: []models.Recommendation{models.Accept, models.Reject, models.Reject}, want: models.Reject, threshold: 2, confidence: 2.0 / 3},
		{name: "unanimous", recs: []models.Recommendation{models.Accept, models.Accept, models.Accept}, want: models.Accept, threshold: 2, confidence: 1},
		{name: "three way split", recs: []models.Recommendation{models.Accept, models.Reject, models.Pending}, want: models.Reject, tied: true, threshold: 2, confidence: 1.0 / 3},
		{name: "two reviewers disagree", recs: []models.Recommendation{models.Accept, models.Reject}, want: models.Accept, threshold: 1, confidence: 0.5},
		{name: "two reviewers disagree first seen wins", recs: []models.Recommendation{models.Pending, models.Accept}, want: models.Pending, threshold: 1, confidence: 0.5},
		{name: "two reviewers agree", recs: []models.Recommendation{models.Pending, models.Pending}, want: models.Pending, threshold: 1, confidence: 1},
		{name: "even split of four", recs: []models.Recommendation{models.Accept, models.Pending, models.Accept, models.Pending}, want: models.Reject, tied: true, threshold: 2, confidence: 0},
		{name: "four with plurality", recs: []models.Recommendation{models.Pending, models.Accept, models.Pending, models.Reject}, want: models.Pending, threshold: 2, confidence: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decide(reviewsWith(tt.recs...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Recommendation)
			assert.Equal(t, tt.tied, got.Tied)
			assert.Equal(t, tt.threshold, got.Threshold)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestDecideNoReviews(t *testing.T) {
	_, err := Decide(nil)
	require.Error(t, err)
	assert.True(t, IsAggregationError(err))
}

func TestDecideTallyOrder(t *testing.T) {
	got, err := Decide(reviewsWith(models.Pending, models.Accept, models.Accept))
	require.NoError(t, err)
	assert.Equal(t, []Count{
		{Recommendation: models.Accept, Count: 2},
		{Recommendation: models.Pending, Count: 1},
	}, got.Tally)
}

func TestDecideIsDeterministicAcrossRuns(t *testing.T) {
	recs := []models.Recommendation{models.Accept, models.Reject, models.Pending, models.Accept, models.Reject}
	first, err := Decide(reviewsWith(recs...))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := Decide(reviewsWith(recs...))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDecideAlwaysReturnsKnownRecommendation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(7)
		recs := make([]models.Recommendation, n)
		for j := range recs {
			recs[j] = models.Recommendations[rng.Intn(len(models.Recommendations))]
		}

		got, err := Decide(reviewsWith(recs...))
		require.NoError(t, err)
		assert.True(t, got.Recommendation.Valid(), "recs %v", recs)
		assert.GreaterOrEqual(t, got.Confidence, 0.0)
		assert.LessOrEqual(t, got.Confidence, 1.0)

		total := 0
		for _, c := range got.Tally {
			total += c.Count
		}
		assert.Equal(t, n, total)
	}
}
