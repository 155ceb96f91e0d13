package bias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/devils-advocate/internal/models"
)

func review(name string, stance models.BiasStance, rec models.Recommendation, score float64, strengths ...string) models.ReviewerFeedback {
	if len(strengths) == 0 {
		strengths = []string{"clear project history"}
	}
	return models.ReviewerFeedback{
		Reviewer: models.Reviewer{Name: name, BiasStance: stance},
		Scores: []models.ReviewScore{
			{Category: models.CategoryInitialImpression, Score: score},
			{Category: models.CategoryTechnicalAssessment, Score: score},
			{Category: models.CategoryExperienceEvaluation, Score: score},
		},
		Strengths:      strengths,
		Weaknesses:     []string{"few metrics"},
		Recommendation: rec,
	}
}

func TestScoreNeutralReviews(t *testing.T) {
	reviews := []models.ReviewerFeedback{
		review("A", models.Biased, models.Accept, 7),
		review("B", models.Biased, models.Accept, 7),
		review("C", models.Unbiased, models.Accept, 7),
	}

	b, indicators := Score(reviews)
	assert.Equal(t, Breakdown{}, b)
	assert.Empty(t, indicators)
}

func TestScoreDisagreementWithSplitUnbiasedReviewers(t *testing.T) {
	reviews := []models.ReviewerFeedback{
		review("A", models.Biased, models.Accept, 7),
		review("B", models.Biased, models.Reject, 7),
		review("C", models.Unbiased, models.Accept, 7),
		review("D", models.Unbiased, models.Reject, 7),
	}

	b, indicators := Score(reviews)

	// the unbiased pair resolves to accept (first seen), so only B disagrees
	assert.InDelta(t, 0.5, b.Disagreement, 1e-9)
	require.Len(t, indicators, 1)
	assert.Equal(t, IndicatorDecisionDisagreement, indicators[0].Type)
	assert.Equal(t, "B", indicators[0].Location)
}

func TestScoreCombinesComponents(t *testing.T) {
	reviews := []models.ReviewerFeedback{
		review("A", models.Biased, models.Reject, 4, "She is not aggressive enough for the role"),
		review("B", models.Biased, models.Accept, 6),
		review("C", models.Unbiased, models.Accept, 8),
	}

	b, indicators := Score(reviews)

	// "she" (2) + "aggressive" (1) + "not aggressive enough" (3) = 6 -> 0.6
	assert.InDelta(t, 0.6, b.Lexical, 1e-9)
	// biased mean 5, unbiased mean 8 -> 3/9
	assert.InDelta(t, 0.333, b.Disparity, 1e-9)
	// one of two biased reviewers rejected while the unbiased reviewer accepted
	assert.InDelta(t, 0.5, b.Disagreement, 1e-9)
	assert.InDelta(t, 0.5*0.6+0.3*0.333+0.2*0.5, b.Score, 1e-3)

	types := map[string]int{}
	for _, ind := range indicators {
		types[ind.Type]++
	}
	assert.Equal(t, 1, types[IndicatorGenderedReference])
	assert.Equal(t, 1, types[IndicatorCodedLanguage])
	assert.Equal(t, 1, types[IndicatorStereotyping])
	assert.Equal(t, 1, types[IndicatorScoreDisparity])
	require.Equal(t, 1, types[IndicatorDecisionDisagreement])

	for _, ind := range indicators {
		if ind.Type == IndicatorDecisionDisagreement {
			assert.Equal(t, "A", ind.Location)
		}
		if ind.Type == IndicatorStereotyping {
			assert.Equal(t, "A", ind.Location)
			assert.Equal(t, "She is not aggressive enough for the role", ind.Context)
		}
	}
}

func TestScoreIsBounded(t *testing.T) {
	loaded := "He is a man, his manpower is aggressive, dominant and bossy; a culture fit, too emotional, lacks confidence"
	reviews := []models.ReviewerFeedback{
		review("A", models.Biased, models.Reject, 1, loaded, loaded),
		review("B", models.Biased, models.Reject, 1, loaded),
		review("C", models.Unbiased, models.Accept, 10),
	}

	b, _ := Score(reviews)
	assert.Equal(t, 1.0, b.Lexical)
	assert.Equal(t, 1.0, b.Disparity)
	assert.Equal(t, 1.0, b.Disagreement)
	assert.Equal(t, 1.0, b.Score)
}

func TestScoreWithSingleStance(t *testing.T) {
	reviews := []models.ReviewerFeedback{
		review("A", models.Biased, models.Reject, 2),
		review("B", models.Biased, models.Accept, 9),
	}

	b, _ := Score(reviews)
	assert.Zero(t, b.Disparity)
	assert.Zero(t, b.Disagreement)
}

func TestScoreMatchesWholeWords(t *testing.T) {
	reviews := []models.ReviewerFeedback{
		review("C", models.Unbiased, models.Accept, 7, "Theme management and shepherding the manual process"),
	}

	b, indicators := Score(reviews)
	assert.Zero(t, b.Lexical)
	assert.Empty(t, indicators)
}
