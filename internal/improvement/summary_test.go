package improvement

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spigell/devils-advocate/internal/models"
)

func TestSummarizeCountsEachPriorityUnderItsOwnName(t *testing.T) {
	s := &models.ImprovementSuggestions{
		Technical:      []models.Improvement{{Priority: models.High}, {Priority: models.High}, {Priority: models.High}},
		Language:       []models.Improvement{{Priority: models.Low}},
		BiasMitigation: []models.Improvement{{Priority: models.Medium}, {Priority: models.Low}},
	}

	assert.Equal(t, models.PrioritySummary{High: 3, Medium: 1, Low: 2}, Summarize(s))
	assert.Equal(t, models.PrioritySummary{}, Summarize(nil))
}

func TestSummarizeTotalMatchesImprovementCount(t *testing.T) {
	priorities := []models.Priority{models.High, models.Medium, models.Low}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		s := &models.ImprovementSuggestions{}
		for _, category := range models.ImprovementCategories {
			items := make([]models.Improvement, rng.Intn(5))
			for j := range items {
				items[j] = models.Improvement{Category: category, Priority: priorities[rng.Intn(len(priorities))]}
			}
			assert.NoError(t, s.Set(category, items))
		}

		assert.Equal(t, s.Total(), Summarize(s).Total())
	}
}
