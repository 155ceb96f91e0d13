package improvement

import "github.com/spigell/devils-advocate/internal/models"

// Summarize counts the improvements of every category by priority.
func Summarize(s *models.ImprovementSuggestions) models.PrioritySummary {
	var summary models.PrioritySummary
	if s == nil {
		return summary
	}
	for _, item := range s.All() {
		switch item.Priority {
		case models.High:
			summary.High++
		case models.Medium:
			summary.Medium++
		case models.Low:
			summary.Low++
		}
	}
	return summary
}
