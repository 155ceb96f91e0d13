package improvement

import (
	"fmt"
	"strings"

	"github.com/spigell/devils-advocate/internal/models"
)

type record struct {
	Category                 string `json:"category"`
	Priority                 string `json:"priority"`
	Issue                    string `json:"issue"`
	Suggestion               string `json:"suggestion"`
	Example                  string `json:"example"`
	ImpactArea               string `json:"impact_area"`
	ImplementationDifficulty string `json:"implementation_difficulty"`
}

func (r *record) normalize(category string) {
	r.Category = strings.TrimSpace(r.Category)
	if r.Category == "" {
		r.Category = category
	}
	r.Priority = strings.ToLower(strings.TrimSpace(r.Priority))
	r.ImplementationDifficulty = strings.ToLower(strings.TrimSpace(r.ImplementationDifficulty))
	r.Issue = strings.TrimSpace(r.Issue)
	r.Suggestion = strings.TrimSpace(r.Suggestion)
	r.Example = strings.TrimSpace(r.Example)
	r.ImpactArea = strings.TrimSpace(r.ImpactArea)
}

func (r *record) validate() error {
	if r.Issue == "" {
		return fmt.Errorf("issue is required")
	}
	if r.Suggestion == "" {
		return fmt.Errorf("suggestion is required")
	}
	if !models.Priority(r.Priority).Valid() {
		return fmt.Errorf("unknown priority %q", r.Priority)
	}
	if !models.Priority(r.ImplementationDifficulty).Valid() {
		return fmt.Errorf("unknown implementation difficulty %q", r.ImplementationDifficulty)
	}
	return nil
}

func (r record) improvement() models.Improvement {
	return models.Improvement{
		Category:                 r.Category,
		Priority:                 models.Priority(r.Priority),
		Issue:                    r.Issue,
		Suggestion:               r.Suggestion,
		Example:                  r.Example,
		ImpactArea:               r.ImpactArea,
		ImplementationDifficulty: models.Priority(r.ImplementationDifficulty),
	}
}

func validateList(category string, records []record) error {
	if len(records) == 0 {
		return fmt.Errorf("%s must contain at least one improvement", category)
	}
	for i := range records {
		if err := records[i].validate(); err != nil {
			return fmt.Errorf("%s #%d: %w", category, i+1, err)
		}
	}
	return nil
}

func convert(records []record) []models.Improvement {
	out := make([]models.Improvement, len(records))
	for i, r := range records {
		out[i] = r.improvement()
	}
	return out
}

// batchPayload is the JSON answer of a batched request.
type batchPayload struct {
	Technical      []record `json:"technical_improvements"`
	Language       []record `json:"language_improvements"`
	Experience     []record `json:"experience_improvements"`
	Presentation   []record `json:"presentation_improvements"`
	BiasMitigation []record `json:"bias_mitigation_improvements"`
}

func (p *batchPayload) lists() map[string]*[]record {
	return map[string]*[]record{
		models.ImprovementTechnical:      &p.Technical,
		models.ImprovementLanguage:       &p.Language,
		models.ImprovementExperience:     &p.Experience,
		models.ImprovementPresentation:   &p.Presentation,
		models.ImprovementBiasMitigation: &p.BiasMitigation,
	}
}

func (p *batchPayload) Normalize() {
	for category, list := range p.lists() {
		for i := range *list {
			(*list)[i].normalize(category)
		}
	}
}

func (p *batchPayload) Validate() error {
	lists := p.lists()
	for _, category := range models.ImprovementCategories {
		if err := validateList(category, *lists[category]); err != nil {
			return err
		}
	}
	return nil
}

func (p *batchPayload) list(category string) []models.Improvement {
	return convert(*p.lists()[category])
}

// categoryPayload is the JSON answer of a single-category request.
type categoryPayload struct {
	Improvements []record `json:"improvements"`

	category string
}

func (p *categoryPayload) Normalize() {
	for i := range p.Improvements {
		p.Improvements[i].normalize(p.category)
	}
}

func (p *categoryPayload) Validate() error {
	return validateList(p.category, p.Improvements)
}

func (p *categoryPayload) items() []models.Improvement {
	return convert(p.Improvements)
}
