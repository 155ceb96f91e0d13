package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/devils-advocate/internal/ai"
	"github.com/spigell/devils-advocate/internal/models"
	"github.com/spigell/devils-advocate/internal/schema"
)

// Parser turns a free-form review into ReviewerFeedback through a second,
// JSON-formatted generation call. It never retries.
type Parser struct {
	generator ai.Generator
	builder   RequestBuilder
}

func NewParser(generator ai.Generator, builder RequestBuilder) *Parser {
	return &Parser{generator: generator, builder: builder}
}

// Parse reformats raw and validates the result. Schema violations are *schema.ParseError.
func (p *Parser) Parse(ctx context.Context, raw string) (*models.ReviewerFeedback, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &schema.ParseError{Target: "review", Raw: raw, Err: errors.New("review text is empty")}
	}

	req := p.builder.BuildFormatRequest(raw)
	formatted, err := p.generator.Generate(ctx, req.System, req.Message, req.Options)
	if err != nil {
		return nil, fmt.Errorf("format review: %w", err)
	}

	return ParseFeedback(formatted)
}

// ParseFeedback decodes the JSON form of a review. The reviewer and timestamp are left
// for the caller to fill in.
func ParseFeedback(raw string) (*models.ReviewerFeedback, error) {
	var payload feedbackPayload
	if err := schema.Decode(raw, "reviewer feedback", &payload); err != nil {
		return nil, err
	}

	return &models.ReviewerFeedback{
		Scores:           payload.Scores,
		Strengths:        payload.Strengths,
		Weaknesses:       payload.Weaknesses,
		AreasOfConcern:   payload.AreasOfConcern,
		AreasOfPotential: payload.AreasOfPotential,
		Recommendation:   models.Recommendation(payload.Recommendation),
		Justification:    payload.Justification,
	}, nil
}

type feedbackPayload struct {
	Scores           []models.ReviewScore `json:"review_scores"`
	Strengths        []string             `json:"strengths"`
	Weaknesses       []string             `json:"weaknesses"`
	AreasOfConcern   []string             `json:"areas_of_concern"`
	AreasOfPotential []string             `json:"areas_of_potential"`
	Recommendation   string               `json:"recommendation"`
	Justification    string               `json:"justification"`
}

func (p *feedbackPayload) Normalize() {
	p.Strengths = schema.NonEmpty(p.Strengths)
	p.Weaknesses = schema.NonEmpty(p.Weaknesses)
	p.AreasOfConcern = schema.NonEmpty(p.AreasOfConcern)
	p.AreasOfPotential = schema.NonEmpty(p.AreasOfPotential)
	p.Recommendation = strings.ToLower(strings.TrimSpace(p.Recommendation))
	p.Justification = strings.TrimSpace(p.Justification)

	for i := range p.Scores {
		p.Scores[i].Category = strings.ToLower(strings.TrimSpace(p.Scores[i].Category))
		p.Scores[i].Comments = strings.TrimSpace(p.Scores[i].Comments)
	}

	sort.SliceStable(p.Scores, func(i, j int) bool {
		return categoryRank(p.Scores[i].Category) < categoryRank(p.Scores[j].Category)
	})
}

func (p *feedbackPayload) Validate() error {
	if len(p.Scores) == 0 {
		return errors.New("review_scores must not be empty")
	}

	seen := make(map[string]bool, len(models.ScoreCategories))
	for _, score := range p.Scores {
		if categoryRank(score.Category) == len(models.ScoreCategories) {
			return fmt.Errorf("unknown score category %q", score.Category)
		}
		if seen[score.Category] {
			return fmt.Errorf("score category %q appears more than once", score.Category)
		}
		seen[score.Category] = true

		if score.Score < models.MinScore || score.Score > models.MaxScore {
			return fmt.Errorf("score %v for %q is outside [%d, %d]", score.Score, score.Category, models.MinScore, models.MaxScore)
		}
	}

	for _, category := range models.ScoreCategories {
		if !seen[category] {
			return fmt.Errorf("missing score category %q", category)
		}
	}

	if len(p.Strengths) == 0 {
		return errors.New("strengths must not be empty")
	}
	if len(p.Weaknesses) == 0 {
		return errors.New("weaknesses must not be empty")
	}

	if !models.Recommendation(p.Recommendation).Valid() {
		return fmt.Errorf("unknown recommendation %q", p.Recommendation)
	}

	return nil
}

func categoryRank(category string) int {
	for i, c := range models.ScoreCategories {
		if c == category {
			return i
		}
	}
	return len(models.ScoreCategories)
}
