// Package improvement generates categorized suggestions for improving an application.
package improvement

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/devils-advocate/internal/ai"
	"github.com/spigell/devils-advocate/internal/models"
	"github.com/spigell/devils-advocate/internal/schema"
)

//go:embed prompts/improvements.md
var improvementsTemplate string

//go:embed prompts/review_context.md
var reviewContextTemplate string

// Generation modes.
const (
	// ModeBatched requests all categories in one call.
	ModeBatched = "batched"
	// ModePerCategory issues one call per category.
	ModePerCategory = "per-category"
)

// Context sources.
const (
	// ContextReviews includes the reviews and the bias analysis in the request.
	ContextReviews = "reviews"
	// ContextIndependent uses only the opportunity and the application.
	ContextIndependent = "independent"
)

// ValidateMode reports whether mode is a known generation mode.
func ValidateMode(mode string) error {
	switch mode {
	case ModeBatched, ModePerCategory:
		return nil
	default:
		return fmt.Errorf("unknown improvements mode %q (want %s or %s)", mode, ModeBatched, ModePerCategory)
	}
}

// ValidateContext reports whether source is a known context source.
func ValidateContext(source string) error {
	switch source {
	case ContextReviews, ContextIndependent:
		return nil
	default:
		return fmt.Errorf("unknown improvements context %q (want %s or %s)", source, ContextReviews, ContextIndependent)
	}
}

// Input is what improvements are generated from.
type Input struct {
	Opportunity  string
	Application  string
	Reviews      []models.ReviewerFeedback
	BiasAnalysis *models.BiasAnalysis
}

// Aggregator produces ImprovementSuggestions with a text generator.
type Aggregator struct {
	Generator   ai.Generator
	Temperature float64
	MaxTokens   int
	Mode        string
	Context     string
	// Concurrency caps parallel calls in per-category mode; zero or less means no cap.
	Concurrency int
	Logger      *zap.Logger
}

// Generate returns suggestions for all five categories with the priority summary filled in.
// Every category must receive at least one valid suggestion.
func (a *Aggregator) Generate(ctx context.Context, in Input) (*models.ImprovementSuggestions, error) {
	if a.Generator == nil {
		return nil, errors.New("improvement aggregator has no text generator")
	}

	mode := a.Mode
	if mode == "" {
		mode = ModeBatched
	}
	if err := ValidateMode(mode); err != nil {
		return nil, err
	}

	source := a.Context
	if source == "" {
		source = ContextReviews
	}
	if err := ValidateContext(source); err != nil {
		return nil, err
	}

	extra, err := renderContext(source, in)
	if err != nil {
		return nil, err
	}

	var suggestions *models.ImprovementSuggestions
	if mode == ModePerCategory {
		suggestions, err = a.perCategory(ctx, in, extra)
	} else {
		suggestions, err = a.batched(ctx, in, extra)
	}
	if err != nil {
		return nil, err
	}

	suggestions.PrioritySummary = Summarize(suggestions)
	a.logger().Info("improvements generated",
		zap.String("mode", mode),
		zap.String("context", source),
		zap.Int("total", suggestions.Total()),
		zap.Int("high", suggestions.PrioritySummary.High),
		zap.Int("medium", suggestions.PrioritySummary.Medium),
		zap.Int("low", suggestions.PrioritySummary.Low),
	)
	return suggestions, nil
}

func (a *Aggregator) batched(ctx context.Context, in Input, extra string) (*models.ImprovementSuggestions, error) {
	output := "Respond with a JSON object with one array per category, keyed by the category name."
	raw, err := a.call(ctx, in, extra, models.ImprovementCategories, output)
	if err != nil {
		return nil, err
	}

	var payload batchPayload
	if err := schema.Decode(raw, "improvement suggestions", &payload); err != nil {
		return nil, err
	}

	suggestions := &models.ImprovementSuggestions{}
	for _, category := range models.ImprovementCategories {
		if err := suggestions.Set(category, payload.list(category)); err != nil {
			return nil, err
		}
	}
	return suggestions, nil
}

func (a *Aggregator) perCategory(ctx context.Context, in Input, extra string) (*models.ImprovementSuggestions, error) {
	output := `Respond with a JSON object {"improvements": [...]} holding the improvements for this category.`
	results := make([][]models.Improvement, len(models.ImprovementCategories))

	g, gctx := errgroup.WithContext(ctx)
	if a.Concurrency > 0 {
		g.SetLimit(a.Concurrency)
	}
	for i, category := range models.ImprovementCategories {
		g.Go(func() error {
			raw, err := a.call(gctx, in, extra, []string{category}, output)
			if err != nil {
				return fmt.Errorf("%s: %w", category, err)
			}

			payload := categoryPayload{category: category}
			if err := schema.Decode(raw, category, &payload); err != nil {
				return err
			}
			results[i] = payload.items()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	suggestions := &models.ImprovementSuggestions{}
	for i, category := range models.ImprovementCategories {
		if err := suggestions.Set(category, results[i]); err != nil {
			return nil, err
		}
	}
	return suggestions, nil
}

func (a *Aggregator) call(ctx context.Context, in Input, extra string, categories []string, output string) (string, error) {
	system := strings.NewReplacer(
		"{{OPPORTUNITY}}", in.Opportunity,
		"{{APPLICATION}}", in.Application,
		"{{CONTEXT}}", extra,
		"{{CATEGORIES}}", "- "+strings.Join(categories, "\n- "),
		"{{OUTPUT}}", output,
	).Replace(improvementsTemplate)

	raw, err := a.Generator.Generate(ctx, system, "", ai.Options{
		Temperature:    a.Temperature,
		MaxTokens:      a.MaxTokens,
		ResponseFormat: ai.FormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("generate improvements: %w", err)
	}
	return raw, nil
}

func (a *Aggregator) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func renderContext(source string, in Input) (string, error) {
	if source == ContextIndependent {
		return "", nil
	}

	reviews, err := json.MarshalIndent(in.Reviews, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render reviews: %w", err)
	}

	analysis := "not available"
	if in.BiasAnalysis != nil {
		data, err := json.MarshalIndent(in.BiasAnalysis, "", "  ")
		if err != nil {
			return "", fmt.Errorf("render bias analysis: %w", err)
		}
		analysis = string(data)
	}

	return strings.NewReplacer(
		"{{REVIEWS}}", string(reviews),
		"{{BIAS_ANALYSIS}}", analysis,
	).Replace(reviewContextTemplate), nil
}
