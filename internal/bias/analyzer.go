// Package bias inspects reviewer feedback for signs of biased evaluation and rewrites
// texts in neutral language.
package bias

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/devils-advocate/internal/ai"
	"github.com/spigell/devils-advocate/internal/models"
)

//go:embed prompts/analysis.md
var analysisTemplate string

//go:embed prompts/neutralize.md
var neutralizeTemplate string

//go:embed prompts/probe.md
var probeTemplate string

var probeQuestions = []string{
	"Does the text contain gender bias?",
	"Does the text reinforce any gender stereotypes?",
	"Does the text contain examples of gender discrimination?",
	"Is the tone of the text regarding gender anything other than neutral?",
}

// Analyzer produces bias analyses with a text generator.
type Analyzer struct {
	Generator   ai.Generator
	Temperature float64
	MaxTokens   int
	Logger      *zap.Logger

	now func() time.Time
}

// Analyze asks the generator for a narrative analysis of reviews and attaches the
// computed bias score and indicators. A failed generation call is returned as an error.
func (a *Analyzer) Analyze(ctx context.Context, reviews []models.ReviewerFeedback, opportunity, application string) (*models.BiasAnalysis, error) {
	if a.Generator == nil {
		return nil, errors.New("bias analyzer has no text generator")
	}

	rendered, err := json.MarshalIndent(reviews, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render reviews: %w", err)
	}

	system := strings.NewReplacer(
		"{{OPPORTUNITY}}", opportunity,
		"{{APPLICATION}}", application,
		"{{REVIEWS}}", string(rendered),
	).Replace(analysisTemplate)

	summary, err := a.Generator.Generate(ctx, system, "", a.options(ai.FormatText))
	if err != nil {
		return nil, fmt.Errorf("bias analysis: %w", err)
	}

	breakdown, indicators := Score(reviews)
	a.logger().Info("bias analysis completed",
		zap.Float64("bias_score", breakdown.Score),
		zap.Float64("lexical", breakdown.Lexical),
		zap.Float64("disparity", breakdown.Disparity),
		zap.Float64("disagreement", breakdown.Disagreement),
		zap.Int("indicators", len(indicators)),
	)

	score := breakdown.Score
	return &models.BiasAnalysis{
		Summary:    strings.TrimSpace(summary),
		BiasScore:  &score,
		Indicators: indicators,
		Timestamp:  a.clock()().UTC(),
	}, nil
}

// Neutralize rewrites text so that gender-coded and exclusionary wording is replaced
// while the meaning is kept.
func (a *Analyzer) Neutralize(ctx context.Context, text string) (string, error) {
	return a.NeutralizeStream(ctx, text, nil)
}

// NeutralizeStream is Neutralize that also hands the rewrite to onChunk as it is generated.
func (a *Analyzer) NeutralizeStream(ctx context.Context, text string, onChunk func(string)) (string, error) {
	if a.Generator == nil {
		return "", errors.New("bias analyzer has no text generator")
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("text to neutralize is empty")
	}

	opts := a.options(ai.FormatText)
	opts.Stream = onChunk
	out, err := a.Generator.Generate(ctx, neutralizeTemplate, text, opts)
	if err != nil {
		return "", fmt.Errorf("neutralize text: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Probe asks a fixed series of yes/no questions about text and reports whether any
// answer was yes. It stops at the first yes.
func (a *Analyzer) Probe(ctx context.Context, text string) (bool, error) {
	if a.Generator == nil {
		return false, errors.New("bias analyzer has no text generator")
	}

	opts := ai.Options{Temperature: 0.1, MaxTokens: 10, ResponseFormat: ai.FormatText}
	for i, question := range probeQuestions {
		message := fmt.Sprintf("%s\n\nText:\n%s", question, text)
		answer, err := a.Generator.Generate(ctx, probeTemplate, message, opts)
		if err != nil {
			return false, fmt.Errorf("bias probe %d: %w", i+1, err)
		}
		if strings.Contains(answer, "1") {
			a.logger().Debug("bias probe answered yes", zap.Int("question", i+1))
			return true, nil
		}
	}
	return false, nil
}

func (a *Analyzer) options(format ai.ResponseFormat) ai.Options {
	return ai.Options{Temperature: a.Temperature, MaxTokens: a.MaxTokens, ResponseFormat: format}
}

func (a *Analyzer) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func (a *Analyzer) clock() func() time.Time {
	if a.now != nil {
		return a.now
	}
	return time.Now
}
