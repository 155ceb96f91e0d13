package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/devils-advocate/internal/ai"
	"github.com/spigell/devils-advocate/internal/logger"
	"github.com/spigell/devils-advocate/internal/models"
	"github.com/spigell/devils-advocate/internal/schema"
)

// Outcome holds the reviews collected from a panel, in roster order, and the reviewers
// that could not provide one.
type Outcome struct {
	Reviews  []models.ReviewerFeedback
	Failures []models.ReviewerFailure
}

// Panel asks every reviewer of a roster for feedback in parallel.
type Panel struct {
	Generator ai.Generator
	Builder   RequestBuilder
	// Concurrency caps parallel reviewers; zero or less means one slot per reviewer.
	Concurrency int
	Logger      *zap.Logger

	now func() time.Time
}

// Collect runs one review per reviewer. A reviewer that times out, fails to generate or
// returns unparseable feedback is recorded as a failure. Collect fails with an
// *AggregationError when no reviewer succeeds and with the context error when ctx is done.
func (p *Panel) Collect(ctx context.Context, roster []models.Reviewer, opportunity, application string) (*Outcome, error) {
	if len(roster) == 0 {
		return nil, &AggregationError{Reason: "reviewer roster is empty"}
	}
	if p.Generator == nil {
		return nil, errors.New("reviewer panel has no text generator")
	}

	log := logger.WithFields(p.Logger)
	parser := NewParser(p.Generator, p.Builder)

	reviews := make([]*models.ReviewerFeedback, len(roster))
	failures := make([]*models.ReviewerFailure, len(roster))

	limit := p.Concurrency
	if limit <= 0 {
		limit = len(roster)
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, reviewer := range roster {
		g.Go(func() error {
			rlog := logger.ForReviewer(log, reviewer.Name, string(reviewer.BiasStance))
			feedback, err := p.review(ctx, parser, reviewer, opportunity, application)
			if err != nil {
				kind := failureKind(err)
				rlog.Warn("reviewer unavailable", zap.String("kind", kind), zap.Error(err))
				failures[i] = &models.ReviewerFailure{Reviewer: reviewer, Kind: kind, Error: err.Error()}
				return nil
			}
			rlog.Debug("review collected", zap.String("recommendation", string(feedback.Recommendation)))
			reviews[i] = feedback
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect reviews: %w", err)
	}

	outcome := &Outcome{}
	for i := range roster {
		if reviews[i] != nil {
			outcome.Reviews = append(outcome.Reviews, *reviews[i])
		}
		if failures[i] != nil {
			outcome.Failures = append(outcome.Failures, *failures[i])
		}
	}

	log.Info("reviewer panel finished",
		zap.Int("reviewers", len(roster)),
		zap.Int("collected", len(outcome.Reviews)),
		zap.Int("unavailable", len(outcome.Failures)),
	)

	if len(outcome.Reviews) == 0 {
		return outcome, &AggregationError{Reason: fmt.Sprintf("all %d reviewers are unavailable", len(roster))}
	}

	return outcome, nil
}

func (p *Panel) review(ctx context.Context, parser *Parser, reviewer models.Reviewer, opportunity, application string) (*models.ReviewerFeedback, error) {
	req := p.Builder.BuildPrompt(reviewer, opportunity, application)
	raw, err := p.Generator.Generate(ctx, req.System, req.Message, req.Options)
	if err != nil {
		return nil, fmt.Errorf("review by %s: %w", reviewer.Name, err)
	}

	feedback, err := parser.Parse(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("feedback from %s: %w", reviewer.Name, err)
	}

	feedback.Reviewer = reviewer
	feedback.Timestamp = p.clock()().UTC()
	return feedback, nil
}

func (p *Panel) clock() func() time.Time {
	if p.now != nil {
		return p.now
	}
	return time.Now
}

func failureKind(err error) string {
	switch {
	case ai.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return models.FailureTimeout
	case schema.IsParseError(err):
		return models.FailureParse
	default:
		return models.FailureGeneration
	}
}
