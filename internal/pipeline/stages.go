package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/devils-advocate/internal/bias"
	"github.com/spigell/devils-advocate/internal/evaluation"
	"github.com/spigell/devils-advocate/internal/improvement"
	"github.com/spigell/devils-advocate/internal/models"
	"github.com/spigell/devils-advocate/internal/session"
)

type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

type reviewsStage struct {
	toggle
	reviewers int
}

// NewReviews creates the stage that collects feedback from every reviewer.
func NewReviews() Stage {
	return &reviewsStage{}
}

func (s *reviewsStage) Name() string { return StageReviews }

func (s *reviewsStage) Validate(*Config) error { return nil }

func (s *reviewsStage) Apply(ctx context.Context, deps Deps, st *State) (Step, error) {
	if deps.Panel == nil {
		return Step{}, errors.New("reviewer panel is required")
	}
	s.reviewers = len(deps.Roster)

	out, err := deps.Panel.Collect(ctx, deps.Roster, st.Opportunity, st.Application)
	if out != nil {
		st.Reviews = out.Reviews
		st.Failures = out.Failures
	}
	if err != nil {
		return Step{}, err
	}

	return Step{Initial: len(deps.Roster), Produced: len(st.Reviews), Failed: len(st.Failures)}, nil
}

func (s *reviewsStage) Status() Status {
	details := map[string]string{}
	if s.reviewers > 0 {
		details["reviewers"] = strconv.Itoa(s.reviewers)
	}
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason, Details: details}
}

type decisionStage struct {
	toggle
}

// NewDecision creates the stage that aggregates recommendations into the overall decision.
func NewDecision() Stage {
	return &decisionStage{}
}

func (s *decisionStage) Name() string { return StageDecision }

func (s *decisionStage) Validate(*Config) error { return nil }

func (s *decisionStage) Apply(_ context.Context, deps Deps, st *State) (Step, error) {
	decision, err := evaluation.Decide(st.Reviews)
	if err != nil {
		return Step{}, err
	}
	st.Decision = &decision

	if deps.Logger != nil {
		deps.Logger.Info("overall decision",
			zap.String("recommendation", string(decision.Recommendation)),
			zap.Int("threshold", decision.Threshold),
			zap.Bool("tied", decision.Tied),
			zap.Float64("confidence", decision.Confidence),
		)
	}

	return Step{Initial: len(st.Reviews), Produced: 1}, nil
}

func (s *decisionStage) Status() Status {
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason}
}

type biasStage struct {
	toggle
}

// NewBias creates the bias analysis stage. A failed narrative leaves an analysis with
// the computed score only.
func NewBias() Stage {
	return &biasStage{}
}

func (s *biasStage) Name() string { return StageBias }

func (s *biasStage) Validate(*Config) error { return nil }

func (s *biasStage) Apply(ctx context.Context, deps Deps, st *State) (Step, error) {
	initial := len(st.Reviews)

	if deps.Analyzer != nil {
		analysis, err := deps.Analyzer.Analyze(ctx, st.Reviews, st.Opportunity, st.Application)
		if err == nil {
			st.BiasAnalysis = analysis
			return Step{Initial: initial, Produced: len(analysis.Indicators)}, nil
		}
		if ctx.Err() != nil {
			return Step{}, err
		}
		if deps.Logger != nil {
			deps.Logger.Warn("bias narrative failed, keeping the computed score", zap.Error(err))
		}
		st.recordError(s.Name(), err)
	}

	breakdown, indicators := bias.Score(st.Reviews)
	score := breakdown.Score
	st.BiasAnalysis = &models.BiasAnalysis{
		BiasScore:  &score,
		Indicators: indicators,
		Timestamp:  st.timestamp(),
	}

	failed := 0
	if deps.Analyzer != nil {
		failed = 1
	}
	return Step{Initial: initial, Produced: len(indicators), Failed: failed}, nil
}

func (s *biasStage) Status() Status {
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason}
}

type improvementsStage struct {
	toggle
	config *ImprovementsConfig
}

// NewImprovements creates the stage that generates improvement suggestions.
// Its failure is recorded on the state and does not stop the evaluation.
func NewImprovements() Stage {
	return &improvementsStage{}
}

func (s *improvementsStage) Name() string { return StageImprovements }

func (s *improvementsStage) Validate(cfg *Config) error {
	s.config = nil
	if cfg != nil {
		s.config = cfg.Improvements
	}
	if s.config == nil {
		return nil
	}
	if s.config.Mode != "" {
		if err := improvement.ValidateMode(s.config.Mode); err != nil {
			return err
		}
	}
	if s.config.Context != "" {
		if err := improvement.ValidateContext(s.config.Context); err != nil {
			return err
		}
	}
	return nil
}

func (s *improvementsStage) Apply(ctx context.Context, deps Deps, st *State) (Step, error) {
	if deps.Improvements == nil {
		if deps.Logger != nil {
			deps.Logger.Info("improvement generator is not configured; skipping improvements")
		}
		return Step{}, nil
	}

	suggestions, err := deps.Improvements.Generate(ctx, improvement.Input{
		Opportunity:  st.Opportunity,
		Application:  st.Application,
		Reviews:      st.Reviews,
		BiasAnalysis: st.BiasAnalysis,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Step{}, err
		}
		if deps.Logger != nil {
			deps.Logger.Warn("improvement generation failed", zap.Error(err))
		}
		st.recordError(s.Name(), err)
		return Step{Initial: len(models.ImprovementCategories), Failed: 1}, nil
	}

	st.Improvements = suggestions
	return Step{Initial: len(models.ImprovementCategories), Produced: suggestions.Total()}, nil
}

func (s *improvementsStage) Status() Status {
	details := map[string]string{}
	if s.config != nil {
		details["mode"] = s.config.Mode
		details["context"] = s.config.Context
	}
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason, Details: details}
}

type sessionStage struct {
	toggle
	config *SessionConfig
}

// NewSession creates the stage that stores the evaluation for later commands.
func NewSession() Stage {
	return &sessionStage{}
}

func (s *sessionStage) Name() string { return StageSession }

func (s *sessionStage) Validate(cfg *Config) error {
	s.config = nil
	if cfg != nil {
		s.config = cfg.Session
	}
	return nil
}

func (s *sessionStage) Apply(ctx context.Context, deps Deps, st *State) (Step, error) {
	if deps.Store == nil {
		if deps.Logger != nil {
			deps.Logger.Info("session store is not configured; skipping session")
		}
		return Step{}, nil
	}

	err := deps.Store.Put(ctx, &session.Session{
		ApplicationID: st.ApplicationID,
		Opportunity:   st.Opportunity,
		Application:   st.Application,
		Evaluation:    st.Result(),
		Improvements:  st.Improvements,
	})
	if err != nil {
		return Step{}, fmt.Errorf("store session: %w", err)
	}

	return Step{Initial: 1, Produced: 1}, nil
}

func (s *sessionStage) Status() Status {
	details := map[string]string{}
	if s.config != nil {
		details["driver"] = s.config.Driver
		if s.config.Path != "" {
			details["path"] = s.config.Path
		}
	}
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason, Details: details}
}
