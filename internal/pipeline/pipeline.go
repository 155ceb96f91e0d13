// Package pipeline runs an evaluation as a sequence of named stages.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/devils-advocate/internal/bias"
	"github.com/spigell/devils-advocate/internal/evaluation"
	"github.com/spigell/devils-advocate/internal/improvement"
	"github.com/spigell/devils-advocate/internal/logger"
	"github.com/spigell/devils-advocate/internal/models"
	"github.com/spigell/devils-advocate/internal/session"
)

// Stage names.
const (
	StageReviews      = "reviews"
	StageDecision     = "decision"
	StageBias         = "bias"
	StageImprovements = "improvements"
	StageSession      = "session"
)

// Stage represents a single step of an evaluation.
type Stage interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, st *State) (Step, error)
}

// Deps aggregates the collaborators shared across all stages.
type Deps struct {
	Logger       *zap.Logger
	Roster       []models.Reviewer
	Panel        *evaluation.Panel
	Analyzer     *bias.Analyzer
	Improvements *improvement.Aggregator
	Store        session.Store
}

// Step describes the result of executing a stage.
type Step struct {
	Initial  int
	Produced int
	Failed   int
}

// Config contains settings consumed by the stages.
type Config struct {
	Improvements *ImprovementsConfig
	Session      *SessionConfig
}

// ImprovementsConfig stores improvement generation settings.
type ImprovementsConfig struct {
	Enabled bool
	Mode    string
	Context string
}

// SessionConfig stores session persistence settings.
type SessionConfig struct {
	Driver string
	Path   string
}

// Status represents runtime information about a stage.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// State carries the inputs of an evaluation and everything the stages produce.
type State struct {
	ApplicationID string
	Opportunity   string
	Application   string

	Reviews      []models.ReviewerFeedback
	Failures     []models.ReviewerFailure
	Decision     *evaluation.Decision
	BiasAnalysis *models.BiasAnalysis
	Improvements *models.ImprovementSuggestions

	// Errors collects failures of optional stages that did not stop the run.
	Errors map[string]string

	now func() time.Time
}

// NewState prepares the state for one application. An empty id is replaced by a generated one.
func NewState(applicationID, opportunity, application string) *State {
	if applicationID == "" {
		applicationID = models.NewApplicationID()
	}
	return &State{
		ApplicationID: applicationID,
		Opportunity:   opportunity,
		Application:   application,
		Errors:        map[string]string{},
		now:           time.Now,
	}
}

func (s *State) recordError(stage string, err error) {
	if s.Errors == nil {
		s.Errors = map[string]string{}
	}
	s.Errors[stage] = err.Error()
}

func (s *State) timestamp() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// Result builds the exportable evaluation result from the state.
func (s *State) Result() *models.EvaluationResult {
	result := &models.EvaluationResult{
		ApplicationID:        s.ApplicationID,
		Reviews:              s.Reviews,
		UnavailableReviewers: s.Failures,
		BiasAnalysis:         s.BiasAnalysis,
		Improvements:         s.Improvements,
		EvaluationTimestamp:  s.timestamp(),
	}
	if s.Decision != nil {
		confidence := s.Decision.Confidence
		result.OverallDecision = s.Decision.Recommendation
		result.ConfidenceScore = &confidence
	}
	return result
}

// Default returns the full list of stages in execution order.
func Default() []Stage {
	return []Stage{NewReviews(), NewDecision(), NewBias(), NewImprovements(), NewSession()}
}

// DisableByName marks a stage with the provided name as disabled while keeping it in the list.
func DisableByName(stages []Stage, name, reason string) {
	for _, stage := range stages {
		if stage.Name() == name {
			stage.Disable(reason)
		}
	}
}

// Run validates the enabled stages and then applies them sequentially to st.
func Run(ctx context.Context, cfg *Config, deps Deps, stages []Stage, st *State) error {
	for _, stage := range stages {
		if !stage.IsEnabled() {
			continue
		}
		if err := stage.Validate(cfg); err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}
	}

	log := logger.ForApplication(deps.Logger, st.ApplicationID)

	for _, stage := range stages {
		if !stage.IsEnabled() {
			log.Info("stage disabled", zap.String("name", stage.Name()))
			continue
		}

		stageDeps := deps
		stageDeps.Logger = logger.ForStage(log, stage.Name())
		info, err := stage.Apply(ctx, stageDeps, st)
		if err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}

		log.Info("evaluation stage",
			zap.String("name", stage.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("produced", info.Produced),
			zap.Int("failed", info.Failed),
		)
	}

	return nil
}

// Describe returns status entries for the provided stages.
func Describe(stages []Stage) []Status {
	statuses := make([]Status, 0, len(stages))
	for _, stage := range stages {
		if reporter, ok := stage.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    stage.Name(),
			Enabled: stage.IsEnabled(),
		})
	}
	return statuses
}
