package models

import (
	"time"

	"github.com/google/uuid"
)

// EvaluationResult is the final, exportable outcome of evaluating one application.
type EvaluationResult struct {
	ApplicationID        string                  `json:"application_id" yaml:"application_id"`
	Reviews              []ReviewerFeedback      `json:"reviews" yaml:"reviews"`
	UnavailableReviewers []ReviewerFailure       `json:"unavailable_reviewers,omitempty" yaml:"unavailable_reviewers,omitempty"`
	BiasAnalysis         *BiasAnalysis           `json:"bias_analysis" yaml:"bias_analysis"`
	OverallDecision      Recommendation          `json:"overall_decision" yaml:"overall_decision"`
	ConfidenceScore      *float64                `json:"confidence_score" yaml:"confidence_score"`
	Improvements         *ImprovementSuggestions `json:"improvements,omitempty" yaml:"improvements,omitempty"`
	EvaluationTimestamp  time.Time               `json:"evaluation_timestamp" yaml:"evaluation_timestamp"`
}

// NewApplicationID generates an identifier for an application when the caller did not provide one.
func NewApplicationID() string {
	return uuid.NewString()
}
