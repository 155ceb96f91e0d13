package models

import (
	"fmt"
	"strings"
	"time"
)

// Recommendation is the verdict of a single reviewer or the overall decision.
type Recommendation string

const (
	Accept  Recommendation = "accept"
	Reject  Recommendation = "reject"
	Pending Recommendation = "pending"
)

// Recommendations lists every valid recommendation.
var Recommendations = []Recommendation{Accept, Reject, Pending}

func (r Recommendation) Valid() bool {
	return r == Accept || r == Reject || r == Pending
}

// ParseRecommendation normalizes case and surrounding whitespace.
func ParseRecommendation(v string) (Recommendation, error) {
	rec := Recommendation(strings.ToLower(strings.TrimSpace(v)))
	if !rec.Valid() {
		return "", fmt.Errorf("unknown recommendation %q", v)
	}
	return rec, nil
}

// Score categories every reviewer must rate.
const (
	CategoryInitialImpression    = "initial_impression"
	CategoryTechnicalAssessment  = "technical_assessment"
	CategoryExperienceEvaluation = "experience_evaluation"
)

// ScoreCategories is the fixed, ordered list of score categories.
var ScoreCategories = []string{
	CategoryInitialImpression,
	CategoryTechnicalAssessment,
	CategoryExperienceEvaluation,
}

const (
	MinScore = 1
	MaxScore = 10
)

type ReviewScore struct {
	Category string  `json:"category" yaml:"category"`
	Score    float64 `json:"score" yaml:"score"`
	Comments string  `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// ReviewerFeedback is the structured review produced by one reviewer.
type ReviewerFeedback struct {
	Reviewer         Reviewer       `json:"reviewer" yaml:"reviewer"`
	Scores           []ReviewScore  `json:"review_scores" yaml:"review_scores"`
	Strengths        []string       `json:"strengths" yaml:"strengths"`
	Weaknesses       []string       `json:"weaknesses" yaml:"weaknesses"`
	AreasOfConcern   []string       `json:"areas_of_concern" yaml:"areas_of_concern"`
	AreasOfPotential []string       `json:"areas_of_potential" yaml:"areas_of_potential"`
	Recommendation   Recommendation `json:"recommendation" yaml:"recommendation"`
	Justification    string         `json:"justification" yaml:"justification"`
	Timestamp        time.Time      `json:"timestamp" yaml:"timestamp"`
}

// MeanScore returns the average of all category scores, or 0 when there are none.
func (f *ReviewerFeedback) MeanScore() float64 {
	if len(f.Scores) == 0 {
		return 0
	}
	var total float64
	for _, s := range f.Scores {
		total += s.Score
	}
	return total / float64(len(f.Scores))
}

// Texts returns every free-form text written by the reviewer.
func (f *ReviewerFeedback) Texts() []string {
	texts := make([]string, 0, len(f.Strengths)+len(f.Weaknesses)+len(f.AreasOfConcern)+len(f.AreasOfPotential)+len(f.Scores)+1)
	texts = append(texts, f.Strengths...)
	texts = append(texts, f.Weaknesses...)
	texts = append(texts, f.AreasOfConcern...)
	texts = append(texts, f.AreasOfPotential...)
	for _, s := range f.Scores {
		if s.Comments != "" {
			texts = append(texts, s.Comments)
		}
	}
	if f.Justification != "" {
		texts = append(texts, f.Justification)
	}
	return texts
}

// Failure kinds recorded for reviewers whose feedback could not be collected.
const (
	FailureTimeout    = "timeout"
	FailureParse      = "parse"
	FailureGeneration = "generation"
)

// ReviewerFailure marks a reviewer as unavailable for an evaluation.
type ReviewerFailure struct {
	Reviewer Reviewer `json:"reviewer" yaml:"reviewer"`
	Kind     string   `json:"kind" yaml:"kind"`
	Error    string   `json:"error" yaml:"error"`
}
