package models

import (
	"fmt"
	"strings"
)

// Priority is used both for the priority and the implementation difficulty of an improvement.
type Priority string

const (
	High   Priority = "high"
	Medium Priority = "medium"
	Low    Priority = "low"
)

func (p Priority) Valid() bool {
	return p == High || p == Medium || p == Low
}

func ParsePriority(v string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(v)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", v)
	}
	return p, nil
}

// Improvement categories, in the order they are reported.
const (
	ImprovementTechnical      = "technical_improvements"
	ImprovementLanguage       = "language_improvements"
	ImprovementExperience     = "experience_improvements"
	ImprovementPresentation   = "presentation_improvements"
	ImprovementBiasMitigation = "bias_mitigation_improvements"
)

var ImprovementCategories = []string{
	ImprovementTechnical,
	ImprovementLanguage,
	ImprovementExperience,
	ImprovementPresentation,
	ImprovementBiasMitigation,
}

type Improvement struct {
	Category                 string   `json:"category" yaml:"category"`
	Priority                 Priority `json:"priority" yaml:"priority"`
	Issue                    string   `json:"issue" yaml:"issue"`
	Suggestion               string   `json:"suggestion" yaml:"suggestion"`
	Example                  string   `json:"example,omitempty" yaml:"example,omitempty"`
	ImpactArea               string   `json:"impact_area" yaml:"impact_area"`
	ImplementationDifficulty Priority `json:"implementation_difficulty" yaml:"implementation_difficulty"`
}

type PrioritySummary struct {
	High   int `json:"high" yaml:"high"`
	Medium int `json:"medium" yaml:"medium"`
	Low    int `json:"low" yaml:"low"`
}

// Total returns the number of counted improvements.
func (s PrioritySummary) Total() int {
	return s.High + s.Medium + s.Low
}

type ImprovementSuggestions struct {
	Technical       []Improvement   `json:"technical_improvements" yaml:"technical_improvements"`
	Language        []Improvement   `json:"language_improvements" yaml:"language_improvements"`
	Experience      []Improvement   `json:"experience_improvements" yaml:"experience_improvements"`
	Presentation    []Improvement   `json:"presentation_improvements" yaml:"presentation_improvements"`
	BiasMitigation  []Improvement   `json:"bias_mitigation_improvements" yaml:"bias_mitigation_improvements"`
	PrioritySummary PrioritySummary `json:"priority_summary" yaml:"priority_summary"`
}

// ByCategory returns the list stored under the given category name.
func (s *ImprovementSuggestions) ByCategory(category string) []Improvement {
	switch category {
	case ImprovementTechnical:
		return s.Technical
	case ImprovementLanguage:
		return s.Language
	case ImprovementExperience:
		return s.Experience
	case ImprovementPresentation:
		return s.Presentation
	case ImprovementBiasMitigation:
		return s.BiasMitigation
	default:
		return nil
	}
}

// Set stores items under the given category name.
func (s *ImprovementSuggestions) Set(category string, items []Improvement) error {
	switch category {
	case ImprovementTechnical:
		s.Technical = items
	case ImprovementLanguage:
		s.Language = items
	case ImprovementExperience:
		s.Experience = items
	case ImprovementPresentation:
		s.Presentation = items
	case ImprovementBiasMitigation:
		s.BiasMitigation = items
	default:
		return fmt.Errorf("unknown improvement category %q", category)
	}
	return nil
}

// All returns every improvement across the five categories.
func (s *ImprovementSuggestions) All() []Improvement {
	all := make([]Improvement, 0, s.Total())
	for _, category := range ImprovementCategories {
		all = append(all, s.ByCategory(category)...)
	}
	return all
}

func (s *ImprovementSuggestions) Total() int {
	return len(s.Technical) + len(s.Language) + len(s.Experience) + len(s.Presentation) + len(s.BiasMitigation)
}
