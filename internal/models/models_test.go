package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseEnums(t *testing.T) {
	tests := []struct {
		name    string
		parse   func(string) (string, error)
		input   string
		want    string
		wantErr bool
	}{
		{name: "recommendation mixed case", parse: parseRec, input: "  Accept ", want: "accept"},
		{name: "recommendation unknown", parse: parseRec, input: "maybe", wantErr: true},
		{name: "priority upper case", parse: parsePriority, input: "HIGH", want: "high"},
		{name: "priority empty", parse: parsePriority, input: "", wantErr: true},
		{name: "stance", parse: parseStance, input: "Unbiased", want: "unbiased"},
		{name: "stance unknown", parse: parseStance, input: "neutral", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func parseRec(v string) (string, error) {
	r, err := ParseRecommendation(v)
	return string(r), err
}

func parsePriority(v string) (string, error) {
	p, err := ParsePriority(v)
	return string(p), err
}

func parseStance(v string) (string, error) {
	s, err := ParseBiasStance(v)
	return string(s), err
}

func TestFeedbackMeanAndTexts(t *testing.T) {
	f := &ReviewerFeedback{
		Scores: []ReviewScore{
			{Category: CategoryInitialImpression, Score: 6, Comments: "solid start"},
			{Category: CategoryTechnicalAssessment, Score: 8},
			{Category: CategoryExperienceEvaluation, Score: 7},
		},
		Strengths:     []string{"Go"},
		Weaknesses:    []string{"no k8s"},
		Justification: "fits",
	}

	if got := f.MeanScore(); got != 7 {
		t.Fatalf("expected mean 7, got %v", got)
	}
	if got := (&ReviewerFeedback{}).MeanScore(); got != 0 {
		t.Fatalf("expected mean 0 without scores, got %v", got)
	}

	texts := f.Texts()
	want := []string{"Go", "no k8s", "solid start", "fits"}
	if len(texts) != len(want) {
		t.Fatalf("expected %v, got %v", want, texts)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Fatalf("text %d: expected %q, got %q", i, want[i], texts[i])
		}
	}
}

func TestImprovementSuggestionsByCategory(t *testing.T) {
	s := &ImprovementSuggestions{}
	for i, category := range ImprovementCategories {
		items := make([]Improvement, i+1)
		if err := s.Set(category, items); err != nil {
			t.Fatalf("set %s: %v", category, err)
		}
	}

	if err := s.Set("unknown", nil); err == nil {
		t.Fatalf("expected error for unknown category")
	}
	if got := s.Total(); got != 15 {
		t.Fatalf("expected 15 improvements, got %d", got)
	}
	if got := len(s.All()); got != 15 {
		t.Fatalf("expected All to return 15, got %d", got)
	}
	if got := len(s.ByCategory(ImprovementBiasMitigation)); got != 5 {
		t.Fatalf("expected 5 bias mitigation items, got %d", got)
	}
}

func TestNewApplicationID(t *testing.T) {
	id := NewApplicationID()
	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("expected a uuid, got %q: %v", id, err)
	}
	if parsed.Version() != 4 {
		t.Fatalf("expected version 4, got %d", parsed.Version())
	}
	if id == NewApplicationID() {
		t.Fatalf("expected distinct ids")
	}
}
