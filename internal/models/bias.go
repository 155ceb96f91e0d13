package models

import "time"

// BiasIndicator is a single piece of evidence found in the reviews.
type BiasIndicator struct {
	Type        string  `json:"type" yaml:"type"`
	Description string  `json:"description" yaml:"description"`
	Severity    float64 `json:"severity" yaml:"severity"`
	Context     string  `json:"context,omitempty" yaml:"context,omitempty"`
	Location    string  `json:"location,omitempty" yaml:"location,omitempty"`
}

type BiasAnalysis struct {
	Summary    string          `json:"analysis_summary" yaml:"analysis_summary"`
	BiasScore  *float64        `json:"bias_score" yaml:"bias_score"`
	Indicators []BiasIndicator `json:"indicators,omitempty" yaml:"indicators,omitempty"`
	Timestamp  time.Time       `json:"timestamp" yaml:"timestamp"`
}
