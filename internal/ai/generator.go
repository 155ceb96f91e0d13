package ai

import (
	"context"
	"strings"
)

// ResponseFormat selects between free text and a single JSON object.
type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json"
)

// Options tune a single generation request.
type Options struct {
	// Model overrides the generator's configured model for this request.
	Model          string
	Temperature    float64
	MaxTokens      int
	ResponseFormat ResponseFormat
	// Stream receives the response text chunk by chunk while it is generated.
	// Generate still returns the complete text.
	Stream func(chunk string)
}

// ModelOr returns the request model, or fallback when none is set.
func (o Options) ModelOr(fallback string) string {
	if m := strings.TrimSpace(o.Model); m != "" {
		return m
	}
	return fallback
}

// Generator is an external text-generation service. Output is never assumed to be well formed.
type Generator interface {
	Generate(ctx context.Context, system, message string, opts Options) (string, error)
	Model() string
}
