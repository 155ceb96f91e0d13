package evaluation

import (
	_ "embed"
	"strings"

	"github.com/spigell/devils-advocate/internal/ai"
	"github.com/spigell/devils-advocate/internal/models"
)

//go:embed prompts/biased_reviewer.md
var biasedReviewerTemplate string

//go:embed prompts/unbiased_reviewer.md
var unbiasedReviewerTemplate string

//go:embed prompts/review_input.md
var reviewInputTemplate string

//go:embed prompts/feedback_format.md
var feedbackFormatTemplate string

// Request is a single text-generation request.
type Request struct {
	System  string
	Message string
	Options ai.Options
}

// RequestBuilder turns a reviewer and the two source texts into a review request.
type RequestBuilder struct {
	Temperature float64
	MaxTokens   int
	// FormatModel runs the JSON restatement on a different model when set.
	FormatModel string
}

// BuildPrompt picks the template matching the reviewer's stance and fills it in.
// Empty texts are passed through unchanged.
func (b RequestBuilder) BuildPrompt(reviewer models.Reviewer, opportunity, application string) Request {
	template := unbiasedReviewerTemplate
	if reviewer.BiasStance == models.Biased {
		template = biasedReviewerTemplate
	}

	system := strings.NewReplacer(
		"{{NAME}}", reviewer.Name,
		"{{SPECIALIZATION}}", reviewer.Specialization,
	).Replace(template)

	message := strings.NewReplacer(
		"{{OPPORTUNITY}}", opportunity,
		"{{APPLICATION}}", application,
	).Replace(reviewInputTemplate)

	return Request{
		System:  system,
		Message: message,
		Options: ai.Options{
			Temperature:    b.Temperature,
			MaxTokens:      b.MaxTokens,
			ResponseFormat: ai.FormatText,
		},
	}
}

// BuildFormatRequest asks the generator to restate a free-form review as JSON.
func (b RequestBuilder) BuildFormatRequest(review string) Request {
	return Request{
		System:  feedbackFormatTemplate,
		Message: review,
		Options: ai.Options{
			Model:          b.FormatModel,
			Temperature:    b.Temperature,
			MaxTokens:      b.MaxTokens,
			ResponseFormat: ai.FormatJSON,
		},
	}
}
