package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spigell/devils-advocate/internal/ai"
	"github.com/spigell/devils-advocate/internal/models"
)

// personaGenerator answers review calls per reviewer name and format calls with
// the JSON registered for that reviewer.
type personaGenerator struct {
	mu       sync.Mutex
	feedback map[string]string
	errs     map[string]error
	block    map[string]bool
	calls    []ai.Options
}

func (g *personaGenerator) Generate(ctx context.Context, system, message string, opts ai.Options) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, opts)
	g.mu.Unlock()

	if opts.ResponseFormat == ai.FormatJSON {
		name := strings.TrimPrefix(message, "review-of:")
		out, ok := g.feedback[name]
		if !ok {
			return "", fmt.Errorf("no feedback for %q", name)
		}
		return out, nil
	}

	for name := range g.feedback {
		if !strings.Contains(system, "named "+name+",") {
			continue
		}
		if g.block[name] {
			<-ctx.Done()
			return "", &ai.TimeoutError{Attempts: 2, Err: ctx.Err()}
		}
		if err := g.errs[name]; err != nil {
			return "", err
		}
		return "review-of:" + name, nil
	}
	return "", errors.New("unknown reviewer")
}

func (g *personaGenerator) Model() string { return "persona" }

func feedbackJSON(rec string, scores ...float64) string {
	if len(scores) == 0 {
		scores = []float64{7, 7, 7}
	}
	return fmt.Sprintf(`{
  "review_scores": [
    {"category": "initial_impression", "score": %v, "comments": "first look"},
    {"category": "technical_assessment", "score": %v},
    {"category": "experience_evaluation", "score": %v}
  ],
  "strengths": ["solid delivery record"],
  "weaknesses": ["limited public speaking"],
  "areas_of_concern": [],
  "areas_of_potential": ["mentoring"],
  "recommendation": %q,
  "justification": "based on the listed projects"
}`, scores[0], scores[1], scores[2], rec)
}

func reviewsWith(recs ...models.Recommendation) []models.ReviewerFeedback {
	out := make([]models.ReviewerFeedback, len(recs))
	for i, rec := range recs {
		out[i] = models.ReviewerFeedback{
			Reviewer:       models.Reviewer{Name: fmt.Sprintf("R%d", i+1)},
			Recommendation: rec,
		}
	}
	return out
}

// timeoutAfter bounds every call the way ai.Caller does.
type timeoutAfter struct {
	ai.Generator
	d time.Duration
}

func (g timeoutAfter) Generate(ctx context.Context, system, message string, opts ai.Options) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.Generator.Generate(ctx, system, message, opts)
}
