// Package output renders evaluations for the terminal.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/spigell/devils-advocate/internal/models"
)

// UI provides colored output.
type UI struct {
	Verbose bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  →")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
	bold          = color.New(color.Bold).SprintFunc()
)

// Cyan returns a cyan-colored string.
func Cyan(s string) string { return cyan(s) }

// Bold returns a bold string.
func Bold(s string) string { return bold(s) }

// DecisionColor colors a recommendation: accept green, pending yellow, reject red.
func DecisionColor(rec models.Recommendation) string {
	s := string(rec)
	switch rec {
	case models.Accept:
		return green(s)
	case models.Pending:
		return yellow(s)
	case models.Reject:
		return red(s)
	default:
		return s
	}
}

// PriorityColor colors a priority: high red, medium yellow, low green.
func PriorityColor(p models.Priority) string {
	s := string(p)
	switch p {
	case models.High:
		return red(s)
	case models.Medium:
		return yellow(s)
	case models.Low:
		return green(s)
	default:
		return s
	}
}

// BiasColor colors a bias score in [0, 1].
func BiasColor(score float64) string {
	s := fmt.Sprintf("%.3f", score)
	switch {
	case score >= 0.5:
		return red(s)
	case score >= 0.2:
		return yellow(s)
	default:
		return green(s)
	}
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		fmt.Fprintf(u.Out, "%s %s\n", verbosePrefix, fmt.Sprintf(format, a...))
	}
}

// Println writes a plain line.
func (u *UI) Println(s string) {
	fmt.Fprintln(u.Out, s)
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// Roster prints the reviewer personas.
func (u *UI) Roster(reviewers []models.Reviewer) error {
	table := u.Table([]string{"#", "Name", "Stance", "Specialization"})
	for i, r := range reviewers {
		stance := string(r.BiasStance)
		if r.BiasStance == models.Biased {
			stance = yellow(stance)
		}
		if err := table.Append([]string{fmt.Sprint(i + 1), r.Name, stance, r.Specialization}); err != nil {
			return err
		}
	}
	return table.Render()
}

// Result prints the decision, the reviews, unavailable reviewers and the bias analysis.
func (u *UI) Result(result *models.EvaluationResult) error {
	u.Info("Application %s", Cyan(result.ApplicationID))

	table := u.Table([]string{"Reviewer", "Stance", "Impression", "Technical", "Experience", "Recommendation"})
	for _, review := range result.Reviews {
		row := []string{review.Reviewer.Name, string(review.Reviewer.BiasStance)}
		scores := make(map[string]float64, len(review.Scores))
		for _, s := range review.Scores {
			scores[s.Category] = s.Score
		}
		for _, category := range models.ScoreCategories {
			row = append(row, fmt.Sprintf("%g", scores[category]))
		}
		row = append(row, DecisionColor(review.Recommendation))
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, failure := range result.UnavailableReviewers {
		u.Warning("%s unavailable (%s): %s", failure.Reviewer.Name, failure.Kind, failure.Error)
	}

	confidence := "n/a"
	if result.ConfidenceScore != nil {
		confidence = fmt.Sprintf("%.0f%%", *result.ConfidenceScore*100)
	}
	u.Success("Overall decision: %s (confidence %s)", Bold(DecisionColor(result.OverallDecision)), confidence)

	if analysis := result.BiasAnalysis; analysis != nil {
		if analysis.BiasScore != nil {
			u.Info("Bias score: %s", BiasColor(*analysis.BiasScore))
		}
		for _, ind := range analysis.Indicators {
			where := ""
			if ind.Location != "" {
				where = " [" + ind.Location + "]"
			}
			u.VerboseLog("%s: %s%s", ind.Type, ind.Description, where)
		}
		if summary := strings.TrimSpace(analysis.Summary); summary != "" {
			u.Println("")
			u.Println(summary)
		}
	}
	return nil
}

// Improvements prints the suggestions grouped by category and the priority summary.
func (u *UI) Improvements(s *models.ImprovementSuggestions) error {
	table := u.Table([]string{"Category", "Priority", "Difficulty", "Issue", "Suggestion"})
	for _, category := range models.ImprovementCategories {
		label := strings.TrimSuffix(category, "_improvements")
		for _, item := range s.ByCategory(category) {
			if err := table.Append([]string{
				label,
				PriorityColor(item.Priority),
				string(item.ImplementationDifficulty),
				item.Issue,
				item.Suggestion,
			}); err != nil {
				return err
			}
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	summary := s.PrioritySummary
	u.Info("Priorities: %s high, %s medium, %s low",
		red(fmt.Sprint(summary.High)), yellow(fmt.Sprint(summary.Medium)), green(fmt.Sprint(summary.Low)))
	return nil
}
