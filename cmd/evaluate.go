package cmd

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/devils-advocate/internal/evaluation"
	"github.com/spigell/devils-advocate/internal/export"
	"github.com/spigell/devils-advocate/internal/logger"
	"github.com/spigell/devils-advocate/internal/models"
	"github.com/spigell/devils-advocate/internal/pipeline"
)

const (
	PromptExport       = "Export result"
	PromptImprovements = "Show improvements"
	PromptStages       = "Show stages"
	PromptExit         = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptExport, PromptImprovements, PromptStages, PromptExit},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate an application against an opportunity with the reviewer panel",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return evaluate(cmd.Context(), cmd)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringP("opportunity", "o", "", "plain text file with the job description")
	evaluateCmd.Flags().StringP("application", "a", "", "plain text file with the application")
	evaluateCmd.Flags().String("id", "", "application id (generated when empty)")
	evaluateCmd.Flags().BoolP("auto-approve", "y", false, "do not ask what to do with the result; export it when export.path is set")
	evaluateCmd.Flags().Bool("no-improvements", false, "skip improvement suggestions")
	evaluateCmd.Flags().Bool("no-bias", false, "skip the bias analysis")
	evaluateCmd.Flags().String("format", "", "export format: json, structuredObject (dict), yaml")
	evaluateCmd.Flags().String("output", "", "export file path")
}

func evaluate(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	opportunity, err := readText(flagString(cmd, "opportunity"), "opportunity")
	if err != nil {
		return err
	}
	application, err := readText(flagString(cmd, "application"), "application")
	if err != nil {
		return err
	}

	registry, err := rt.registry()
	if err != nil {
		return fmt.Errorf("reviewers: %w", err)
	}

	store, err := rt.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	gen := rt.generation()
	imp := rt.improvementsConfig()
	sess := rt.sessionConfig()

	deps := pipeline.Deps{
		Logger: rt.logger,
		Roster: registry.All(),
		Panel: &evaluation.Panel{
			Generator:   rt.generator,
			Builder: evaluation.RequestBuilder{
				Temperature: gen.Temperature,
				MaxTokens:   gen.MaxTokens,
				FormatModel: gen.FormatModel,
			},
			Concurrency: rt.concurrency(),
			Logger:      rt.logger,
		},
		Analyzer:     rt.analyzer(),
		Improvements: rt.aggregator(imp.Mode, imp.Context),
		Store:        store,
	}

	stages := pipeline.Default()
	if !imp.Enabled {
		pipeline.DisableByName(stages, pipeline.StageImprovements, "disabled in config")
	}
	if flagBool(cmd, "no-improvements") {
		pipeline.DisableByName(stages, pipeline.StageImprovements, "disabled by flag")
	}
	if flagBool(cmd, "no-bias") {
		pipeline.DisableByName(stages, pipeline.StageBias, "disabled by flag")
	}

	cfg := &pipeline.Config{
		Improvements: &pipeline.ImprovementsConfig{Enabled: imp.Enabled, Mode: imp.Mode, Context: imp.Context},
		Session:      &pipeline.SessionConfig{Driver: sess.Driver, Path: sess.Path},
	}

	state := pipeline.NewState(flagString(cmd, "id"), opportunity, application)
	logger.ForApplication(rt.logger, state.ApplicationID).Info("starting the evaluation",
		zap.Int("reviewers", registry.Len()),
	)

	if err := pipeline.Run(ctx, cfg, deps, stages, state); err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	result := state.Result()
	if err := rt.ui.Result(result); err != nil {
		return err
	}
	for stage, msg := range state.Errors {
		rt.ui.Warning("%s stage failed: %s", stage, msg)
	}

	exp := rt.exportConfig()
	if f := flagString(cmd, "format"); f != "" {
		exp.Format = f
	}
	if p := flagString(cmd, "output"); p != "" {
		exp.Path = p
	}
	if flagBool(cmd, "auto-approve") {
		if exp.Path == "" {
			return nil
		}
		return exportResult(rt, result, exp.Format, exp.Path)
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		if err := handleAction(action, rt, stages, result, exp); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}
	}
}

func handleAction(action string, rt *runtime, stages []pipeline.Stage, result *models.EvaluationResult, exp ExportConfig) error {
	switch action {
	case PromptExport:
		path, err := (&promptui.Prompt{Label: "File path (empty prints to stdout)", Default: exp.Path}).Run()
		if err != nil {
			return err
		}
		return exportResult(rt, result, exp.Format, strings.TrimSpace(path))
	case PromptImprovements:
		if result.Improvements == nil {
			rt.ui.Warning("no improvements were generated")
			return nil
		}
		return rt.ui.Improvements(result.Improvements)
	case PromptStages:
		table := rt.ui.Table([]string{"Stage", "Enabled", "Reason", "Details"})
		for _, status := range pipeline.Describe(stages) {
			details := make([]string, 0, len(status.Details))
			for _, k := range slices.Sorted(maps.Keys(status.Details)) {
				details = append(details, k+"="+status.Details[k])
			}
			_ = table.Append([]string{status.Name, fmt.Sprint(status.Enabled), status.Reason, strings.Join(details, " ")})
		}
		return table.Render()
	case PromptExit:
		rt.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func exportResult(rt *runtime, v any, format, path string) error {
	if format == "" {
		format = export.FormatJSON
	}

	out, err := export.Export(v, format, path)
	if err != nil {
		return err
	}

	if path != "" {
		rt.ui.Success("exported %s to %s", out.Format, path)
		return nil
	}
	if out.Text != "" {
		rt.ui.Println(out.Text)
		return nil
	}
	// A structured object has no text form of its own; show it as JSON.
	printed, err := export.Export(out.Object, export.FormatJSON, "")
	if err != nil {
		return err
	}
	rt.ui.Println(printed.Text)
	return nil
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func flagBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}
