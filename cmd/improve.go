package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spigell/devils-advocate/internal/improvement"
	"github.com/spigell/devils-advocate/internal/logger"
	"github.com/spigell/devils-advocate/internal/models"
	"github.com/spigell/devils-advocate/internal/session"
)

var improveCmd = &cobra.Command{
	Use:   "improve",
	Short: "Generate improvement suggestions for an application",
	Long: `Generate improvement suggestions either for a stored evaluation (--id) or
for an opportunity and an application given as files. Without stored reviews the
suggestions are generated independently of any reviewer feedback.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return improve(cmd.Context(), cmd)
	},
}

func init() {
	rootCmd.AddCommand(improveCmd)

	improveCmd.Flags().String("id", "", "application id of a stored evaluation")
	improveCmd.Flags().StringP("opportunity", "o", "", "plain text file with the job description")
	improveCmd.Flags().StringP("application", "a", "", "plain text file with the application")
	improveCmd.Flags().String("mode", "", "generation mode: batched or per-category (default from config)")
	improveCmd.Flags().String("context", "", "context source: reviews or independent (default from config)")
	improveCmd.Flags().String("format", "", "export format: json, structuredObject (dict), yaml")
	improveCmd.Flags().String("output", "", "export file path")
}

func improve(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	store, err := rt.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	cfg := rt.improvementsConfig()
	mode, source := cfg.Mode, cfg.Context
	if m := flagString(cmd, "mode"); m != "" {
		mode = m
	}
	if c := flagString(cmd, "context"); c != "" {
		source = c
	}

	sess, err := loadSession(ctx, store, cmd)
	if err != nil {
		return err
	}

	in := improvement.Input{Opportunity: sess.Opportunity, Application: sess.Application}
	if sess.Evaluation != nil {
		in.Reviews = sess.Evaluation.Reviews
		in.BiasAnalysis = sess.Evaluation.BiasAnalysis
	}
	if len(in.Reviews) == 0 && source == improvement.ContextReviews {
		logger.ForApplication(rt.logger, sess.ApplicationID).Info("no stored reviews, generating improvements independently")
		source = improvement.ContextIndependent
	}

	suggestions, err := rt.aggregator(mode, source).Generate(ctx, in)
	if err != nil {
		return fmt.Errorf("generating improvements: %w", err)
	}

	sess.Improvements = suggestions
	if sess.Evaluation != nil {
		sess.Evaluation.Improvements = suggestions
	}
	sess.UpdatedAt = time.Now()
	if err := store.Put(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	rt.ui.Info("application id: %s", sess.ApplicationID)
	if err := rt.ui.Improvements(suggestions); err != nil {
		return err
	}

	exp := rt.exportConfig()
	if f := flagString(cmd, "format"); f != "" {
		exp.Format = f
	}
	if p := flagString(cmd, "output"); p != "" {
		exp.Path = p
	}
	if exp.Path == "" {
		return nil
	}
	return exportResult(rt, suggestions, exp.Format, exp.Path)
}

// loadSession returns the stored session for --id, or a new one built from the input files.
func loadSession(ctx context.Context, store session.Store, cmd *cobra.Command) (*session.Session, error) {
	id := flagString(cmd, "id")
	oppPath, appPath := flagString(cmd, "opportunity"), flagString(cmd, "application")

	if id != "" {
		sess, err := store.Get(ctx, id)
		switch {
		case err == nil:
			return sess, nil
		case !errors.Is(err, session.ErrNotFound):
			return nil, fmt.Errorf("loading session: %w", err)
		case oppPath == "" && appPath == "":
			return nil, fmt.Errorf("application %s: %w", id, err)
		}
	}

	opportunity, err := readText(oppPath, "opportunity")
	if err != nil {
		return nil, err
	}
	application, err := readText(appPath, "application")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if id == "" {
		id = models.NewApplicationID()
	}
	return &session.Session{
		ApplicationID: id,
		Opportunity:   opportunity,
		Application:   application,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
