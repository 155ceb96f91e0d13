package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/devils-advocate/internal/output"
)

var reviewersCmd = &cobra.Command{
	Use:   "reviewers",
	Short: "List the reviewer panel",
	RunE: func(cmd *cobra.Command, _ []string) error {
		config, err := getConfig()
		if err != nil {
			return err
		}

		rt := &runtime{config: config}
		registry, err := rt.registry()
		if err != nil {
			return fmt.Errorf("reviewers: %w", err)
		}

		ui := output.New()
		ui.Out = cmd.OutOrStdout()
		return ui.Roster(registry.All())
	},
}

func init() {
	rootCmd.AddCommand(reviewersCmd)
}
