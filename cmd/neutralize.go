package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var neutralizeCmd = &cobra.Command{
	Use:   "neutralize <file>",
	Short: "Rewrite a text without gendered or stereotyping language",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return neutralize(cmd.Context(), cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(neutralizeCmd)

	neutralizeCmd.Flags().Bool("probe", false, "only check the text for gender bias, do not rewrite it")
	neutralizeCmd.Flags().String("output", "", "write the neutralized text to a file instead of stdout")
	neutralizeCmd.Flags().Bool("stream", false, "print the rewrite to stdout while it is generated")
}

func neutralize(ctx context.Context, cmd *cobra.Command, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	text, err := readText(path, "input")
	if err != nil {
		return err
	}

	analyzer := rt.analyzer()

	if flagBool(cmd, "probe") {
		biased, err := analyzer.Probe(ctx, text)
		if err != nil {
			return fmt.Errorf("probing text: %w", err)
		}
		if biased {
			rt.ui.Warning("gender bias detected in %s", path)
		} else {
			rt.ui.Success("no gender bias detected in %s", path)
		}
		return nil
	}

	out := flagString(cmd, "output")

	var onChunk func(string)
	if flagBool(cmd, "stream") && out == "" {
		onChunk = func(chunk string) { fmt.Fprint(rt.ui.Out, chunk) }
	}

	rewritten, err := analyzer.NeutralizeStream(ctx, text, onChunk)
	if err != nil {
		return fmt.Errorf("neutralizing text: %w", err)
	}

	if out == "" {
		if onChunk != nil {
			fmt.Fprintln(rt.ui.Out)
			return nil
		}
		rt.ui.Println(rewritten)
		return nil
	}
	if err := writeText(out, rewritten); err != nil {
		return err
	}
	rt.ui.Success("neutralized text written to %s", out)
	return nil
}
