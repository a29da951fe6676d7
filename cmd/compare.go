package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/brochure-cli/internal/analyzer"
	"github.com/sells-group/brochure-cli/internal/prompt"
)

var compareJSON bool

var compareCmd = &cobra.Command{
	Use:   "compare <file-or-url> <file-or-url>...",
	Short: "Compare brochures side by side",
	Long:  "Reads two or more brochures and prints a comparison table. Brochures past extract.max_documents_compare are ignored with a warning.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "compare")
		if err != nil {
			return err
		}
		defer env.Close()

		a, err := env.Analyzer.Analyze(ctx, analyzer.Request{
			Mode:    prompt.ModeCompare,
			Sources: args,
		})
		if err != nil {
			return err
		}
		return printAnalysis(cmd.OutOrStdout(), a, compareJSON)
	},
}

func init() {
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "print the full analysis record as JSON")
	rootCmd.AddCommand(compareCmd)
}
