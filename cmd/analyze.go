package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/brochure-cli/internal/analyzer"
	"github.com/sells-group/brochure-cli/internal/prompt"
)

var (
	analyzePlan string
	analyzeJSON bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file-or-url]",
	Short: "Summarize a single brochure",
	Long:  "Reads one brochure from a file path or URL, or finds one with --plan, and prints a structured summary of its coverage.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		a, err := env.Analyzer.Analyze(ctx, analyzer.Request{
			Mode:     prompt.ModeAnalyze,
			Sources:  args,
			PlanName: analyzePlan,
		})
		if err != nil {
			return err
		}
		return printAnalysis(cmd.OutOrStdout(), a, analyzeJSON)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzePlan, "plan", "", "plan name to search for when no brochure is given")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full analysis record as JSON")
	rootCmd.AddCommand(analyzeCmd)
}
