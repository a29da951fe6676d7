package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/brochure-cli/internal/config"
)

var (
	cfg        *config.Config
	engineFlag string
)

var rootCmd = &cobra.Command{
	Use:   "brochure-cli",
	Short: "Summarize and compare health insurance brochures",
	Long:  "Extracts text from health insurance policy brochures (PDF files or URLs), asks an LLM for a structured summary or side-by-side comparison, and keeps a history of the results.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if engineFlag != "" {
			cfg.Extract.Engine = engineFlag
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&engineFlag, "engine", "", "PDF text engine: auto, pdfcpu or rscpdf (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
