package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/brochure-cli/internal/extract"
)

var extractMax int

var extractCmd = &cobra.Command{
	Use:   "extract <file-or-url>...",
	Short: "Print the extracted text of brochures",
	Long:  "Extracts and aggregates brochure text without calling a model. One brochure prints as plain text; several are wrapped in numbered document blocks.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("extract"); err != nil {
			return err
		}
		if extractMax < 1 {
			return eris.Errorf("--max must be at least 1, got %d", extractMax)
		}

		agg, err := initAggregator()
		if err != nil {
			return err
		}
		f := initFetcher()

		sources := args
		if len(sources) > extractMax {
			zap.L().Warn("ignoring brochures beyond --max", zap.Strings("dropped", sources[extractMax:]))
			sources = sources[:extractMax]
		}

		payloads := make([]extract.Payload, 0, len(sources))
		for _, src := range sources {
			p, err := f.Load(ctx, src)
			if err != nil {
				return err
			}
			payloads = append(payloads, p)
		}

		text, err := agg.Aggregate(payloads, extractMax)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	},
}

func init() {
	extractCmd.Flags().IntVar(&extractMax, "max", 2, "maximum number of brochures to read")
	rootCmd.AddCommand(extractCmd)
}
