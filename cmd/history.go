package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyID    string
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past analyses or show one by ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if !cfg.Store.Enabled {
			return eris.New("history is disabled (store.enabled=false)")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		out := cmd.OutOrStdout()
		if historyID != "" {
			a, err := st.GetAnalysis(ctx, historyID)
			if err != nil {
				return err
			}
			return printAnalysis(out, a, historyJSON)
		}

		list, err := st.ListAnalyses(ctx, historyLimit)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			_, err := fmt.Fprintln(out, "no analyses recorded")
			return err
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tMODE\tMODEL\tSOURCES")
		for _, a := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
				a.ID, a.CreatedAt.Format("2006-01-02 15:04"), a.Mode, a.Model, len(a.Sources))
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of analyses to list")
	historyCmd.Flags().StringVar(&historyID, "id", "", "show the analysis with this ID")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print the analysis as JSON (with --id)")
	rootCmd.AddCommand(historyCmd)
}
