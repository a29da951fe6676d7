package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchPlan string

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find the brochure URL for a plan name",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("search"); err != nil {
			return err
		}

		client, err := initSearch(ctx)
		if err != nil {
			return err
		}
		link, err := client.FindBrochure(ctx, searchPlan)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), link)
		return err
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchPlan, "plan", "", "plan name, e.g. \"Care Supreme\"")
	_ = searchCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(searchCmd)
}
