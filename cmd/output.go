package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sells-group/brochure-cli/internal/model"
)

// printAnalysis writes a as JSON or as the model response with a short
// header naming the sources.
func printAnalysis(w io.Writer, a *model.Analysis, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	if a.PlanName != "" {
		fmt.Fprintf(w, "Plan: %s\n", a.PlanName)
	}
	fmt.Fprintf(w, "Sources: %s\n", strings.Join(a.Sources, ", "))
	if len(a.Dropped) > 0 {
		fmt.Fprintf(w, "Not read (limit reached): %s\n", strings.Join(a.Dropped, ", "))
	}
	if a.ID != "" {
		fmt.Fprintf(w, "ID: %s\n", a.ID)
	}
	fmt.Fprintln(w)
	_, err := fmt.Fprintln(w, strings.TrimRight(a.Response, "\n"))
	return err
}
