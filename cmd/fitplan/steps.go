package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/fitplan/internal/onboarding"
)

var stepsJSONOutput bool

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "Print the onboarding step catalog",
	Args:  cobra.NoArgs,
	RunE:  runSteps,
}

func init() {
	stepsCmd.Flags().BoolVar(&stepsJSONOutput, "json", false, "Output in JSON format")
}

func runSteps(cmd *cobra.Command, args []string) error {
	steps := onboarding.Steps()

	if stepsJSONOutput {
		items := make([]map[string]any, len(steps))
		for i, s := range steps {
			items[i] = map[string]any{
				"index":    s.Index(),
				"name":     s.Name(),
				"phase":    s.Phase(),
				"label":    s.Label(),
				"progress": onboarding.ProgressFraction(s),
			}
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"steps": items,
			"total": len(items),
		})
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "#\tNAME\tPHASE\tLABEL\tPROGRESS")
	for _, s := range steps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.0f%%\n",
			s.Index(), s.Name(), s.Phase(), s.Label(),
			onboarding.ProgressFraction(s)*100)
	}
	w.Flush()
	return nil
}
