package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/fitplan/internal/metrics"
	"github.com/hyperengineering/fitplan/internal/onboarding"
	"github.com/hyperengineering/fitplan/internal/program"
	"github.com/hyperengineering/fitplan/internal/validation"
)

var (
	previewAnswersPath string
	previewJSONOutput  bool
	previewWithRequest bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Compute the metrics teaser from an answers file",
	Long: "Read onboarding answers from a JSON file and print the derived calorie, " +
		"macro and training split preview without starting the server.",
	Args: cobra.NoArgs,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&previewAnswersPath, "answers", "", "Path to an answers JSON file")
	previewCmd.Flags().BoolVar(&previewJSONOutput, "json", false, "Output in JSON format")
	previewCmd.Flags().BoolVar(&previewWithRequest, "request", false, "Include the plan generation request")
}

func readAnswers(path string) (onboarding.Answers, error) {
	var a onboarding.Answers
	data, err := os.ReadFile(path)
	if err != nil {
		return a, fmt.Errorf("read answers: %w", err)
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("parse answers: %w", err)
	}
	if errs := validation.ValidateAnswers(a); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Field + ": " + e.Message
		}
		return a, fmt.Errorf("invalid answers: %s", strings.Join(msgs, "; "))
	}
	return a, nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	if previewAnswersPath == "" {
		return errors.New("--answers is required")
	}
	answers, err := readAnswers(previewAnswersPath)
	if err != nil {
		return err
	}

	result, err := metrics.Compute(answers)
	if err != nil {
		return describeMissing(err)
	}

	var req *program.Request
	if previewWithRequest {
		req, err = program.Build(answers)
		if err != nil {
			return describeMissing(err)
		}
	}

	out := cmd.OutOrStdout()
	if previewJSONOutput {
		payload := map[string]any{"metrics": result}
		if req != nil {
			payload["request"] = req
		}
		return printJSON(out, payload)
	}

	w := newTabWriter(out)
	fmt.Fprintf(w, "Goal:\t%s\n", result.Goal)
	fmt.Fprintf(w, "Timeline:\t%d months\n", result.TimelineMonths)
	fmt.Fprintf(w, "BMR:\t%d kcal\n", result.BMR)
	fmt.Fprintf(w, "TDEE:\t%d kcal\n", result.TDEE)
	fmt.Fprintf(w, "Target:\t%d kcal\n", result.TargetCalories)
	fmt.Fprintf(w, "Protein:\t%d g\n", result.ProteinGrams)
	fmt.Fprintf(w, "Carbs:\t%d g\n", result.CarbsGrams)
	fmt.Fprintf(w, "Fats:\t%d g\n", result.FatsGrams)
	fmt.Fprintf(w, "Fitness age:\t%d (actual %d)\n", result.FitnessAge, result.Age)
	if result.InjuryNote != "" {
		fmt.Fprintf(w, "Injury note:\t%s\n", result.InjuryNote)
		fmt.Fprintf(w, "Filtered movements:\t%d\n", result.FilteredMovements)
	}
	w.Flush()

	fmt.Fprintln(out)
	w = newTabWriter(out)
	fmt.Fprintln(w, "DAY\tWORKOUT")
	for _, d := range result.WeeklySplit {
		fmt.Fprintf(w, "%s\t%s\n", d.Day, d.Workout)
	}
	w.Flush()

	if req != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Request:")
		return printJSON(out, req)
	}
	return nil
}

func describeMissing(err error) error {
	var ide *onboarding.InsufficientDataError
	if errors.As(err, &ide) {
		names := make([]string, len(ide.Missing))
		for i, f := range ide.Missing {
			names[i] = string(f)
		}
		return fmt.Errorf("answers incomplete, missing: %s", strings.Join(names, ", "))
	}
	return err
}
