package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tripmate/internal/planner"
	"tripmate/pkg/logger"
)

var errExpectations = errors.New("expectations not met")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rulesPath string

	root := &cobra.Command{
		Use:          "replay",
		Short:        "Replay scripted planning conversations",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&rulesPath, "rules", "", "rules YAML to use instead of the built-in table")

	loadRules := func() (*planner.Rules, error) {
		if rulesPath == "" {
			return planner.DefaultRules(), nil
		}
		return planner.LoadRules(rulesPath)
	}

	root.AddCommand(newRunCmd(loadRules), newCheckRulesCmd())
	return root
}

func newRunCmd(loadRules func() (*planner.Rules, error)) *cobra.Command {
	var (
		asJSON   bool
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "run TRANSCRIPT...",
		Short: "Run one or more transcripts and print the conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if logLevel != "" {
				if _, err := logger.Init(logLevel); err != nil {
					return err
				}
			}
			rules, err := loadRules()
			if err != nil {
				return err
			}

			failed := false
			for _, path := range args {
				t, err := LoadTranscript(path)
				if err != nil {
					return err
				}
				res, err := Replay(cmd.Context(), rules, t)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if asJSON {
					err = writeJSON(cmd.OutOrStdout(), res)
				} else {
					err = writeText(cmd.OutOrStdout(), res)
				}
				if err != nil {
					return err
				}
				failed = failed || len(res.Failures) > 0
			}
			if failed {
				return errExpectations
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "enable logging at this level")
	return cmd
}

func newCheckRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-rules FILE",
		Short: "Validate a rules YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := planner.LoadRules(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d destinations, %d questions\n", len(rules.Destinations), len(rules.Questions))
			return nil
		},
	}
}

func writeJSON(w io.Writer, res *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func writeText(w io.Writer, res *Result) error {
	if res.Name != "" {
		fmt.Fprintf(w, "== %s\n", res.Name)
	}
	for _, ex := range res.Exchanges {
		if ex.User != "" {
			fmt.Fprintf(w, "user:      %s\n", ex.User)
		}
		fmt.Fprintf(w, "assistant: %s\n", ex.Assistant)
	}

	if plan := res.Session.Plan; plan != nil {
		fmt.Fprintf(w, "\nplan: %s, %d days from %s, %d traveller(s)\n", plan.Destination, len(plan.Days), plan.StartDate, plan.Travelers)
		for _, day := range plan.Days {
			fmt.Fprintf(w, "  day %d %s %s (%s): %.2f\n", day.Day, day.Date, day.City, day.Kind, day.DailyCost)
			for _, item := range day.Items {
				fmt.Fprintf(w, "    %-9s %s %.2f\n", item.TimeSlot, item.Name, item.Cost)
			}
		}
		fmt.Fprintf(w, "  estimated total %.2f of %.2f\n", plan.EstimatedTotal, plan.TotalBudget)
	}

	for _, f := range res.Failures {
		fmt.Fprintf(w, "FAIL %s\n", f)
	}
	_, err := fmt.Fprintln(w)
	return err
}
