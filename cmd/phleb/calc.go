package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/service"
	"github.com/phleb-loss-tracker/internal/session"
	"github.com/phleb-loss-tracker/internal/view"
)

func calcCmd() *cobra.Command {
	var (
		statePath  string
		configPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute a report from a state file without touching stored data",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := loadConfig()
			if err != nil {
				return err
			}

			stateData, err := readInput(statePath)
			if err != nil {
				return err
			}
			var configData []byte
			if configPath != "" {
				if configData, err = readInput(configPath); err != nil {
					return err
				}
			}

			evaluator := session.NewEvaluator(service.NewCalculator(logger), logger)
			cfg, state, report, err := evaluator.Evaluate(cmd.Context(), configData, stateData)
			if err != nil {
				return err
			}

			vm := view.Build(cfg, state, report)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), struct {
					Report *domain.Report `json:"report"`
					View   view.ViewModel `json:"view"`
				}{report, vm})
			}
			return printView(cmd.OutOrStdout(), vm)
		},
	}

	cmd.Flags().StringVar(&statePath, "state", "", "state JSON file, or - for stdin")
	cmd.Flags().StringVar(&configPath, "config", "", "catalog JSON file (default: built-in catalog)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report and view as JSON")
	_ = cmd.MarkFlagRequired("state")

	return cmd
}

// printView renders the summary, day table and warnings as text.
func printView(out io.Writer, vm view.ViewModel) error {
	fmt.Fprintln(out, vm.InstitutionLine)
	for _, m := range vm.PatientMetrics {
		fmt.Fprintf(out, "%s: %s (%s)\n", m.Label, m.Value, m.Sub)
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HD\tDATE\tDAILY mL\tmL/kg/day\t% EBV\tORDERABLES")
	for _, d := range vm.Days {
		labels := make([]string, 0, len(d.Pills))
		for _, p := range d.Pills {
			labels = append(labels, p.Label)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%v\n", d.HD, d.DateLabel, d.DailyMl, d.MlPerKgDay, d.PctEBV, labels)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)

	for _, m := range vm.Totals {
		fmt.Fprintf(out, "%s: %s\n", m.Label, m.Value)
	}
	for _, w := range vm.Warnings {
		fmt.Fprintf(out, "[%s] %s\n", w.Level, w.Text)
	}
	for _, d := range vm.Diagnostics {
		fmt.Fprintf(out, "config: %s\n", d)
	}
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
