package app

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/urgency"
)

type classifyOptions struct {
	CurrentKm int
	NextKm    int
	NextDate  string
}

// newClassifyCommand grades one threshold pair without touching a database.
func newClassifyCommand(root *rootOptions) *cobra.Command {
	opts := &classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a single maintenance threshold offline",
		Example: `  fleetctl classify --current-km 48200 --next-km 50000
  fleetctl classify --next-date 2026-11-01 --preset badge`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := root.engine()
			if err != nil {
				return err
			}
			t, err := root.thresholds(engine, urgency.PresetDisplay)
			if err != nil {
				return err
			}

			var currentKm, nextKm *int
			if cmd.Flags().Changed("current-km") {
				currentKm = &opts.CurrentKm
			}
			if cmd.Flags().Changed("next-km") {
				nextKm = &opts.NextKm
			}

			c := engine.Classify(t, currentKm, nextKm, opts.NextDate)

			table := uitable.New()
			table.AddRow("URGENCY:", c.Level)
			table.AddRow("DISTANCE:", dash(urgency.FormatKmRemaining(c.KmRemaining)))
			table.AddRow("DATE:", dash(urgency.FormatDaysRemaining(c.DaysRemaining)))
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&opts.CurrentKm, "current-km", 0, "Current odometer reading.")
	fs.IntVar(&opts.NextKm, "next-km", 0, "Odometer reading at which service is due.")
	fs.StringVar(&opts.NextDate, "next-date", "", "Date service is due (YYYY-MM-DD).")
	return cmd
}
