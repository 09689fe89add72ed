package app

import (
	"fmt"
	"io"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/urgency"
)

func newUpcomingCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upcoming <vehicle-id>",
		Short: "List a vehicle's scheduled maintenance, most urgent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Fleet == "" {
				return fmt.Errorf("--fleet is required")
			}
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			t, err := opts.thresholds(engine, urgency.PresetDisplay)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			src, closeSrc, err := opts.openSource(ctx)
			if err != nil {
				return err
			}
			defer closeSrc()

			v, err := src.GetVehicle(ctx, opts.Fleet, args[0])
			if err != nil {
				return fmt.Errorf("vehicle %s: %w", args[0], err)
			}
			records, err := src.ListUpcoming(ctx, v.ID)
			if err != nil {
				return err
			}

			printUpcoming(cmd.OutOrStdout(), engine, t, v, engine.RankByUrgency(records, v.CurrentKm))
			return nil
		},
	}
}

func printUpcoming(w io.Writer, e *urgency.Engine, t urgency.Thresholds, v domain.Vehicle, ranked []domain.MaintenanceRecord) {
	odometer := "unknown"
	if v.CurrentKm != nil {
		odometer = fmt.Sprint(*v.CurrentKm)
	}
	fmt.Fprintf(w, "%s (odometer %s)\n\n", v.Name, odometer)

	if len(ranked) == 0 {
		fmt.Fprintln(w, "No scheduled maintenance.")
		return
	}

	table := uitable.New()
	table.AddRow("MAINTENANCE", "URGENCY", "DISTANCE", "DATE")
	for _, r := range ranked {
		c := e.Classify(t, v.CurrentKm, r.NextServiceKm, r.NextServiceDate)
		table.AddRow(r.Type, c.Level, dash(urgency.FormatKmRemaining(c.KmRemaining)), dash(urgency.FormatDaysRemaining(c.DaysRemaining)))
	}
	fmt.Fprintln(w, table)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
