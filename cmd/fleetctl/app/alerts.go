package app

import (
	"fmt"
	"io"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/urgency"
)

func newAlertsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "Summarize overdue and urgent maintenance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			t, err := opts.thresholds(engine, urgency.PresetBadge)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			src, closeSrc, err := opts.openSource(ctx)
			if err != nil {
				return err
			}
			defer closeSrc()

			fleets := []string{opts.Fleet}
			if opts.Fleet == "" {
				if fleets, err = src.ListFleets(ctx); err != nil {
					return err
				}
			}

			var (
				vehicles []domain.Vehicle
				records  = make(map[string][]domain.MaintenanceRecord)
			)
			for _, fleetID := range fleets {
				vs, err := src.ListVehicles(ctx, fleetID)
				if err != nil {
					return err
				}
				upcoming, err := src.UpcomingByFleet(ctx, fleetID)
				if err != nil {
					return err
				}
				vehicles = append(vehicles, vs...)
				for id, rs := range upcoming {
					records[id] = rs
				}
			}

			printSummary(cmd.OutOrStdout(), engine.Summarize(t, vehicles, records))
			return nil
		},
	}
}

func printSummary(w io.Writer, s domain.AlertSummary) {
	if len(s.Alerts) == 0 {
		fmt.Fprintln(w, "No overdue or urgent maintenance.")
		return
	}

	table := uitable.New()
	table.MaxColWidth = 48
	table.Wrap = true
	table.AddRow("TYPE", "VEHICLE", "MAINTENANCE", "REASON")
	for _, a := range s.Alerts {
		table.AddRow(a.Type, a.VehicleName, a.MaintenanceType, a.Reason)
	}
	fmt.Fprintln(w, table)
	fmt.Fprintf(w, "\nOverdue: %d  Urgent: %d  Badge: %d\n", s.TotalOverdue, s.TotalUrgent, s.BadgeCount())
}
