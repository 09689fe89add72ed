package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/config"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/log"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/store"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/urgency"
)

// Source is the read side of the maintenance database used by the CLI.
type Source interface {
	ListFleets(ctx context.Context) ([]string, error)
	ListVehicles(ctx context.Context, fleetID string) ([]domain.Vehicle, error)
	GetVehicle(ctx context.Context, fleetID, vehicleID string) (domain.Vehicle, error)
	ListUpcoming(ctx context.Context, vehicleID string) ([]domain.MaintenanceRecord, error)
	UpcomingByFleet(ctx context.Context, fleetID string) (map[string][]domain.MaintenanceRecord, error)
}

type rootOptions struct {
	Fleet  string
	Preset string
	Today  string
	Log    *log.Options

	openSource func(ctx context.Context) (Source, func(), error)
}

func NewRootCommand(ctx context.Context) *cobra.Command {
	return newRootCommand(ctx, openPostgres)
}

func newRootCommand(ctx context.Context, open func(ctx context.Context) (Source, func(), error)) *cobra.Command {
	opts := &rootOptions{
		Log:        log.NewOptions(),
		openSource: open,
	}
	opts.Log.Level = "warn"

	cmd := &cobra.Command{
		Use:           "fleetctl",
		Short:         "Inspect maintenance urgency and alerts",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if errs := opts.Log.Validate(); len(errs) > 0 {
				return fmt.Errorf("invalid log options: %v", errs)
			}
			log.Init(opts.Log)
			return nil
		},
	}
	cmd.SetContext(ctx)

	fs := cmd.PersistentFlags()
	fs.StringVar(&opts.Fleet, "fleet", "", "Fleet id. alerts summarizes every fleet when empty.")
	fs.StringVar(&opts.Preset, "preset", "", "Threshold preset (display or badge). Each command has its own default.")
	fs.StringVar(&opts.Today, "today", "", "Evaluate as of this date (YYYY-MM-DD) instead of the current day.")
	opts.Log.AddFlags(fs)

	cmd.AddCommand(
		newAlertsCommand(opts),
		newUpcomingCommand(opts),
		newClassifyCommand(opts),
	)
	return cmd
}

// engine builds an engine honoring --today and THRESHOLDS_FILE.
func (o *rootOptions) engine() (*urgency.Engine, error) {
	cfg := config.Load()
	display, badge, err := config.LoadThresholds(cfg.ThresholdsFile)
	if err != nil {
		return nil, err
	}

	engineOpts := []urgency.Option{
		urgency.WithDisplayThresholds(display),
		urgency.WithBadgeThresholds(badge),
	}
	if o.Today != "" {
		d, ok := urgency.ParseCalendarDate(o.Today)
		if !ok {
			return nil, fmt.Errorf("invalid --today %q, want YYYY-MM-DD", o.Today)
		}
		fixed := time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.Local)
		engineOpts = append(engineOpts, urgency.WithClock(func() time.Time { return fixed }))
	}
	return urgency.New(engineOpts...), nil
}

func (o *rootOptions) thresholds(e *urgency.Engine, def urgency.Preset) (urgency.Thresholds, error) {
	p := urgency.Preset(o.Preset)
	if p == "" {
		p = def
	}
	t, ok := e.Thresholds(p)
	if !ok {
		return urgency.Thresholds{}, fmt.Errorf("unknown preset %q, want display or badge", o.Preset)
	}
	return t, nil
}

func openPostgres(ctx context.Context) (Source, func(), error) {
	db, err := store.NewPostgresStore(ctx, config.Load())
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}
