package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/log"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/metrics"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/notify"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/store"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/urgency"
)

// RecordSource is the read side of the maintenance store plus the alert
// audit log.
type RecordSource interface {
	ListFleets(ctx context.Context) ([]string, error)
	ListVehicles(ctx context.Context, fleetID string) ([]domain.Vehicle, error)
	GetVehicle(ctx context.Context, fleetID, vehicleID string) (domain.Vehicle, error)
	ListUpcoming(ctx context.Context, vehicleID string) ([]domain.MaintenanceRecord, error)
	UpcomingByFleet(ctx context.Context, fleetID string) (map[string][]domain.MaintenanceRecord, error)
	InsertAlertLog(ctx context.Context, fleetID string, a domain.Alert) error
}

// AlertBus deduplicates and publishes alerts.
type AlertBus interface {
	ClaimAlert(ctx context.Context, a domain.Alert, ttl time.Duration) (bool, error)
	ReleaseAlert(ctx context.Context, a domain.Alert) error
	PublishAlert(ctx context.Context, fleetID string, payload []byte) error
	PublishBadge(ctx context.Context, fleetID string, payload []byte) error
}

// AlertEvent is the payload published on a fleet's alert channel.
type AlertEvent struct {
	FleetID string `json:"fleet_id"`
	domain.Alert
	TriggeredAt int64 `json:"triggered_at"`
}

// BadgeEvent is the payload published on a fleet's badge channel.
type BadgeEvent struct {
	FleetID      string `json:"fleet_id"`
	TotalOverdue int    `json:"total_overdue"`
	TotalUrgent  int    `json:"total_urgent"`
	BadgeCount   int    `json:"badge_count"`
	At           int64  `json:"at"`
}

// AlertEvaluator re-summarizes a vehicle whenever its odometer moves and
// fires alerts that have not been delivered within the dedup TTL.
type AlertEvaluator struct {
	ch       <-chan *domain.OdometerReading
	engine   *urgency.Engine
	records  RecordSource
	bus      AlertBus
	notifier notify.Notifier
	dedupTTL time.Duration
	now      func() time.Time
	logger   log.Logger
}

func NewAlertEvaluator(
	ch <-chan *domain.OdometerReading,
	engine *urgency.Engine,
	records RecordSource,
	bus AlertBus,
	notifier notify.Notifier,
	dedupTTL time.Duration,
) *AlertEvaluator {
	return &AlertEvaluator{
		ch:       ch,
		engine:   engine,
		records:  records,
		bus:      bus,
		notifier: notifier,
		dedupTTL: dedupTTL,
		now:      time.Now,
		logger:   log.WithName("alert-evaluator"),
	}
}

func (e *AlertEvaluator) Run(ctx context.Context) {
	for {
		select {
		case reading, ok := <-e.ch:
			if !ok {
				return
			}
			if err := e.Evaluate(ctx, reading); err != nil {
				e.logger.Error(err, "alert evaluation failed", "vehicle_id", reading.VehicleID)
			}

		case <-ctx.Done():
			return
		}
	}
}

// Evaluate summarizes the reading's vehicle with the badge thresholds and
// fires its new alerts. The reading may be ahead of the stored odometer, so
// the larger of the two is used.
func (e *AlertEvaluator) Evaluate(ctx context.Context, reading *domain.OdometerReading) error {
	v, err := e.records.GetVehicle(ctx, reading.FleetID, reading.VehicleID)
	if errors.Is(err, store.ErrNotFound) {
		e.logger.Warn("reading for unknown vehicle", "fleet_id", reading.FleetID, "vehicle_id", reading.VehicleID)
		return nil
	}
	if err != nil {
		return err
	}

	km := reading.Km
	if v.CurrentKm != nil && *v.CurrentKm > km {
		km = *v.CurrentKm
	}
	v.CurrentKm = &km

	records, err := e.records.ListUpcoming(ctx, v.ID)
	if err != nil {
		return err
	}

	summary := e.engine.SummarizeAlerts([]domain.Vehicle{v}, map[string][]domain.MaintenanceRecord{v.ID: records})
	e.fire(ctx, reading.FleetID, summary.Alerts)
	return nil
}

// Sweep summarizes every fleet, fires new alerts and publishes each fleet's
// badge count. Date-based urgency changes without any reading, so this is
// the only path that catches it.
func (e *AlertEvaluator) Sweep(ctx context.Context) error {
	timer := prometheus.NewTimer(metrics.SweepDuration)
	defer timer.ObserveDuration()

	fleets, err := e.records.ListFleets(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, fleetID := range fleets {
		if err := e.sweepFleet(ctx, fleetID); err != nil {
			errs = append(errs, err)
			e.logger.Error(err, "fleet sweep failed", "fleet_id", fleetID)
		}
	}
	return errors.Join(errs...)
}

func (e *AlertEvaluator) sweepFleet(ctx context.Context, fleetID string) error {
	vehicles, err := e.records.ListVehicles(ctx, fleetID)
	if err != nil {
		return err
	}
	upcoming, err := e.records.UpcomingByFleet(ctx, fleetID)
	if err != nil {
		return err
	}

	summary := e.engine.SummarizeAlerts(vehicles, upcoming)
	e.fire(ctx, fleetID, summary.Alerts)

	metrics.BadgeCount.WithLabelValues(fleetID).Set(float64(summary.BadgeCount()))

	payload, err := json.Marshal(BadgeEvent{
		FleetID:      fleetID,
		TotalOverdue: summary.TotalOverdue,
		TotalUrgent:  summary.TotalUrgent,
		BadgeCount:   summary.BadgeCount(),
		At:           e.now().Unix(),
	})
	if err != nil {
		return err
	}
	return e.bus.PublishBadge(ctx, fleetID, payload)
}

// RunSweeper sweeps once immediately and then every interval until ctx is
// done.
func (e *AlertEvaluator) RunSweeper(ctx context.Context, interval time.Duration) {
	if err := e.Sweep(ctx); err != nil {
		e.logger.Warn("initial sweep incomplete", "error", err)
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := e.Sweep(ctx); err != nil {
				e.logger.Warn("sweep incomplete", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (e *AlertEvaluator) fire(ctx context.Context, fleetID string, alerts []domain.Alert) {
	fresh := make([]domain.Alert, 0, len(alerts))
	for _, a := range alerts {
		claimed, err := e.bus.ClaimAlert(ctx, a, e.dedupTTL)
		if err != nil {
			e.logger.Error(err, "alert dedup claim failed", "vehicle_id", a.VehicleID, "maintenance_id", a.MaintenanceID)
			continue
		}
		if claimed {
			fresh = append(fresh, a)
		}
	}
	if len(fresh) == 0 {
		return
	}

	if err := e.notifier.Notify(ctx, fleetID, fresh); err != nil {
		metrics.NotificationsSent.WithLabelValues("failed").Inc()
		e.logger.Error(err, "notification failed", "fleet_id", fleetID, "alerts", len(fresh))
		for _, a := range fresh {
			if err := e.bus.ReleaseAlert(ctx, a); err != nil {
				e.logger.Warn("alert release failed", "vehicle_id", a.VehicleID, "maintenance_id", a.MaintenanceID, "error", err)
			}
		}
		return
	}
	metrics.NotificationsSent.WithLabelValues("success").Inc()

	triggeredAt := e.now().Unix()
	for _, a := range fresh {
		metrics.AlertsFired.WithLabelValues(a.Type.String()).Inc()

		if err := e.records.InsertAlertLog(ctx, fleetID, a); err != nil {
			e.logger.Error(err, "alert log insert failed", "vehicle_id", a.VehicleID, "maintenance_id", a.MaintenanceID)
		}

		payload, err := json.Marshal(AlertEvent{FleetID: fleetID, Alert: a, TriggeredAt: triggeredAt})
		if err != nil {
			continue
		}
		if err := e.bus.PublishAlert(ctx, fleetID, payload); err != nil {
			e.logger.Warn("alert publish failed", "fleet_id", fleetID, "error", err)
		}
	}
}
