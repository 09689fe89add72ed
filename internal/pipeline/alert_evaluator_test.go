package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/metrics"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/urgency"
)

var fixedNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func newTestEvaluator(records *fakeRecords, bus *fakeBus, n *fakeNotifier) *AlertEvaluator {
	engine := urgency.New(urgency.WithClock(func() time.Time { return fixedNow }))
	e := NewAlertEvaluator(nil, engine, records, bus, n, time.Hour)
	e.now = func() time.Time { return fixedNow }
	return e
}

func oneVehicleFleet(currentKm *int, records ...domain.MaintenanceRecord) *fakeRecords {
	return &fakeRecords{
		vehicles: map[string][]domain.Vehicle{
			"f1": {{ID: "v1", FleetID: "f1", Name: "Hilux", CurrentKm: currentKm}},
		},
		records: map[string][]domain.MaintenanceRecord{"v1": records},
	}
}

func TestAlertEvaluator_Evaluate(t *testing.T) {
	oil := domain.MaintenanceRecord{ID: "m1", VehicleID: "v1", Type: "Oil change", NextServiceKm: intp(10000)}

	tests := []struct {
		name       string
		storedKm   *int
		readingKm  int
		wantType   domain.AlertType
		wantReason string
		wantAlerts int
	}{
		{"reading passes threshold", intp(9000), 10500, domain.AlertOverdue, "Overdue by 500 distance units", 1},
		{"stored odometer ahead of reading", intp(10200), 9000, domain.AlertOverdue, "Overdue by 200 distance units", 1},
		{"reading within badge range", nil, 9600, domain.AlertUrgent, "Only 400 distance units remaining", 1},
		{"reading far from threshold", nil, 5000, "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := oneVehicleFleet(tt.storedKm, oil)
			bus := newFakeBus()
			n := &fakeNotifier{}
			e := newTestEvaluator(records, bus, n)

			err := e.Evaluate(context.Background(), &domain.OdometerReading{VehicleID: "v1", FleetID: "f1", Km: tt.readingKm})
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}

			if len(bus.alerts["f1"]) != tt.wantAlerts {
				t.Fatalf("published = %d, want %d", len(bus.alerts["f1"]), tt.wantAlerts)
			}
			if tt.wantAlerts == 0 {
				if len(n.calls) != 0 {
					t.Errorf("notifier called %d times, want 0", len(n.calls))
				}
				return
			}

			var ev AlertEvent
			if err := json.Unmarshal(bus.alerts["f1"][0], &ev); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			if ev.FleetID != "f1" || ev.Type != tt.wantType || ev.Reason != tt.wantReason || ev.MaintenanceID != "m1" {
				t.Errorf("event = %+v, want type %s reason %q", ev, tt.wantType, tt.wantReason)
			}
			if ev.TriggeredAt != fixedNow.Unix() {
				t.Errorf("triggered_at = %d, want %d", ev.TriggeredAt, fixedNow.Unix())
			}
			if len(records.logs) != 1 {
				t.Errorf("alert log rows = %d, want 1", len(records.logs))
			}
			if len(n.calls) != 1 || len(n.calls[0]) != 1 {
				t.Errorf("notifier calls = %v", n.calls)
			}
		})
	}
}

func TestAlertEvaluator_DedupAcrossReadings(t *testing.T) {
	records := oneVehicleFleet(nil, domain.MaintenanceRecord{ID: "m1", VehicleID: "v1", Type: "Oil change", NextServiceKm: intp(10000)})
	bus := newFakeBus()
	n := &fakeNotifier{}
	e := newTestEvaluator(records, bus, n)
	before := testutil.ToFloat64(metrics.AlertsFired.WithLabelValues("overdue"))

	for _, km := range []int{10100, 10200, 10300} {
		if err := e.Evaluate(context.Background(), &domain.OdometerReading{VehicleID: "v1", FleetID: "f1", Km: km}); err != nil {
			t.Fatalf("Evaluate(%d) error = %v", km, err)
		}
	}

	if len(n.calls) != 1 {
		t.Errorf("notifier calls = %d, want 1", len(n.calls))
	}
	if len(bus.alerts["f1"]) != 1 {
		t.Errorf("published = %d, want 1", len(bus.alerts["f1"]))
	}
	if got := testutil.ToFloat64(metrics.AlertsFired.WithLabelValues("overdue")) - before; got != 1 {
		t.Errorf("alerts fired delta = %v, want 1", got)
	}
}

func TestAlertEvaluator_UnknownVehicle(t *testing.T) {
	records := oneVehicleFleet(nil)
	n := &fakeNotifier{}
	e := newTestEvaluator(records, newFakeBus(), n)

	err := e.Evaluate(context.Background(), &domain.OdometerReading{VehicleID: "ghost", FleetID: "f1", Km: 1})
	if err != nil {
		t.Errorf("Evaluate() error = %v, want nil", err)
	}
	if len(n.calls) != 0 {
		t.Errorf("notifier calls = %d, want 0", len(n.calls))
	}
}

func TestAlertEvaluator_NotifyFailureReleasesClaims(t *testing.T) {
	records := oneVehicleFleet(intp(10500),
		domain.MaintenanceRecord{ID: "m1", VehicleID: "v1", Type: "Oil change", NextServiceKm: intp(10000)},
		domain.MaintenanceRecord{ID: "m2", VehicleID: "v1", Type: "Tyres", NextServiceDate: "2026-03-11"},
	)
	bus := newFakeBus()
	n := &fakeNotifier{err: errors.New("smtp down")}
	e := newTestEvaluator(records, bus, n)
	reading := &domain.OdometerReading{VehicleID: "v1", FleetID: "f1", Km: 10500}

	if err := e.Evaluate(context.Background(), reading); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if bus.releases != 2 {
		t.Errorf("releases = %d, want 2", bus.releases)
	}
	if len(records.logs) != 0 || len(bus.alerts["f1"]) != 0 {
		t.Errorf("logs = %d, published = %d, want none", len(records.logs), len(bus.alerts["f1"]))
	}

	n.err = nil
	if err := e.Evaluate(context.Background(), reading); err != nil {
		t.Fatalf("Evaluate() retry error = %v", err)
	}
	if len(n.calls) != 2 || len(n.calls[1]) != 2 {
		t.Errorf("second notify = %v, want both alerts", n.calls)
	}
	if len(records.logs) != 2 {
		t.Errorf("logs = %d, want 2", len(records.logs))
	}
}

func TestAlertEvaluator_ClaimErrorSkipsAlert(t *testing.T) {
	records := oneVehicleFleet(intp(10500), domain.MaintenanceRecord{ID: "m1", VehicleID: "v1", Type: "Oil change", NextServiceKm: intp(10000)})
	bus := newFakeBus()
	bus.claimErr = errors.New("redis down")
	n := &fakeNotifier{}
	e := newTestEvaluator(records, bus, n)

	if err := e.Evaluate(context.Background(), &domain.OdometerReading{VehicleID: "v1", FleetID: "f1", Km: 10500}); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(n.calls) != 0 {
		t.Errorf("notifier calls = %d, want 0", len(n.calls))
	}
}

func TestAlertEvaluator_Sweep(t *testing.T) {
	records := &fakeRecords{
		vehicles: map[string][]domain.Vehicle{
			"f1": {
				{ID: "v1", FleetID: "f1", Name: "Hilux", CurrentKm: intp(9800)},
				{ID: "v2", FleetID: "f1", Name: "Corolla"},
			},
			"f2": {{ID: "v3", FleetID: "f2", Name: "Transit", CurrentKm: intp(1000)}},
		},
		records: map[string][]domain.MaintenanceRecord{
			"v1": {
				{ID: "m1", VehicleID: "v1", Type: "Oil change", NextServiceKm: intp(10000)},
				{ID: "m2", VehicleID: "v1", Type: "Inspection", NextServiceDate: "2026-03-01"},
			},
			"v2": {{ID: "m3", VehicleID: "v2", Type: "Tyres", NextServiceDate: "2026-03-12"}},
			"v3": {{ID: "m4", VehicleID: "v3", Type: "Brakes", NextServiceKm: intp(50000)}},
		},
	}
	bus := newFakeBus()
	n := &fakeNotifier{}
	e := newTestEvaluator(records, bus, n)

	if err := e.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	var badge BadgeEvent
	if len(bus.badges["f1"]) != 1 {
		t.Fatalf("f1 badge payloads = %d, want 1", len(bus.badges["f1"]))
	}
	if err := json.Unmarshal(bus.badges["f1"][0], &badge); err != nil {
		t.Fatalf("decode badge: %v", err)
	}
	want := BadgeEvent{FleetID: "f1", TotalOverdue: 1, TotalUrgent: 2, BadgeCount: 3, At: fixedNow.Unix()}
	if badge != want {
		t.Errorf("badge = %+v, want %+v", badge, want)
	}
	if got := testutil.ToFloat64(metrics.BadgeCount.WithLabelValues("f1")); got != 3 {
		t.Errorf("f1 badge gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.BadgeCount.WithLabelValues("f2")); got != 0 {
		t.Errorf("f2 badge gauge = %v, want 0", got)
	}
	if len(bus.alerts["f1"]) != 3 || len(bus.alerts["f2"]) != 0 {
		t.Errorf("published f1=%d f2=%d, want 3 and 0", len(bus.alerts["f1"]), len(bus.alerts["f2"]))
	}

	// A second sweep republishes badges but no alerts.
	if err := e.Sweep(context.Background()); err != nil {
		t.Fatalf("second Sweep() error = %v", err)
	}
	if len(bus.alerts["f1"]) != 3 {
		t.Errorf("published after second sweep = %d, want 3", len(bus.alerts["f1"]))
	}
	if len(bus.badges["f1"]) != 2 {
		t.Errorf("badges after second sweep = %d, want 2", len(bus.badges["f1"]))
	}
}

func TestAlertEvaluator_SweepListError(t *testing.T) {
	records := &fakeRecords{listErr: errors.New("db down")}
	e := newTestEvaluator(records, newFakeBus(), &fakeNotifier{})

	if err := e.Sweep(context.Background()); err == nil {
		t.Error("Sweep() error = nil, want error")
	}
}

func TestAlertEvaluator_RunDrainsChannel(t *testing.T) {
	records := oneVehicleFleet(nil, domain.MaintenanceRecord{ID: "m1", VehicleID: "v1", Type: "Oil change", NextServiceKm: intp(10000)})
	bus := newFakeBus()
	n := &fakeNotifier{}
	e := newTestEvaluator(records, bus, n)

	ch := make(chan *domain.OdometerReading, 1)
	ch <- &domain.OdometerReading{VehicleID: "v1", FleetID: "f1", Km: 10001}
	close(ch)
	e.ch = ch

	e.Run(context.Background())

	if len(n.calls) != 1 {
		t.Errorf("notifier calls = %d, want 1", len(n.calls))
	}
}
