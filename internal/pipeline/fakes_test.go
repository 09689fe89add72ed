package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/store"
)

type fakeRecords struct {
	vehicles map[string][]domain.Vehicle
	records  map[string][]domain.MaintenanceRecord
	listErr  error

	mu   sync.Mutex
	logs []domain.Alert
}

func (f *fakeRecords) ListFleets(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	fleets := make([]string, 0, len(f.vehicles))
	for id := range f.vehicles {
		fleets = append(fleets, id)
	}
	return fleets, nil
}

func (f *fakeRecords) ListVehicles(ctx context.Context, fleetID string) ([]domain.Vehicle, error) {
	return f.vehicles[fleetID], nil
}

func (f *fakeRecords) GetVehicle(ctx context.Context, fleetID, vehicleID string) (domain.Vehicle, error) {
	for _, v := range f.vehicles[fleetID] {
		if v.ID == vehicleID {
			return v, nil
		}
	}
	return domain.Vehicle{}, store.ErrNotFound
}

func (f *fakeRecords) ListUpcoming(ctx context.Context, vehicleID string) ([]domain.MaintenanceRecord, error) {
	return f.records[vehicleID], nil
}

func (f *fakeRecords) UpcomingByFleet(ctx context.Context, fleetID string) (map[string][]domain.MaintenanceRecord, error) {
	out := make(map[string][]domain.MaintenanceRecord)
	for _, v := range f.vehicles[fleetID] {
		out[v.ID] = f.records[v.ID]
	}
	return out, nil
}

func (f *fakeRecords) InsertAlertLog(ctx context.Context, fleetID string, a domain.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, a)
	return nil
}

type fakeBus struct {
	mu       sync.Mutex
	claimed  map[string]bool
	alerts   map[string][][]byte
	badges   map[string][][]byte
	releases int
	claimErr error
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		claimed: make(map[string]bool),
		alerts:  make(map[string][][]byte),
		badges:  make(map[string][][]byte),
	}
}

func (b *fakeBus) ClaimAlert(ctx context.Context, a domain.Alert, ttl time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.claimErr != nil {
		return false, b.claimErr
	}
	key := store.AlertDedupKey(a.VehicleID, a.MaintenanceID, a.Type)
	if b.claimed[key] {
		return false, nil
	}
	b.claimed[key] = true
	return true, nil
}

func (b *fakeBus) ReleaseAlert(ctx context.Context, a domain.Alert) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.claimed, store.AlertDedupKey(a.VehicleID, a.MaintenanceID, a.Type))
	b.releases++
	return nil
}

func (b *fakeBus) PublishAlert(ctx context.Context, fleetID string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alerts[fleetID] = append(b.alerts[fleetID], payload)
	return nil
}

func (b *fakeBus) PublishBadge(ctx context.Context, fleetID string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.badges[fleetID] = append(b.badges[fleetID], payload)
	return nil
}

type fakeNotifier struct {
	err   error
	calls [][]domain.Alert
}

func (n *fakeNotifier) Notify(ctx context.Context, fleetID string, alerts []domain.Alert) error {
	n.calls = append(n.calls, alerts)
	return n.err
}

type fakeOdometerWriter struct {
	mu      sync.Mutex
	fails   int
	batches [][]*domain.OdometerReading
	calls   int
}

var errWrite = errors.New("write failed")

func (w *fakeOdometerWriter) BatchUpdateOdometer(ctx context.Context, readings []*domain.OdometerReading) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.fails > 0 {
		w.fails--
		return errWrite
	}
	w.batches = append(w.batches, append([]*domain.OdometerReading(nil), readings...))
	return nil
}

func (w *fakeOdometerWriter) written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

type fakeStateUpdater struct {
	mu      sync.Mutex
	updates []string
}

func (s *fakeStateUpdater) PipelineStateUpdate(ctx context.Context, reading *domain.OdometerReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, reading.VehicleID)
	return nil
}

func intp(v int) *int { return &v }
