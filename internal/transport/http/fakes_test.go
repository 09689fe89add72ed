package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/store"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/urgency"
)

var fixedNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

const testKey = "key-f1"

type fakeResolver map[string]string

func (f fakeResolver) Resolve(ctx context.Context, apiKey string) (string, bool) {
	fleetID, ok := f[apiKey]
	return fleetID, ok
}

type fakeStore struct {
	pingErr  error
	listErr  error
	vehicles []domain.Vehicle
	records  map[string][]domain.MaintenanceRecord
	nextID   int
}

func (s *fakeStore) Ping(ctx context.Context) error { return s.pingErr }

func (s *fakeStore) ListVehicles(ctx context.Context, fleetID string) ([]domain.Vehicle, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Vehicle
	for _, v := range s.vehicles {
		if v.FleetID == fleetID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *fakeStore) GetVehicle(ctx context.Context, fleetID, vehicleID string) (domain.Vehicle, error) {
	for _, v := range s.vehicles {
		if v.FleetID == fleetID && v.ID == vehicleID {
			return v, nil
		}
	}
	return domain.Vehicle{}, store.ErrNotFound
}

func (s *fakeStore) CreateVehicle(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	s.nextID++
	v.ID = "new-" + strconv.Itoa(s.nextID)
	v.CreatedAt = fixedNow
	s.vehicles = append(s.vehicles, v)
	return v, nil
}

func (s *fakeStore) ListMaintenance(ctx context.Context, vehicleID string) ([]domain.MaintenanceRecord, error) {
	return s.records[vehicleID], nil
}

func (s *fakeStore) ListUpcoming(ctx context.Context, vehicleID string) ([]domain.MaintenanceRecord, error) {
	var out []domain.MaintenanceRecord
	for _, r := range s.records[vehicleID] {
		if r.HasThreshold() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) UpcomingByFleet(ctx context.Context, fleetID string) (map[string][]domain.MaintenanceRecord, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make(map[string][]domain.MaintenanceRecord)
	for _, v := range s.vehicles {
		if v.FleetID == fleetID {
			out[v.ID], _ = s.ListUpcoming(ctx, v.ID)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateMaintenance(ctx context.Context, r domain.MaintenanceRecord) (domain.MaintenanceRecord, error) {
	s.nextID++
	r.ID = "m-" + strconv.Itoa(s.nextID)
	if s.records == nil {
		s.records = make(map[string][]domain.MaintenanceRecord)
	}
	s.records[r.VehicleID] = append(s.records[r.VehicleID], r)
	return r, nil
}

type fakeDispatcher struct {
	mu       sync.Mutex
	readings []*domain.OdometerReading
}

func (d *fakeDispatcher) Dispatch(r *domain.OdometerReading) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readings = append(d.readings, r)
}

type fakeFeed struct {
	msgs      chan []byte
	err       error
	mu        sync.Mutex
	fleetID   string
	cancelled bool
}

func (f *fakeFeed) Subscribe(ctx context.Context, fleetID string) (<-chan []byte, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.mu.Lock()
	f.fleetID = fleetID
	f.mu.Unlock()
	return f.msgs, func() {
		f.mu.Lock()
		f.cancelled = true
		f.mu.Unlock()
	}, nil
}

var errDB = errors.New("db down")

func intp(v int) *int { return &v }

// testFleet has one vehicle with an overdue, an urgent, a soon and a
// completed record, plus a vehicle in another fleet.
func testFleet() *fakeStore {
	return &fakeStore{
		vehicles: []domain.Vehicle{
			{ID: "v1", FleetID: "f1", Name: "Hilux", CurrentKm: intp(10000)},
			{ID: "v2", FleetID: "f2", Name: "Other"},
		},
		records: map[string][]domain.MaintenanceRecord{
			"v1": {
				{ID: "m1", VehicleID: "v1", Type: "Tyres", NextServiceKm: intp(10800)},
				{ID: "m2", VehicleID: "v1", Type: "Oil change", NextServiceKm: intp(9500)},
				{ID: "m3", VehicleID: "v1", Type: "Inspection", NextServiceDate: "2026-03-12"},
				{ID: "m4", VehicleID: "v1", Type: "Wash", Date: "2026-01-01"},
			},
			"v2": {
				{ID: "m9", VehicleID: "v2", Type: "Oil change", NextServiceDate: "2020-01-01"},
			},
		},
	}
}

func newTestRouter(s Store, d ReadingDispatcher, feed AlertFeed) http.Handler {
	return NewRouter(Deps{
		Store:      s,
		Engine:     urgency.New(urgency.WithClock(func() time.Time { return fixedNow })),
		Dispatcher: d,
		Auth:       fakeResolver{testKey: "f1"},
		Feed:       feed,
		Now:        func() time.Time { return fixedNow },
	})
}
