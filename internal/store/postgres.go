package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/config"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg *config.Config) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const vehicleColumns = `id, fleet_id, name, current_km, created_at`

func scanVehicle(row pgx.Row) (domain.Vehicle, error) {
	var v domain.Vehicle
	err := row.Scan(&v.ID, &v.FleetID, &v.Name, &v.CurrentKm, &v.CreatedAt)
	return v, err
}

func (s *PostgresStore) ListFleets(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT fleet_id FROM vehicles ORDER BY fleet_id`)
	if err != nil {
		return nil, fmt.Errorf("list fleets: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PostgresStore) ListVehicles(ctx context.Context, fleetID string) ([]domain.Vehicle, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles
		WHERE fleet_id = $1
		ORDER BY created_at, id
	`, fleetID)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Vehicle, error) {
		return scanVehicle(row)
	})
}

func (s *PostgresStore) GetVehicle(ctx context.Context, fleetID, vehicleID string) (domain.Vehicle, error) {
	v, err := scanVehicle(s.pool.QueryRow(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles
		WHERE fleet_id = $1 AND id = $2
	`, fleetID, vehicleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Vehicle{}, ErrNotFound
	}
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("get vehicle %s: %w", vehicleID, err)
	}
	return v, nil
}

func (s *PostgresStore) CreateVehicle(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO vehicles (fleet_id, name, current_km)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, v.FleetID, v.Name, v.CurrentKm).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("create vehicle: %w", err)
	}
	return v, nil
}

// BatchUpdateOdometer applies readings in one round trip. The odometer only
// moves forward, so late or replayed readings are harmless.
func (s *PostgresStore) BatchUpdateOdometer(ctx context.Context, readings []*domain.OdometerReading) error {
	if len(readings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range readings {
		batch.Queue(`
			UPDATE vehicles
			SET current_km = GREATEST(COALESCE(current_km, 0), $2),
			    odometer_updated_at = $3
			WHERE id = $1
		`, r.VehicleID, r.Km, r.RecordedAt)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range readings {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("odometer batch of %d failed: %w", len(readings), err)
		}
	}
	return nil
}

const maintenanceColumns = `id, vehicle_id, type, performed_on, km, next_service_km, next_service_date, cost, notes`

func scanMaintenance(row pgx.Row) (domain.MaintenanceRecord, error) {
	var (
		r        domain.MaintenanceRecord
		nextDate *string
		notes    *string
	)
	err := row.Scan(&r.ID, &r.VehicleID, &r.Type, &r.Date, &r.Km, &r.NextServiceKm, &nextDate, &r.Cost, &notes)
	if nextDate != nil {
		r.NextServiceDate = *nextDate
	}
	if notes != nil {
		r.Notes = *notes
	}
	return r, err
}

func collectMaintenance(rows pgx.Rows) ([]domain.MaintenanceRecord, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.MaintenanceRecord, error) {
		return scanMaintenance(row)
	})
}

func (s *PostgresStore) ListMaintenance(ctx context.Context, vehicleID string) ([]domain.MaintenanceRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+maintenanceColumns+`
		FROM maintenance_records
		WHERE vehicle_id = $1
		ORDER BY performed_on DESC, created_at DESC
	`, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("list maintenance: %w", err)
	}
	return collectMaintenance(rows)
}

// ListUpcoming returns the vehicle's records that carry at least one
// next-service threshold.
func (s *PostgresStore) ListUpcoming(ctx context.Context, vehicleID string) ([]domain.MaintenanceRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+maintenanceColumns+`
		FROM maintenance_records
		WHERE vehicle_id = $1
		  AND (next_service_km IS NOT NULL OR COALESCE(next_service_date, '') <> '')
		ORDER BY created_at, id
	`, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("list upcoming: %w", err)
	}
	return collectMaintenance(rows)
}

// UpcomingByFleet is ListUpcoming for every vehicle of a fleet, keyed by
// vehicle id.
func (s *PostgresStore) UpcomingByFleet(ctx context.Context, fleetID string) (map[string][]domain.MaintenanceRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.vehicle_id, m.type, m.performed_on, m.km, m.next_service_km, m.next_service_date, m.cost, m.notes
		FROM maintenance_records m
		JOIN vehicles v ON v.id = m.vehicle_id
		WHERE v.fleet_id = $1
		  AND (m.next_service_km IS NOT NULL OR COALESCE(m.next_service_date, '') <> '')
		ORDER BY m.created_at, m.id
	`, fleetID)
	if err != nil {
		return nil, fmt.Errorf("upcoming by fleet: %w", err)
	}
	records, err := collectMaintenance(rows)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]domain.MaintenanceRecord)
	for _, r := range records {
		out[r.VehicleID] = append(out[r.VehicleID], r)
	}
	return out, nil
}

func (s *PostgresStore) CreateMaintenance(ctx context.Context, r domain.MaintenanceRecord) (domain.MaintenanceRecord, error) {
	var nextDate, notes *string
	if r.NextServiceDate != "" {
		nextDate = &r.NextServiceDate
	}
	if r.Notes != "" {
		notes = &r.Notes
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO maintenance_records
			(vehicle_id, type, performed_on, km, next_service_km, next_service_date, cost, notes)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, r.VehicleID, r.Type, r.Date, r.Km, r.NextServiceKm, nextDate, r.Cost, notes).Scan(&r.ID)
	if err != nil {
		return domain.MaintenanceRecord{}, fmt.Errorf("create maintenance: %w", err)
	}
	return r, nil
}

// InsertAlertLog records that an alert was delivered. It is an audit trail
// only; urgency is always recomputed from the records.
func (s *PostgresStore) InsertAlertLog(ctx context.Context, fleetID string, a domain.Alert) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO maintenance_alert_log
			(fleet_id, vehicle_id, maintenance_id, alert_type, reason, notified_at)
		VALUES
			($1, $2, $3, $4, $5, NOW())
	`, fleetID, a.VehicleID, a.MaintenanceID, string(a.Type), a.Reason)
	if err != nil {
		return fmt.Errorf("insert alert log: %w", err)
	}
	return nil
}
