package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/pflag"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/config"
)

func main() {
	demo := pflag.Bool("demo", false, "Insert a demo fleet with due and overdue maintenance.")
	pflag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	fmt.Println("Connecting to PostgreSQL...")
	conn, err := pgx.Connect(ctx, cfg.DSN())
	if err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure PostgreSQL is running:\n  docker-compose up -d postgres", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	step1_vehicles_table(ctx, conn)
	step2_maintenance_table(ctx, conn)
	step3_alert_log_table(ctx, conn)
	step4_indexes(ctx, conn)
	if *demo {
		step5_demo_data(ctx, conn)
	}
	step6_verify(ctx, conn)

	fmt.Println("\n✅ Database initialised successfully")
	fmt.Println("   Run next: go run ./scripts/seed_redis")
}

// ─────────────────────────────────────────────────────────────
// Step 1: vehicles
// ─────────────────────────────────────────────────────────────
func step1_vehicles_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 1: vehicles table ──────────────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS vehicles (
			id                   TEXT        PRIMARY KEY DEFAULT gen_random_uuid()::text,
			fleet_id             TEXT        NOT NULL,
			name                 TEXT        NOT NULL,

			-- NULL until the first odometer reading arrives
			current_km           INTEGER     CHECK (current_km >= 0),
			odometer_updated_at  TIMESTAMPTZ,

			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`, "vehicles table created")
}

// ─────────────────────────────────────────────────────────────
// Step 2: maintenance_records
// ─────────────────────────────────────────────────────────────
func step2_maintenance_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 2: maintenance_records table ───────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS maintenance_records (
			id                 TEXT             PRIMARY KEY DEFAULT gen_random_uuid()::text,
			vehicle_id         TEXT             NOT NULL REFERENCES vehicles (id) ON DELETE CASCADE,
			type               TEXT             NOT NULL,
			performed_on       TEXT             NOT NULL,
			km                 INTEGER,

			-- Thresholds for the next service. Either, both or neither.
			-- The date stays TEXT: a malformed value is kept and read as absent.
			next_service_km    INTEGER,
			next_service_date  TEXT,

			cost               DOUBLE PRECISION,
			notes              TEXT,
			created_at         TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);
	`, "maintenance_records table created")
}

// ─────────────────────────────────────────────────────────────
// Step 3: maintenance_alert_log
// ─────────────────────────────────────────────────────────────
func step3_alert_log_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 3: maintenance_alert_log table ─────────")

	// Audit trail of delivered notifications. Urgency itself is never stored.
	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS maintenance_alert_log (
			id              BIGSERIAL   PRIMARY KEY,
			fleet_id        TEXT        NOT NULL,
			vehicle_id      TEXT        NOT NULL,
			maintenance_id  TEXT        NOT NULL,
			alert_type      TEXT        NOT NULL,
			reason          TEXT        NOT NULL,
			notified_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),

			CONSTRAINT chk_alert_type CHECK (alert_type IN ('overdue', 'urgent'))
		);
	`, "maintenance_alert_log table created")
}

// ─────────────────────────────────────────────────────────────
// Step 4: Indexes
// ─────────────────────────────────────────────────────────────
func step4_indexes(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 4: Indexes ─────────────────────────────")

	indexes := []struct {
		name string
		sql  string
		why  string
	}{
		{
			name: "idx_vehicles_fleet",
			sql: `CREATE INDEX IF NOT EXISTS idx_vehicles_fleet
				  ON vehicles (fleet_id, created_at);`,
			why: "query: vehicles of a fleet",
		},
		{
			name: "idx_maintenance_vehicle",
			sql: `CREATE INDEX IF NOT EXISTS idx_maintenance_vehicle
				  ON maintenance_records (vehicle_id, created_at);`,
			why: "query: history of one vehicle",
		},
		{
			name: "idx_maintenance_upcoming",
			sql: `CREATE INDEX IF NOT EXISTS idx_maintenance_upcoming
				  ON maintenance_records (vehicle_id)
				  WHERE next_service_km IS NOT NULL OR next_service_date IS NOT NULL;`,
			why: "query: records with a threshold (partial index)",
		},
		{
			name: "idx_alert_log_pair",
			sql: `CREATE INDEX IF NOT EXISTS idx_alert_log_pair
				  ON maintenance_alert_log (vehicle_id, maintenance_id, notified_at DESC);`,
			why: "query: notification history of one item",
		},
	}

	for _, idx := range indexes {
		execOrFatal(ctx, conn, idx.sql,
			fmt.Sprintf("%-32s ← %s", idx.name, idx.why),
		)
	}
}

// ─────────────────────────────────────────────────────────────
// Step 5: Demo data (--demo)
// ─────────────────────────────────────────────────────────────
func step5_demo_data(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 5: Demo data ───────────────────────────")

	var existing int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM vehicles WHERE fleet_id = 'demo_fleet'`).Scan(&existing); err != nil {
		log.Fatalf("Demo check failed: %v", err)
	}
	if existing > 0 {
		fmt.Println("  ✓ demo_fleet already present, skipping")
		return
	}

	day := func(n int) string { return time.Now().AddDate(0, 0, n).Format(time.DateOnly) }

	vehicles := []struct {
		id, name string
		km       int
	}{
		{"demo-hilux", "Hilux", 48_700},
		{"demo-corolla", "Corolla", 121_300},
	}
	for _, v := range vehicles {
		_, err := conn.Exec(ctx, `
			INSERT INTO vehicles (id, fleet_id, name, current_km)
			VALUES ($1, 'demo_fleet', $2, $3)
			ON CONFLICT (id) DO NOTHING
		`, v.id, v.name, v.km)
		if err != nil {
			log.Fatalf("FAILED: demo vehicle %s\nError: %v", v.name, err)
		}
		fmt.Printf("  ✓ vehicle %s\n", v.name)
	}

	records := []struct {
		vehicle, typ string
		nextKm       *int
		nextDate     *string
	}{
		{"demo-hilux", "Oil change", ptr(49_000), nil},
		{"demo-hilux", "Inspection", nil, ptr(day(-4))},
		{"demo-corolla", "Tyres", ptr(125_000), ptr(day(2))},
		{"demo-corolla", "Brakes", ptr(140_000), nil},
	}
	for _, r := range records {
		_, err := conn.Exec(ctx, `
			INSERT INTO maintenance_records (vehicle_id, type, performed_on, next_service_km, next_service_date)
			VALUES ($1, $2, $3, $4, $5)
		`, r.vehicle, r.typ, day(-180), r.nextKm, r.nextDate)
		if err != nil {
			log.Fatalf("FAILED: demo record %s/%s\nError: %v", r.vehicle, r.typ, err)
		}
		fmt.Printf("  ✓ %s: %s\n", r.vehicle, r.typ)
	}
}

// ─────────────────────────────────────────────────────────────
// Step 6: Verify everything was created
// ─────────────────────────────────────────────────────────────
func step6_verify(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 6: Verification ────────────────────────")

	tables := []string{"vehicles", "maintenance_records", "maintenance_alert_log"}
	for _, table := range tables {
		var exists bool
		err := conn.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_name = $1
			)
		`, table).Scan(&exists)
		if err != nil || !exists {
			log.Fatalf("Table %s was not created: %v", table, err)
		}
		fmt.Printf("  ✓ table: %s\n", table)
	}

	var indexCount int
	err := conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM pg_indexes
		WHERE tablename IN ('vehicles', 'maintenance_records', 'maintenance_alert_log')
		AND indexname LIKE 'idx_%'
	`).Scan(&indexCount)
	if err != nil {
		log.Fatalf("Index check failed: %v", err)
	}
	fmt.Printf("  ✓ indexes created: %d\n", indexCount)
}

func execOrFatal(ctx context.Context, conn *pgx.Conn, sql, label string) {
	_, err := conn.Exec(ctx, sql)
	if err != nil {
		log.Fatalf("FAILED: %s\nError: %v\nSQL: %s", label, err, sql)
	}
	fmt.Printf("  ✓ %s\n", label)
}

func ptr[T any](v T) *T { return &v }
