package domain

import "time"

type Vehicle struct {
	ID        string    `json:"id"`
	FleetID   string    `json:"fleet_id"`
	Name      string    `json:"name"`
	CurrentKm *int      `json:"current_km"`
	CreatedAt time.Time `json:"created_at"`
}

type MaintenanceRecord struct {
	ID        string `json:"id"`
	VehicleID string `json:"vehicle_id"`
	Type      string `json:"type"`
	Date      string `json:"date"`
	Km        *int   `json:"km,omitempty"`

	// Next service thresholds. Either, both or neither may be set.
	NextServiceKm   *int   `json:"next_service_km,omitempty"`
	NextServiceDate string `json:"next_service_date,omitempty"`

	Cost  *float64 `json:"cost,omitempty"`
	Notes string   `json:"notes,omitempty"`
}

// HasThreshold reports whether the record is tracked for upcoming alerts.
func (r MaintenanceRecord) HasThreshold() bool {
	return r.NextServiceKm != nil || r.NextServiceDate != ""
}
