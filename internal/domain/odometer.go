package domain

import "time"

type OdometerReading struct {
	ReceivedAt time.Time

	RecordedAt time.Time
	VehicleID  string
	FleetID    string

	Km int
}
