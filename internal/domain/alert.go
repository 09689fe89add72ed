package domain

type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
)

func (l UrgencyLevel) String() string { return string(l) }

// UrgencyClassification is computed at read time and never stored.
// A nil remaining value means that dimension had no usable input.
type UrgencyClassification struct {
	Level         UrgencyLevel `json:"level"`
	KmRemaining   *int         `json:"km_remaining"`
	DaysRemaining *int         `json:"days_remaining"`
}

type AlertType string

const (
	AlertOverdue AlertType = "overdue"
	AlertUrgent  AlertType = "urgent"
)

func (t AlertType) String() string { return string(t) }

type Alert struct {
	Type            AlertType `json:"type"`
	VehicleID       string    `json:"vehicle_id"`
	VehicleName     string    `json:"vehicle_name"`
	MaintenanceID   string    `json:"maintenance_id"`
	MaintenanceType string    `json:"maintenance_type"`
	Reason          string    `json:"reason"`
	KmRemaining     *int      `json:"km_remaining,omitempty"`
	DaysRemaining   *int      `json:"days_remaining,omitempty"`
}

type AlertSummary struct {
	TotalOverdue int     `json:"total_overdue"`
	TotalUrgent  int     `json:"total_urgent"`
	Alerts       []Alert `json:"alerts"`
}

// BadgeCount is the number shown on the application icon.
func (s AlertSummary) BadgeCount() int {
	return s.TotalOverdue + s.TotalUrgent
}

// ByType returns the alerts of one type, keeping summary order.
func (s AlertSummary) ByType(t AlertType) []Alert {
	out := make([]Alert, 0, len(s.Alerts))
	for _, a := range s.Alerts {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}
