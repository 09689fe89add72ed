package urgency

import (
	"fmt"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
)

type pairKey struct {
	vehicleID     string
	maintenanceID string
}

// SummarizeAlerts aggregates overdue and urgent items with the badge preset.
func (e *Engine) SummarizeAlerts(vehicles []domain.Vehicle, recordsByVehicle map[string][]domain.MaintenanceRecord) domain.AlertSummary {
	return e.Summarize(e.badge, vehicles, recordsByVehicle)
}

// Summarize walks vehicles in order and each vehicle's records in order.
// A (vehicle, record) pair is counted once no matter how often it appears.
func (e *Engine) Summarize(t Thresholds, vehicles []domain.Vehicle, recordsByVehicle map[string][]domain.MaintenanceRecord) domain.AlertSummary {
	summary := domain.AlertSummary{Alerts: []domain.Alert{}}
	seen := make(map[pairKey]struct{})

	for _, v := range vehicles {
		for _, r := range recordsByVehicle[v.ID] {
			key := pairKey{vehicleID: v.ID, maintenanceID: r.ID}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			alert, ok := e.evaluate(t, v, r)
			if !ok {
				continue
			}
			switch alert.Type {
			case domain.AlertOverdue:
				summary.TotalOverdue++
			case domain.AlertUrgent:
				summary.TotalUrgent++
			}
			summary.Alerts = append(summary.Alerts, alert)
		}
	}

	return summary
}

// evaluate classifies one record for the summary. When both dimensions
// qualify, the date reason replaces the distance reason.
func (e *Engine) evaluate(t Thresholds, v domain.Vehicle, r domain.MaintenanceRecord) (domain.Alert, bool) {
	km, hasKm := kmRemaining(v.CurrentKm, r.NextServiceKm)
	days, hasDays := e.daysRemaining(r.NextServiceDate)

	kmOverdue := hasKm && km <= 0
	daysOverdue := hasDays && days < 0

	alert := domain.Alert{
		VehicleID:       v.ID,
		VehicleName:     v.Name,
		MaintenanceID:   r.ID,
		MaintenanceType: r.Type,
	}
	if hasKm {
		alert.KmRemaining = &km
	}
	if hasDays {
		alert.DaysRemaining = &days
	}

	if kmOverdue || daysOverdue {
		alert.Type = domain.AlertOverdue
		if kmOverdue {
			alert.Reason = fmt.Sprintf("Overdue by %d distance units", -km)
		}
		if daysOverdue {
			alert.Reason = fmt.Sprintf("Overdue by %d days", -days)
		}
		return alert, true
	}

	kmUrgent := hasKm && km <= t.ImminentKm
	daysUrgent := hasDays && days <= t.ImminentDays
	if !kmUrgent && !daysUrgent {
		return domain.Alert{}, false
	}

	alert.Type = domain.AlertUrgent
	if kmUrgent {
		alert.Reason = fmt.Sprintf("Only %d distance units remaining", km)
	}
	if daysUrgent {
		if days == 0 {
			alert.Reason = "Due today"
		} else {
			alert.Reason = fmt.Sprintf("Only %d days", days)
		}
	}
	return alert, true
}
