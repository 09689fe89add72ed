package urgency

import "fmt"

// FormatKmRemaining renders a distance countdown. Nil renders empty.
func FormatKmRemaining(kmRemaining *int) string {
	if kmRemaining == nil {
		return ""
	}
	switch km := *kmRemaining; {
	case km < 0:
		return fmt.Sprintf("Overdue by %d distance units", -km)
	case km == 0:
		return "Due now"
	default:
		return fmt.Sprintf("%d distance units remaining", km)
	}
}

// FormatDaysRemaining renders a day countdown. Nil renders empty.
func FormatDaysRemaining(daysRemaining *int) string {
	if daysRemaining == nil {
		return ""
	}
	switch days := *daysRemaining; {
	case days < 0:
		return fmt.Sprintf("Overdue by %d days", -days)
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	default:
		return fmt.Sprintf("Due in %d days", days)
	}
}
