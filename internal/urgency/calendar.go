package urgency

import (
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// CalendarDate is a timezone-free year/month/day.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// ParseCalendarDate accepts "YYYY-MM-DD" and ISO timestamps whose date part
// is "YYYY-MM-DD". Anything after the date is ignored, including the zone.
func ParseCalendarDate(s string) (CalendarDate, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return CalendarDate{}, false
	}
	return DateOf(t), true
}

func (d CalendarDate) String() string {
	return d.midnight().Format(time.DateOnly)
}

func (d CalendarDate) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b, negative when b
// is before a. Counted on Unix seconds since time.Duration spans only about
// 292 years.
func DaysBetween(a, b CalendarDate) int {
	return int((b.midnight().Unix() - a.midnight().Unix()) / secondsPerDay)
}
