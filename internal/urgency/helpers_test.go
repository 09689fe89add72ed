package urgency

import (
	"time"
)

// fixedNow is mid-afternoon so date math is exercised away from midnight.
var fixedNow = time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)

func newTestEngine(opts ...Option) *Engine {
	return New(append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func intp(v int) *int { return &v }

// inDays renders the date n days after fixedNow.
func inDays(n int) string {
	return fixedNow.AddDate(0, 0, n).Format(time.DateOnly)
}

func intOrNil(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
