package urgency

import (
	"time"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
)

// Engine grades maintenance records against a vehicle's odometer and the
// current date. An Engine is immutable once built and safe for concurrent use.
type Engine struct {
	now     func() time.Time
	display Thresholds
	badge   Thresholds
}

type Option func(*Engine)

// WithClock sets the source of "today". Its location decides the calendar day.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithDisplayThresholds(t Thresholds) Option {
	return func(e *Engine) { e.display = t }
}

func WithBadgeThresholds(t Thresholds) Option {
	return func(e *Engine) { e.badge = t }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		now:     time.Now,
		display: DisplayThresholds,
		badge:   BadgeThresholds,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Display() Thresholds { return e.display }
func (e *Engine) Badge() Thresholds   { return e.badge }

// Thresholds resolves a preset name. Unknown names report false.
func (e *Engine) Thresholds(p Preset) (Thresholds, bool) {
	switch p {
	case PresetDisplay:
		return e.display, true
	case PresetBadge:
		return e.badge, true
	default:
		return Thresholds{}, false
	}
}

// Today is the engine's current calendar date.
func (e *Engine) Today() CalendarDate {
	return DateOf(e.now())
}

// ClassifyUrgency grades one threshold pair with the display preset.
func (e *Engine) ClassifyUrgency(currentKm, nextServiceKm *int, nextServiceDate string) domain.UrgencyClassification {
	return e.Classify(e.display, currentKm, nextServiceKm, nextServiceDate)
}

// Classify grades the distance and date dimensions independently. Distance
// sets the level first; a date inside the imminent window raises it to high,
// while a date inside the soon window only lifts a level that is still low.
func (e *Engine) Classify(t Thresholds, currentKm, nextServiceKm *int, nextServiceDate string) domain.UrgencyClassification {
	c := domain.UrgencyClassification{Level: domain.UrgencyLow}

	if km, ok := kmRemaining(currentKm, nextServiceKm); ok {
		c.KmRemaining = &km
		switch {
		case km <= 0:
			c.Level = domain.UrgencyHigh
		case km <= t.ImminentKm:
			c.Level = domain.UrgencyHigh
		case km <= t.SoonKm:
			c.Level = domain.UrgencyMedium
		}
	}

	if days, ok := e.daysRemaining(nextServiceDate); ok {
		c.DaysRemaining = &days
		switch {
		case days <= 0:
			c.Level = domain.UrgencyHigh
		case days <= t.ImminentDays:
			c.Level = domain.UrgencyHigh
		case days <= t.SoonDays:
			if c.Level == domain.UrgencyLow {
				c.Level = domain.UrgencyMedium
			}
		}
	}

	return c
}

func kmRemaining(currentKm, nextServiceKm *int) (int, bool) {
	if currentKm == nil || nextServiceKm == nil {
		return 0, false
	}
	return *nextServiceKm - *currentKm, true
}

// daysRemaining fails open: an empty or unparsable date reports false.
func (e *Engine) daysRemaining(nextServiceDate string) (int, bool) {
	if nextServiceDate == "" {
		return 0, false
	}
	due, ok := ParseCalendarDate(nextServiceDate)
	if !ok {
		return 0, false
	}
	return DaysBetween(e.Today(), due), true
}
