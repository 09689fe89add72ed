package urgency

import "fmt"

// Thresholds holds the distance and day windows used to grade a maintenance
// item. Values are inclusive upper bounds.
type Thresholds struct {
	ImminentKm   int `yaml:"imminent_km"`
	SoonKm       int `yaml:"soon_km"`
	ImminentDays int `yaml:"imminent_days"`
	SoonDays     int `yaml:"soon_days"`
}

// DisplayThresholds grade items on lists and detail screens.
var DisplayThresholds = Thresholds{
	ImminentKm:   1000,
	SoonKm:       2000,
	ImminentDays: 7,
	SoonDays:     30,
}

// BadgeThresholds decide what counts as urgent for the badge and alert
// summaries. The windows are tighter than DisplayThresholds.
var BadgeThresholds = Thresholds{
	ImminentKm:   500,
	SoonKm:       2000,
	ImminentDays: 3,
	SoonDays:     30,
}

type Preset string

const (
	PresetDisplay Preset = "display"
	PresetBadge   Preset = "badge"
)

func (t Thresholds) Validate() error {
	if t.ImminentKm < 0 || t.SoonKm < 0 || t.ImminentDays < 0 || t.SoonDays < 0 {
		return fmt.Errorf("thresholds must be non-negative: %+v", t)
	}
	if t.ImminentKm > t.SoonKm {
		return fmt.Errorf("imminent_km (%d) exceeds soon_km (%d)", t.ImminentKm, t.SoonKm)
	}
	if t.ImminentDays > t.SoonDays {
		return fmt.Errorf("imminent_days (%d) exceeds soon_days (%d)", t.ImminentDays, t.SoonDays)
	}
	return nil
}
