package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/urgency"
)

// ThresholdsFile is the YAML document referenced by THRESHOLDS_FILE:
//
//	display:
//	  imminent_km: 1000
//	  soon_km: 2000
//	  imminent_days: 7
//	  soon_days: 30
//	badge:
//	  imminent_km: 500
//	  imminent_days: 3
//
// Keys left out keep the built-in preset value.
type ThresholdsFile struct {
	Display *thresholdsOverride `yaml:"display"`
	Badge   *thresholdsOverride `yaml:"badge"`
}

type thresholdsOverride struct {
	ImminentKm   *int `yaml:"imminent_km"`
	SoonKm       *int `yaml:"soon_km"`
	ImminentDays *int `yaml:"imminent_days"`
	SoonDays     *int `yaml:"soon_days"`
}

func (o *thresholdsOverride) apply(t urgency.Thresholds) urgency.Thresholds {
	if o == nil {
		return t
	}
	if o.ImminentKm != nil {
		t.ImminentKm = *o.ImminentKm
	}
	if o.SoonKm != nil {
		t.SoonKm = *o.SoonKm
	}
	if o.ImminentDays != nil {
		t.ImminentDays = *o.ImminentDays
	}
	if o.SoonDays != nil {
		t.SoonDays = *o.SoonDays
	}
	return t
}

// LoadThresholds returns the display and badge presets. An empty path
// returns the built-in presets unchanged.
func LoadThresholds(path string) (display, badge urgency.Thresholds, err error) {
	display, badge = urgency.DisplayThresholds, urgency.BadgeThresholds
	if path == "" {
		return display, badge, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return display, badge, fmt.Errorf("read thresholds file: %w", err)
	}
	return ParseThresholds(b)
}

func ParseThresholds(b []byte) (display, badge urgency.Thresholds, err error) {
	var f ThresholdsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return urgency.DisplayThresholds, urgency.BadgeThresholds, fmt.Errorf("parse thresholds file: %w", err)
	}

	display = f.Display.apply(urgency.DisplayThresholds)
	badge = f.Badge.apply(urgency.BadgeThresholds)

	if err := display.Validate(); err != nil {
		return urgency.DisplayThresholds, urgency.BadgeThresholds, fmt.Errorf("display thresholds: %w", err)
	}
	if err := badge.Validate(); err != nil {
		return urgency.DisplayThresholds, urgency.BadgeThresholds, fmt.Errorf("badge thresholds: %w", err)
	}
	return display, badge, nil
}
