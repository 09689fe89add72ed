package urgency

import (
	"cmp"
	"math"
	"slices"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
)

const overdueScore = -1000

// RankByUrgency returns records ordered most urgent first. The input slice
// is left untouched. Kilometres are divided by 100 so both dimensions land on
// a comparable scale. Records without a usable threshold sort after the rest,
// and records with no threshold at all come last.
func (e *Engine) RankByUrgency(records []domain.MaintenanceRecord, currentKm *int) []domain.MaintenanceRecord {
	type scored struct {
		rec   domain.MaintenanceRecord
		score float64
		done  bool
	}

	items := make([]scored, len(records))
	for i, r := range records {
		items[i] = scored{rec: r, score: e.urgencyScore(r, currentKm), done: !r.HasThreshold()}
	}

	slices.SortStableFunc(items, func(a, b scored) int {
		return cmp.Or(cmp.Compare(a.score, b.score), compareDone(a.done, b.done))
	})

	out := make([]domain.MaintenanceRecord, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out
}

func (e *Engine) urgencyScore(r domain.MaintenanceRecord, currentKm *int) float64 {
	kmScore := math.Inf(1)
	if km, ok := kmRemaining(currentKm, r.NextServiceKm); ok {
		if km >= 0 {
			kmScore = float64(km) / 100
		} else {
			kmScore = overdueScore
		}
	}

	dayScore := math.Inf(1)
	if days, ok := e.daysRemaining(r.NextServiceDate); ok {
		if days >= 0 {
			dayScore = float64(days)
		} else {
			dayScore = overdueScore
		}
	}

	return math.Min(kmScore, dayScore)
}

func compareDone(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}
