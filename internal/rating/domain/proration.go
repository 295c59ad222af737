package domain

import (
	"time"

	billingcycledomain "github.com/smallbiznis/billingengine/internal/billingcycle/domain"
	"github.com/smallbiznis/billingengine/internal/config"
	"github.com/smallbiznis/billingengine/pkg/money"
)

// CycleLengthDays returns the nominal length of a billing cycle. Quarterly,
// semi-annual and annual cycles use fixed approximations. Monthly and unknown
// cycles use the number of days in the UTC calendar month of periodStart.
func CycleLengthDays(cycle string, periodStart time.Time) int {
	switch cycle {
	case config.CycleWeekly:
		return 7
	case config.CycleBiWeekly:
		return 14
	case config.CycleQuarterly:
		return 91
	case config.CycleSemiAnnually:
		return 182
	case config.CycleAnnually:
		return 365
	default:
		return daysInMonth(periodStart.UTC())
	}
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// CalendarDaysBetween counts calendar-date boundaries from start to end as
// observed in loc, ignoring the time of day.
func CalendarDaysBetween(end, start time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	e := end.In(loc)
	s := start.In(loc)
	endDate := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)
	startDate := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	return int(endDate.Sub(startDate).Hours() / 24)
}

// ProrationFactor is the share of a cycle covered from the later of
// planStart and the period start up to the period end.
func ProrationFactor(period billingcycledomain.Period, planStart time.Time, cycle string, loc *time.Location) float64 {
	effectiveStart := period.Start
	if planStart.After(effectiveStart) {
		effectiveStart = planStart
	}
	actualDays := CalendarDaysBetween(period.End, effectiveStart, loc)
	return float64(actualDays) / float64(CycleLengthDays(cycle, period.Start))
}

// Prorate scales fixed charges to the covered share of the cycle. Each total
// becomes ceil(ceil(total) * factor); fixed totals are already ceiled when
// calculated. Inputs are not modified.
func Prorate(charges []FixedCharge, period billingcycledomain.Period, planStart time.Time, cycle string, loc *time.Location) []FixedCharge {
	if len(charges) == 0 {
		return nil
	}
	factor := ProrationFactor(period, planStart, cycle, loc)
	out := make([]FixedCharge, len(charges))
	for i, charge := range charges {
		charge.Total = money.Ceil(float64(charge.Total) * factor)
		out[i] = charge
	}
	return out
}
