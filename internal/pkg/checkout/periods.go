package checkout

import (
	"fmt"
	"time"

	"github.com/TobiasKrahl/Velora/app/models"
)

// Frequency is a provider billing-plan frequency: a unit plus how many units
// make up one billing cycle.
type Frequency struct {
	Unit     string
	Interval int
}

// FrequencyForPeriod maps a subscription period to its provider frequency.
// The mapping is total over the five supported periods; anything else is an
// error so a bad period can never silently bill at the wrong rate.
func FrequencyForPeriod(period string) (Frequency, error) {
	switch period {
	case models.PeriodWeekly:
		return Frequency{Unit: "WEEK", Interval: 1}, nil
	case models.PeriodMonthly:
		return Frequency{Unit: "MONTH", Interval: 1}, nil
	case models.PeriodQuarterly:
		return Frequency{Unit: "MONTH", Interval: 3}, nil
	case models.PeriodBiannually:
		return Frequency{Unit: "MONTH", Interval: 6}, nil
	case models.PeriodAnnually:
		return Frequency{Unit: "YEAR", Interval: 1}, nil
	default:
		return Frequency{}, fmt.Errorf("checkout: unsupported subscription period %q", period)
	}
}

// TrialCycles counts the whole billing cycles of f that fit between now and
// trialEnd. Used to size the zero-amount trial segment of a billing plan.
func TrialCycles(now, trialEnd time.Time, f Frequency) int {
	if !trialEnd.After(now) {
		return 0
	}

	cycles := 0
	at := advance(now, f)
	for !at.After(trialEnd) {
		cycles++
		at = advance(at, f)
	}
	return cycles
}

func advance(t time.Time, f Frequency) time.Time {
	switch f.Unit {
	case "WEEK":
		return t.AddDate(0, 0, 7*f.Interval)
	case "MONTH":
		return t.AddDate(0, f.Interval, 0)
	case "YEAR":
		return t.AddDate(f.Interval, 0, 0)
	default:
		return t.AddDate(0, f.Interval, 0)
	}
}
