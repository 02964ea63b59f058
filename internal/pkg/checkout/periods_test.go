package checkout

import (
	"testing"
	"time"

	"github.com/TobiasKrahl/Velora/app/models"
)

func TestFrequencyForPeriod(t *testing.T) {
	tests := []struct {
		in           string
		wantUnit     string
		wantInterval int
	}{
		{in: models.PeriodWeekly, wantUnit: "WEEK", wantInterval: 1},
		{in: models.PeriodMonthly, wantUnit: "MONTH", wantInterval: 1},
		{in: models.PeriodQuarterly, wantUnit: "MONTH", wantInterval: 3},
		{in: models.PeriodBiannually, wantUnit: "MONTH", wantInterval: 6},
		{in: models.PeriodAnnually, wantUnit: "YEAR", wantInterval: 1},
	}

	for _, tt := range tests {
		got, err := FrequencyForPeriod(tt.in)
		if err != nil {
			t.Fatalf("FrequencyForPeriod(%q) returned error: %v", tt.in, err)
		}
		if got.Unit != tt.wantUnit || got.Interval != tt.wantInterval {
			t.Fatalf("FrequencyForPeriod(%q) = %+v, want {%s %d}", tt.in, got, tt.wantUnit, tt.wantInterval)
		}
	}
}

func TestFrequencyForPeriodUnknown(t *testing.T) {
	for _, in := range []string{"", "daily", "Monthly", "bimonthly"} {
		if _, err := FrequencyForPeriod(in); err == nil {
			t.Fatalf("FrequencyForPeriod(%q) did not fail", in)
		}
	}
}

func TestTrialCycles(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	monthly := Frequency{Unit: "MONTH", Interval: 1}
	weekly := Frequency{Unit: "WEEK", Interval: 1}

	tests := []struct {
		name string
		end  time.Time
		freq Frequency
		want int
	}{
		{name: "no trial when end before now", end: now.AddDate(0, 0, -1), freq: monthly, want: 0},
		{name: "no trial when end equals now", end: now, freq: monthly, want: 0},
		{name: "partial cycle rounds down", end: now.AddDate(0, 0, 20), freq: monthly, want: 0},
		{name: "exactly one month", end: now.AddDate(0, 1, 0), freq: monthly, want: 1},
		{name: "three months", end: now.AddDate(0, 3, 0), freq: monthly, want: 3},
		{name: "two weeks", end: now.AddDate(0, 0, 14), freq: weekly, want: 2},
	}

	for _, tt := range tests {
		if got := TrialCycles(now, tt.end, tt.freq); got != tt.want {
			t.Fatalf("%s: TrialCycles = %d, want %d", tt.name, got, tt.want)
		}
	}
}
