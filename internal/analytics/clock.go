package analytics

import "time"

// Clock supplies the current time. Engine functions never read wall time
// directly so results are reproducible in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reports time.Now in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Period bounds a computation. A zero Start or End leaves that side unbounded.
type Period struct {
	Start time.Time
	End   time.Time
}

// AllTime is the unbounded period.
var AllTime = Period{}

// Contains reports whether t falls inside the period, inclusive on both ends.
func (p Period) Contains(t time.Time) bool {
	if !p.Start.IsZero() && t.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && t.After(p.End) {
		return false
	}
	return true
}

// MonthsBack returns the period starting months calendar months before now and
// ending at now. Zero or negative months yields AllTime.
func MonthsBack(now time.Time, months int) Period {
	if months <= 0 {
		return AllTime
	}
	return Period{Start: now.AddDate(0, -months, 0), End: now}
}

func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
