// Package lunar converts between solar (Gregorian) dates and lunar calendar
// dates.
//
// A Service resolves, once, one of two Calendar variants: a precise one backed
// by an astronomical calendar library, or an approximate one that assumes
// 29.5-day months counted from January 1 of a fixed epoch year. Every
// operation is total: backend failures degrade to the approximation.
package lunar

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrBackendUnavailable is recorded when the precise backend cannot be
	// acquired. The service then stays in approximate mode.
	ErrBackendUnavailable = errors.New("precise lunar backend unavailable")

	// ErrConversion wraps a single failed backend call.
	ErrConversion = errors.New("lunar conversion failed")
)

// DefaultEpochYear is the reference year of the approximate model.
const DefaultEpochYear = 2024

// Mode tells which Calendar variant a Service resolved to.
type Mode int

const (
	ModeUninitialized Mode = iota
	ModePrecise
	ModeApproximate
)

func (m Mode) String() string {
	switch m {
	case ModePrecise:
		return "precise"
	case ModeApproximate:
		return "approximate"
	default:
		return "uninitialized"
	}
}

// Calendar is the capability set shared by both variants. A year of 0 means
// the current year.
type Calendar interface {
	Mode() Mode
	CurrentLunarDate() LunarDate
	SolarToLunar(t time.Time) LunarDate
	LunarToSolar(d LunarDate, year int) time.Time
	DaysInLunarMonth(month, year int) int
	IsLeapMonth(month, year int) bool
}

// approximate is the closed-form fallback. Days are numbered with a mod 29
// formula next to the 29.5 day month length, so the two drift apart within a
// year and day 30 never comes out of SolarToLunar.
type approximate struct {
	epoch time.Time
	now   func() time.Time
}

func newApproximate(epochYear int, now func() time.Time) approximate {
	return approximate{
		epoch: time.Date(epochYear, time.January, 1, 0, 0, 0, 0, time.UTC),
		now:   now,
	}
}

func (approximate) Mode() Mode { return ModeApproximate }

func (a approximate) CurrentLunarDate() LunarDate {
	return a.SolarToLunar(a.now())
}

func (a approximate) SolarToLunar(t time.Time) LunarDate {
	diffDays := (civilDate(t).Unix() - a.epoch.Unix()) / secondsPerDay

	month := int(math.Floor(float64(diffDays)/29.5)) + 1
	day := int(diffDays%29) + 1

	return LunarDate{
		Month: clamp(month, 1, 12),
		Day:   clamp(day, 1, 30),
	}
}

func (a approximate) LunarToSolar(d LunarDate, year int) time.Time {
	base := time.Date(a.year(year), time.January, 1, 0, 0, 0, 0, time.UTC)
	approxDays := float64(d.Month-1)*29.5 + float64(d.Day)
	return base.AddDate(0, 0, int(approxDays))
}

func (approximate) DaysInLunarMonth(month, _ int) int {
	if month%2 == 1 {
		return 30
	}
	return 29
}

func (approximate) IsLeapMonth(int, int) bool { return false }

func (a approximate) year(year int) int {
	if year == 0 {
		return a.now().Year()
	}
	return year
}

const secondsPerDay = 24 * 60 * 60

// civilDate drops the clock and zone of t, keeping its calendar date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
