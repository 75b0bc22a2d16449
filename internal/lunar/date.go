package lunar

import "fmt"

// LunarDate is a month/day within a lunar year. It carries no year: festivals
// and personal events recur every lunar year.
type LunarDate struct {
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Valid reports whether the date lies within 1..12 / 1..30.
func (d LunarDate) Valid() bool {
	return d.Month >= 1 && d.Month <= 12 && d.Day >= 1 && d.Day <= 30
}

// Before orders dates within a year.
func (d LunarDate) Before(o LunarDate) bool {
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d LunarDate) String() string {
	return fmt.Sprintf("%02d-%02d", d.Month, d.Day)
}

// IsSameDate reports whether a and b name the same month and day.
func IsSameDate(a, b LunarDate) bool {
	return a.Month == b.Month && a.Day == b.Day
}

// MonthDays returns the dates 1..days of month.
func MonthDays(month, days int) []LunarDate {
	out := make([]LunarDate, 0, days)
	for day := 1; day <= days; day++ {
		out = append(out, LunarDate{Month: month, Day: day})
	}
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
