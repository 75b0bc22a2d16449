package lunar

import (
	"context"
	"fmt"
	"time"

	"github.com/6tail/lunar-go/calendar"
)

// knownDate is a solar date with a well known lunar date (Chinese New Year 2024).
var knownDate = struct {
	year, month, day int
	want             LunarDate
}{2024, 2, 10, LunarDate{Month: 1, Day: 1}}

// LunarGoLoader returns a Loader for the lunar-go backend. The loader checks a
// known conversion before handing the backend out.
func LunarGoLoader() Loader {
	return func(ctx context.Context) (Backend, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := lunarGo{}
		var got LunarDate
		err := guard("self-check", func() error {
			var err error
			got, err = b.SolarToLunar(knownDate.year, knownDate.month, knownDate.day)
			return err
		})
		if err != nil {
			return nil, err
		}
		if got != knownDate.want {
			return nil, fmt.Errorf("self-check %04d-%02d-%02d converted to %v, want %v",
				knownDate.year, knownDate.month, knownDate.day, got, knownDate.want)
		}
		return b, nil
	}
}

type lunarGo struct{}

func (lunarGo) SolarToLunar(year, month, day int) (LunarDate, error) {
	l := calendar.NewSolarFromYmd(year, month, day).GetLunar()
	m := l.GetMonth()
	// leap months come back negative
	if m < 0 {
		m = -m
	}
	return LunarDate{Month: m, Day: l.GetDay()}, nil
}

func (lunarGo) LunarToSolar(year, month, day int) (time.Time, error) {
	m := calendar.NewLunarYear(year).GetMonth(month)
	if m == nil {
		return time.Time{}, fmt.Errorf("no lunar month %d in %d", month, year)
	}
	if day < 1 || day > m.GetDayCount() {
		return time.Time{}, fmt.Errorf("lunar month %d of %d has %d days, got day %d", month, year, m.GetDayCount(), day)
	}
	s := calendar.NewLunarFromYmd(year, month, day).GetSolar()
	return time.Date(s.GetYear(), time.Month(s.GetMonth()), s.GetDay(), 0, 0, 0, 0, time.UTC), nil
}

func (lunarGo) DaysInMonth(year, month int) (int, error) {
	m := calendar.NewLunarYear(year).GetMonth(month)
	if m == nil {
		return 0, fmt.Errorf("no lunar month %d in %d", month, year)
	}
	return m.GetDayCount(), nil
}

// LeapMonth returns the ordinal of year's leap month, or 0 when it has none.
func (lunarGo) LeapMonth(year int) (int, error) {
	months := calendar.NewLunarYear(year).GetMonthsInYear()
	for e := months.Front(); e != nil; e = e.Next() {
		m, ok := e.Value.(*calendar.LunarMonth)
		if ok && m.IsLeap() {
			// leap months are numbered negative
			return -m.GetMonth(), nil
		}
	}
	return 0, nil
}
