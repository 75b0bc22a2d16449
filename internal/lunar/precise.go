package lunar

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Backend is an exact calendar calculation capability. All calls take an
// explicit lunar or solar year. Implementations may return errors or panic;
// callers in this package recover both.
type Backend interface {
	SolarToLunar(year, month, day int) (LunarDate, error)
	LunarToSolar(year, month, day int) (time.Time, error)
	DaysInMonth(year, month int) (int, error)
	LeapMonth(year int) (int, error)
}

// Loader acquires a Backend. It is called at most once per Service.
type Loader func(ctx context.Context) (Backend, error)

// precise delegates to a Backend and answers a failed call with the
// approximation for that call only.
type precise struct {
	backend  Backend
	fallback approximate
	logger   *slog.Logger
}

func (*precise) Mode() Mode { return ModePrecise }

func (p *precise) CurrentLunarDate() LunarDate {
	return p.SolarToLunar(p.fallback.now())
}

func (p *precise) SolarToLunar(t time.Time) LunarDate {
	y, m, d := t.Date()
	var out LunarDate
	err := guard("solar to lunar", func() error {
		var err error
		out, err = p.backend.SolarToLunar(y, int(m), d)
		if err == nil && !out.Valid() {
			err = fmt.Errorf("backend returned %v", out)
		}
		return err
	})
	if err != nil {
		p.degraded(err, "date", t.Format(time.DateOnly))
		return p.fallback.SolarToLunar(t)
	}
	return out
}

func (p *precise) LunarToSolar(d LunarDate, year int) time.Time {
	year = p.fallback.year(year)
	var out time.Time
	err := guard("lunar to solar", func() error {
		var err error
		out, err = p.backend.LunarToSolar(year, d.Month, d.Day)
		return err
	})
	if err != nil {
		p.degraded(err, "lunar_date", d.String(), "year", year)
		return p.fallback.LunarToSolar(d, year)
	}
	return out
}

func (p *precise) DaysInLunarMonth(month, year int) int {
	year = p.fallback.year(year)
	var days int
	err := guard("days in month", func() error {
		var err error
		days, err = p.backend.DaysInMonth(year, month)
		return err
	})
	if err != nil {
		p.degraded(err, "month", month, "year", year)
		return p.fallback.DaysInLunarMonth(month, year)
	}
	return days
}

func (p *precise) IsLeapMonth(month, year int) bool {
	year = p.fallback.year(year)
	var leap int
	err := guard("leap month", func() error {
		var err error
		leap, err = p.backend.LeapMonth(year)
		return err
	})
	if err != nil {
		p.degraded(err, "month", month, "year", year)
		return false
	}
	return leap == month
}

func (p *precise) degraded(err error, attrs ...any) {
	p.logger.Warn("lunar backend call failed, using approximation",
		append(attrs, "error", err)...)
}

// guard runs fn and turns both a returned error and a panic into an
// ErrConversion.
func guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", ErrConversion, op, r)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConversion, op, err)
	}
	return nil
}
