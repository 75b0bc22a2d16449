package lunar

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const acquireKey = "backend"

// Options configures a Service.
type Options struct {
	// Loader acquires the precise backend. Nil means approximate mode.
	Loader Loader
	// EpochYear is the reference year of the approximation.
	EpochYear int
	// Now overrides the wall clock.
	Now    func() time.Time
	Logger *slog.Logger
}

// Service is the lunar date service. It resolves its Calendar on first use,
// coalescing concurrent first users onto one acquisition, and keeps the
// result for its lifetime.
type Service struct {
	loader Loader
	approx approximate
	logger *slog.Logger

	group    singleflight.Group
	resolved atomic.Pointer[resolution]
}

type resolution struct {
	cal Calendar
}

// NewService creates an unresolved Service.
func NewService(opts Options) *Service {
	if opts.EpochYear == 0 {
		opts.EpochYear = DefaultEpochYear
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		loader: opts.Loader,
		approx: newApproximate(opts.EpochYear, opts.Now),
		logger: opts.Logger.With("component", "lunar"),
	}
}

// Resolve returns the Calendar, acquiring the backend on the first call. A
// caller whose ctx ends before acquisition finishes gets the approximation;
// the acquisition itself carries on and is cached.
func (s *Service) Resolve(ctx context.Context) Calendar {
	if r := s.resolved.Load(); r != nil {
		return r.cal
	}
	ch := s.group.DoChan(acquireKey, func() (any, error) {
		if r := s.resolved.Load(); r != nil {
			return r, nil
		}
		r := &resolution{cal: s.acquire(context.WithoutCancel(ctx))}
		s.resolved.Store(r)
		return r, nil
	})
	select {
	case res := <-ch:
		return res.Val.(*resolution).cal
	case <-ctx.Done():
		return s.approx
	}
}

// Snapshot returns the resolved Calendar without waiting. Before resolution
// completes it returns the approximation.
func (s *Service) Snapshot() Calendar {
	if r := s.resolved.Load(); r != nil {
		return r.cal
	}
	return s.approx
}

// Mode reports the resolved variant, or ModeUninitialized.
func (s *Service) Mode() Mode {
	if r := s.resolved.Load(); r != nil {
		return r.cal.Mode()
	}
	return ModeUninitialized
}

// EpochYear is the approximation's reference year.
func (s *Service) EpochYear() int {
	return s.approx.epoch.Year()
}

// Now is the service clock.
func (s *Service) Now() time.Time {
	return s.approx.now()
}

func (s *Service) acquire(ctx context.Context) Calendar {
	if s.loader == nil {
		s.logger.Info("no precise lunar backend configured, using approximation")
		return s.approx
	}
	backend, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("lunar backend unavailable, using approximation", "error", err)
		return s.approx
	}
	s.logger.Info("precise lunar backend loaded")
	return &precise{backend: backend, fallback: s.approx, logger: s.logger}
}

func (s *Service) load(ctx context.Context) (backend Backend, err error) {
	defer func() {
		if r := recover(); r != nil {
			backend, err = nil, fmt.Errorf("%w: panic: %v", ErrBackendUnavailable, r)
		}
	}()
	backend, err = s.loader(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	if backend == nil {
		return nil, ErrBackendUnavailable
	}
	return backend, nil
}

// CurrentLunarDate converts today's date.
func (s *Service) CurrentLunarDate(ctx context.Context) LunarDate {
	return s.Resolve(ctx).CurrentLunarDate()
}

// SolarToLunar converts a solar date.
func (s *Service) SolarToLunar(ctx context.Context, t time.Time) LunarDate {
	return s.Resolve(ctx).SolarToLunar(t)
}

// LunarToSolar converts d in the given lunar year (0 for the current year).
func (s *Service) LunarToSolar(ctx context.Context, d LunarDate, year int) time.Time {
	return s.Resolve(ctx).LunarToSolar(d, year)
}

// DaysInLunarMonth returns 29 or 30.
func (s *Service) DaysInLunarMonth(ctx context.Context, month, year int) int {
	return s.Resolve(ctx).DaysInLunarMonth(month, year)
}

// IsLeapMonth reports whether month is the intercalary month of year.
func (s *Service) IsLeapMonth(ctx context.Context, month, year int) bool {
	return s.Resolve(ctx).IsLeapMonth(month, year)
}
