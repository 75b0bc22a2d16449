package app

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/klabast/wb-services/festival-calendar/internal/events"
	"github.com/klabast/wb-services/festival-calendar/internal/festival"
	"github.com/klabast/wb-services/festival-calendar/internal/i18n"
	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

// lunarDay is the API view of one lunar date.
type lunarDay struct {
	Lunar     lunar.LunarDate          `json:"lunar"`
	Solar     string                   `json:"solar"`
	MonthName string                   `json:"monthName"`
	DayName   string                   `json:"dayName"`
	Formatted string                   `json:"formatted"`
	Festivals []festival.LunarFestival `json:"festivals"`
	Events    []events.Event           `json:"events,omitempty"`
}

func (s *Server) describe(d lunar.LunarDate, solar time.Time, lang i18n.Language) lunarDay {
	return lunarDay{
		Lunar:     d,
		Solar:     solar.Format(time.DateOnly),
		MonthName: lunar.MonthName(d.Month, lang),
		DayName:   lunar.DayName(d.Day, lang),
		Formatted: lunar.Format(d, lang),
		Festivals: nonNil(s.catalog.LunarFestivalsOn(d)),
	}
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"mode":   s.lunar.Mode().String(),
	})
}

// getConfig returns the settings the UI needs to render.
func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := requestLanguage(r)
	year := s.lunar.Now().Year()
	_, changeset := s.store.(events.Changeset)
	writeJSON(w, http.StatusOK, map[string]any{
		"languages":    i18n.Supported,
		"language":     lang,
		"categories":   festival.Categories,
		"regions":      festival.Regions,
		"epochYear":    s.lunar.EpochYear(),
		"mode":         s.lunar.Resolve(ctx).Mode().String(),
		"today":        s.lunar.CurrentLunarDate(ctx),
		"currentYear":  year,
		"holidays":     holidayNames(PublicHolidays(ctx, s.lunar, year), lang),
		"authRequired": s.auth.Enabled(),
		"staging":      changeset,
		"stats":        festival.Stats(s.catalog.Festivals()),
	})
}

func (s *Server) listHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", s.lunar.Now().Year())
	if err != nil || !validYear(year) {
		writeError(w, http.StatusBadRequest, "INVALID_YEAR", "year must be between 1900 and 2100")
		return
	}
	writeJSON(w, http.StatusOK, PublicHolidays(r.Context(), s.lunar, year))
}

func (s *Server) lunarToday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.lunar.Now()
	d := s.lunar.CurrentLunarDate(ctx)
	writeJSON(w, http.StatusOK, s.withEvents(ctx, s.describe(d, now, requestLanguage(r))))
}

func (s *Server) lunarConvert(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	solar, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DATE", "date must be YYYY-MM-DD")
		return
	}
	ctx := r.Context()
	d := s.lunar.SolarToLunar(ctx, solar)
	writeJSON(w, http.StatusOK, s.withEvents(ctx, s.describe(d, solar, requestLanguage(r))))
}

func (s *Server) lunarToSolar(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MONTH", err.Error())
		return
	}
	day, err := intParam(r, "day", 0)
	if err != nil || day < 1 || day > 30 {
		writeError(w, http.StatusBadRequest, "INVALID_DAY", "day must be between 1 and 30")
		return
	}
	year, err := intParam(r, "year", s.lunar.Now().Year())
	if err != nil || !validYear(year) {
		writeError(w, http.StatusBadRequest, "INVALID_YEAR", "year must be between 1900 and 2100")
		return
	}

	d := lunar.LunarDate{Month: month, Day: day}
	solar := s.lunar.LunarToSolar(r.Context(), d, year)
	writeJSON(w, http.StatusOK, map[string]any{
		"lunar": d,
		"year":  year,
		"solar": solar.Format(time.DateOnly),
	})
}

// lunarMonth renders one lunar month as a grid of days with their festivals
// and personal events.
func (s *Server) lunarMonth(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MONTH", err.Error())
		return
	}
	year, err := intParam(r, "year", s.lunar.Now().Year())
	if err != nil || !validYear(year) {
		writeError(w, http.StatusBadRequest, "INVALID_YEAR", "year must be between 1900 and 2100")
		return
	}

	ctx := r.Context()
	lang := requestLanguage(r)
	cal := s.lunar.Resolve(ctx)
	all, err := s.store.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list events", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load events")
		return
	}

	count := cal.DaysInLunarMonth(month, year)
	days := make([]lunarDay, 0, count)
	for _, d := range lunar.MonthDays(month, count) {
		day := s.describe(d, cal.LunarToSolar(d, year), lang)
		day.Events = events.On(all, d)
		days = append(days, day)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"month":  month,
		"year":   year,
		"name":   lunar.MonthName(month, lang),
		"isLeap": cal.IsLeapMonth(month, year),
		"days":   days,
	})
}

func (s *Server) withEvents(ctx context.Context, day lunarDay) lunarDay {
	evs, err := s.store.ListOn(ctx, day.Lunar)
	if err != nil {
		s.logger.WarnContext(ctx, "list events for date", "date", day.Lunar.String(), "error", err)
		return day
	}
	day.Events = evs
	return day
}

// festivalView adds the localized display fields to a festival.
type festivalView struct {
	festival.Festival
	DisplayName string `json:"displayName"`
	DisplayDate string `json:"displayDate"`
}

func festivalViews(fs []festival.Festival, lang i18n.Language) []festivalView {
	out := make([]festivalView, 0, len(fs))
	for _, f := range fs {
		out = append(out, festivalView{
			Festival:    f,
			DisplayName: f.Name.Get(lang),
			DisplayDate: festival.FormatDate(f, lang),
		})
	}
	return out
}

func (s *Server) listFestivals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	all := s.catalog.Festivals()
	filtered := festival.Apply(all, festival.Filter{
		Category: q.Get("category"),
		Region:   q.Get("region"),
		Query:    q.Get("q"),
	})
	w.Header().Set("X-Total-Count", strconv.Itoa(len(all)))
	writeJSON(w, http.StatusOK, festivalViews(festival.SortByDate(filtered), requestLanguage(r)))
}

func (s *Server) upcomingFestivals(w http.ResponseWriter, r *http.Request) {
	upcoming := festival.Upcoming(festival.SortByDate(s.catalog.Festivals()), s.lunar.Now())
	writeJSON(w, http.StatusOK, festivalViews(upcoming, requestLanguage(r)))
}

func (s *Server) getFestival(w http.ResponseWriter, r *http.Request) {
	f, ok := s.catalog.Festival(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "festival not found")
		return
	}
	writeJSON(w, http.StatusOK, festivalViews([]festival.Festival{f}, requestLanguage(r))[0])
}

func (s *Server) listLunarFestivals(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		writeJSON(w, http.StatusOK, nonNil(s.catalog.LunarFestivals()))
		return
	}
	month, err := parseMonth(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MONTH", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.catalog.LunarFestivalsIn(month)))
}
