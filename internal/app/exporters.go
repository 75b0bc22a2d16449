package app

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/klabast/wb-services/festival-calendar/internal/i18n"
	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

// Entry kinds.
const (
	KindFestival = "festival"
	KindEvent    = "event"
)

// Entry is one dated item of an export: a lunar festival or a personal event
// placed on its solar date.
type Entry struct {
	UID         string          `json:"uid"`
	Date        time.Time       `json:"-"`
	Day         string          `json:"date"`
	Lunar       lunar.LunarDate `json:"lunar"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Kind        string          `json:"kind"`
	Category    string          `json:"category"`
}

// calendarEntries collects the festivals and personal events whose solar date
// falls in year. Lunar years start in January or February, so the previous
// lunar year contributes its last weeks.
func (s *Server) calendarEntries(ctx context.Context, year int, lang i18n.Language) ([]Entry, error) {
	cal := s.lunar.Resolve(ctx)
	evs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	festivals := s.catalog.LunarFestivals()

	var entries []Entry
	add := func(e Entry) {
		if e.Date.Year() == year {
			e.Day = e.Date.Format(time.DateOnly)
			entries = append(entries, e)
		}
	}

	for _, ly := range []int{year - 1, year} {
		for _, f := range festivals {
			add(Entry{
				UID:         fmt.Sprintf("%s-%d@%s", f.ID, ly, ICSDomain),
				Date:        cal.LunarToSolar(f.Date.Lunar, ly),
				Lunar:       f.Date.Lunar,
				Title:       f.Name.Get(lang),
				Description: f.Description.Get(lang),
				Kind:        KindFestival,
				Category:    string(f.Type),
			})
		}
		for _, e := range evs {
			d := e.Date
			d.Day = min(d.Day, cal.DaysInLunarMonth(d.Month, ly))
			add(Entry{
				UID:         fmt.Sprintf("%s-%d@%s", e.ID, ly, ICSDomain),
				Date:        cal.LunarToSolar(d, ly),
				Lunar:       e.Date,
				Title:       e.Title,
				Description: e.Description,
				Kind:        KindEvent,
				Category:    string(e.Type),
			})
		}
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.UID, b.UID)
	})
	return entries, nil
}

// filterKinds keeps the entries whose kind is listed in the comma separated
// kinds. Empty keeps everything.
func filterKinds(entries []Entry, kinds string) []Entry {
	if kinds == "" {
		return entries
	}
	keep := map[string]bool{}
	for _, k := range strings.Split(kinds, ",") {
		keep[strings.TrimSpace(k)] = true
	}
	var out []Entry
	for _, e := range entries {
		if keep[e.Kind] {
			out = append(out, e)
		}
	}
	return out
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", s.lunar.Now().Year())
	if err != nil || !validYear(year) {
		writeError(w, http.StatusBadRequest, "INVALID_YEAR", "year must be between 1900 and 2100")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "ics"
	}
	if format != "ics" && format != "csv" && format != "json" {
		writeError(w, http.StatusBadRequest, "INVALID_FORMAT", "format must be ics, csv or json")
		return
	}

	lang := requestLanguage(r)
	entries, err := s.calendarEntries(r.Context(), year, lang)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "build export", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to build calendar")
		return
	}
	entries = filterKinds(entries, r.URL.Query().Get("kinds"))

	switch format {
	case "ics":
		GenerateICS(w, r, year, entries, s.lunar.Now())
	case "csv":
		GenerateCSV(w, year, entries)
	case "json":
		GenerateJSON(w, year, lang, entries)
	}
}

// subscribe serves the ICS feed for the previous, current and next year.
func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	now := s.lunar.Now()
	lang := requestLanguage(r)

	var entries []Entry
	for year := now.Year() - 1; year <= now.Year()+1; year++ {
		yearEntries, err := s.calendarEntries(r.Context(), year, lang)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "build subscription", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to build calendar")
			return
		}
		entries = append(entries, yearEntries...)
	}

	GenerateSubscriptionICS(w, filterKinds(entries, r.URL.Query().Get("kinds")), now)
}

// maxLineOctets is the content line limit of RFC 5545, excluding CRLF.
const maxLineOctets = 75

// icsLine writes one content line terminated by CRLF, folding it into
// continuation lines of at most 75 octets without splitting a UTF-8 sequence.
func icsLine(w io.Writer, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		fmt.Fprintf(w, "%s\r\n ", line[:cut])
		line = line[cut:]
		// the leading space counts against the limit
		limit = maxLineOctets - 1
	}
	fmt.Fprintf(w, "%s\r\n", line)
}

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

// escapeText escapes an ICS TEXT value.
func escapeText(s string) string {
	return icsEscaper.Replace(s)
}

func writeICSHeader(w io.Writer, name string) {
	icsLine(w, "BEGIN:VCALENDAR")
	icsLine(w, "VERSION:2.0")
	icsLine(w, "PRODID:%s", ICSProductID)
	icsLine(w, "X-WR-CALNAME:%s", escapeText(name))
	icsLine(w, "X-WR-TIMEZONE:%s", ICSTimezone)
	icsLine(w, "CALSCALE:GREGORIAN")
}

func writeICSEvent(w io.Writer, e Entry, stamp time.Time, alarms []Reminder) {
	icsLine(w, "BEGIN:VEVENT")
	icsLine(w, "UID:%s", e.UID)
	icsLine(w, "DTSTAMP:%s", stamp.UTC().Format("20060102T150405Z"))
	icsLine(w, "DTSTART;VALUE=DATE:%s", e.Date.Format("20060102"))
	icsLine(w, "DTEND;VALUE=DATE:%s", e.Date.AddDate(0, 0, 1).Format("20060102"))
	icsLine(w, "SUMMARY:%s", escapeText(e.Title))
	if e.Description != "" {
		icsLine(w, "DESCRIPTION:%s", escapeText(e.Description))
	}
	icsLine(w, "CATEGORIES:%s", escapeText(e.Category))
	for _, a := range alarms {
		AddAlarm(w, e.Date, a.DaysBefore, a.Time, e.Title)
	}
	icsLine(w, "END:VEVENT")
}

// Reminder asks for an alarm at Time (HH:MM) DaysBefore days ahead of an entry.
type Reminder struct {
	DaysBefore int
	Time       string
}

// parseReminders reads reminder2Days/time2Days, reminder1Day/time1Day and
// reminderSameDay/timeSameDay.
func parseReminders(r *http.Request) []Reminder {
	q := r.URL.Query()
	var out []Reminder
	for _, opt := range []struct {
		flag, time string
		days       int
	}{
		{"reminder2Days", "time2Days", 2},
		{"reminder1Day", "time1Day", 1},
		{"reminderSameDay", "timeSameDay", 0},
	} {
		if q.Get(opt.flag) == "true" && q.Get(opt.time) != "" {
			out = append(out, Reminder{DaysBefore: opt.days, Time: q.Get(opt.time)})
		}
	}
	return out
}

// GenerateICS writes an iCalendar download with optional reminders.
func GenerateICS(w http.ResponseWriter, r *http.Request, year int, entries []Entry, stamp time.Time) {
	alarms := parseReminders(r)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=festival-calendar_%d.ics", year))

	writeICSHeader(w, fmt.Sprintf("Festival Calendar %d", year))
	for _, e := range entries {
		writeICSEvent(w, e, stamp, alarms)
	}
	icsLine(w, "END:VCALENDAR")
}

// AddAlarm adds a VALARM firing at alarmTime (HH:MM) daysBefore days ahead of
// an all-day event on eventDate. Malformed times add nothing.
func AddAlarm(w io.Writer, eventDate time.Time, daysBefore int, alarmTime string, description string) {
	parts := strings.Split(alarmTime, ":")
	if len(parts) != 2 {
		return
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return
	}

	alarmDate := eventDate.AddDate(0, 0, -daysBefore)
	alarmDateTime := time.Date(alarmDate.Year(), alarmDate.Month(), alarmDate.Day(), hour, minute, 0, 0, time.UTC)
	eventStart := time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 0, 0, 0, 0, time.UTC)

	totalMinutes := int(alarmDateTime.Sub(eventStart).Minutes())
	sign := ""
	if totalMinutes < 0 {
		sign = "-"
		totalMinutes = -totalMinutes
	}
	days := totalMinutes / (24 * 60)
	hours := totalMinutes % (24 * 60) / 60
	minutes := totalMinutes % 60

	icsLine(w, "BEGIN:VALARM")
	icsLine(w, "ACTION:DISPLAY")
	icsLine(w, "DESCRIPTION:Reminder: %s", escapeText(description))
	icsLine(w, "TRIGGER:%sP%dDT%dH%dM", sign, days, hours, minutes)
	icsLine(w, "END:VALARM")
}

// GenerateCSV writes the entries as CSV.
func GenerateCSV(w http.ResponseWriter, year int, entries []Entry) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=festival-calendar_%d.csv", year))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Date", "Lunar Date", "Title", "Kind", "Category", "Description"})
	for _, e := range entries {
		_ = cw.Write([]string{e.Day, e.Lunar.String(), e.Title, e.Kind, e.Category, e.Description})
	}
	cw.Flush()
}

// GenerateJSON writes the entries as a JSON document.
func GenerateJSON(w http.ResponseWriter, year int, lang i18n.Language, entries []Entry) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=festival-calendar_%d.json", year))

	_ = json.NewEncoder(w).Encode(map[string]any{
		"year":     year,
		"language": lang,
		"entries":  nonNil(entries),
	})
}

// GenerateSubscriptionICS writes an iCalendar subscription feed. Unlike
// GenerateICS it is served inline, carries METHOD:PUBLISH with a refresh
// interval, and has no alarms.
func GenerateSubscriptionICS(w http.ResponseWriter, entries []Entry, stamp time.Time) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")

	icsLine(w, "BEGIN:VCALENDAR")
	icsLine(w, "VERSION:2.0")
	icsLine(w, "PRODID:%s", ICSProductID)
	icsLine(w, "METHOD:PUBLISH")
	icsLine(w, "X-WR-CALNAME:Festival Calendar")
	icsLine(w, "X-WR-TIMEZONE:%s", ICSTimezone)
	icsLine(w, "CALSCALE:GREGORIAN")
	icsLine(w, "X-PUBLISHED-TTL:PT1H")
	for _, e := range entries {
		writeICSEvent(w, e, stamp, nil)
	}
	icsLine(w, "END:VCALENDAR")
}
