package app

import (
	"context"
	"slices"
	"time"

	"github.com/klabast/wb-services/festival-calendar/internal/festival"
	"github.com/klabast/wb-services/festival-calendar/internal/i18n"
	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

// Holiday is a public holiday on a solar date.
type Holiday struct {
	Date    string            `json:"date"`
	Name    i18n.Text         `json:"name"`
	Regions []festival.Region `json:"regions"`
}

var nationwide = []festival.Region{festival.Nationwide}

// PublicHolidays returns the Malaysian public holidays of year that follow
// the Gregorian or Chinese calendar, ordered by date. Holidays on the Islamic
// and Hindu calendars are announced yearly and are not computed.
func PublicHolidays(ctx context.Context, svc *lunar.Service, year int) []Holiday {
	holidays := []Holiday{
		{Date: formatDate(year, 1, 1), Name: i18n.Text{EN: "New Year's Day", ZH: "元旦", MS: "Tahun Baru", JA: "元日"}, Regions: []festival.Region{festival.Central, festival.Southern, festival.Eastern}},
		{Date: formatDate(year, 5, 1), Name: i18n.Text{EN: "Labour Day", ZH: "劳动节", MS: "Hari Pekerja", JA: "メーデー"}, Regions: nationwide},
		{Date: formatDate(year, 8, 31), Name: i18n.Text{EN: "National Day", ZH: "国庆日", MS: "Hari Kebangsaan", JA: "独立記念日"}, Regions: nationwide},
		{Date: formatDate(year, 9, 16), Name: i18n.Text{EN: "Malaysia Day", ZH: "马来西亚日", MS: "Hari Malaysia", JA: "マレーシア・デー"}, Regions: nationwide},
		{Date: formatDate(year, 12, 25), Name: i18n.Text{EN: "Christmas Day", ZH: "圣诞节", MS: "Hari Krismas", JA: "クリスマス"}, Regions: nationwide},
	}

	// Good Friday (Easter - 2 days) in Sabah and Sarawak
	easter := calculateEaster(year)
	holidays = append(holidays, Holiday{
		Date:    formatDateFromTime(easter.AddDate(0, 0, -2)),
		Name:    i18n.Text{EN: "Good Friday", ZH: "耶稣受难日", MS: "Jumaat Agung", JA: "聖金曜日"},
		Regions: []festival.Region{festival.Eastern},
	})

	// Chinese New Year, first and second day of the first lunar month
	for day := 1; day <= 2; day++ {
		d := svc.LunarToSolar(ctx, lunar.LunarDate{Month: 1, Day: day}, year)
		holidays = append(holidays, Holiday{
			Date:    formatDateFromTime(d),
			Name:    i18n.Text{EN: "Chinese New Year", ZH: "农历新年", MS: "Tahun Baru Cina", JA: "春節"},
			Regions: nationwide,
		})
	}

	slices.SortStableFunc(holidays, func(a, b Holiday) int {
		switch {
		case a.Date < b.Date:
			return -1
		case a.Date > b.Date:
			return 1
		}
		return 0
	})
	return holidays
}

// holidayNames maps each holiday date to its localized name.
func holidayNames(holidays []Holiday, lang i18n.Language) map[string]string {
	out := make(map[string]string, len(holidays))
	for _, h := range holidays {
		out[h.Date] = h.Name.Get(lang)
	}
	return out
}

// calculateEaster calculates Easter Sunday using the Meeus/Jones/Butcher algorithm
func calculateEaster(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	// noon keeps the date stable across time zones
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
}

func formatDate(year, month, day int) string {
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC).Format(time.DateOnly)
}

func formatDateFromTime(t time.Time) string {
	return t.Format(time.DateOnly)
}
