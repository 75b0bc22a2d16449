package festival

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/klabast/wb-services/festival-calendar/internal/i18n"
	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

// Filter narrows the festival list. Empty or "all" category/region match
// everything; Query is a case-insensitive substring over every language of
// the name, description and keywords.
type Filter struct {
	Category string
	Region   string
	Query    string
}

// Apply returns the festivals matching f, in input order.
func Apply(festivals []Festival, f Filter) []Festival {
	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(f.Query))

	out := make([]Festival, 0, len(festivals))
	for _, fest := range festivals {
		if f.Category != "" && f.Category != All && string(fest.Category) != f.Category {
			continue
		}
		if f.Region != "" && f.Region != All && !fest.InRegion(Region(f.Region)) {
			continue
		}
		if query != "" && !matches(fold, fest, query) {
			continue
		}
		out = append(out, fest)
	}
	return out
}

func matches(fold cases.Caser, f Festival, query string) bool {
	texts := append(f.Name.All(), f.Description.All()...)
	for _, kw := range f.Keywords {
		texts = append(texts, kw.All()...)
	}
	for _, s := range texts {
		if strings.Contains(fold.String(s), query) {
			return true
		}
	}
	return false
}

// SortByDate orders festivals by month. Festivals without a month sort as
// December; ties keep input order.
func SortByDate(festivals []Festival) []Festival {
	out := slices.Clone(festivals)
	slices.SortStableFunc(out, func(a, b Festival) int {
		return sortMonth(a) - sortMonth(b)
	})
	return out
}

func sortMonth(f Festival) int {
	if f.Date.Month == 0 {
		return 12
	}
	return f.Date.Month
}

// ByID finds a festival.
func ByID(festivals []Festival, id string) (Festival, bool) {
	for _, f := range festivals {
		if f.ID == id {
			return f, true
		}
	}
	return Festival{}, false
}

// ByCategory returns the festivals of a category; "all" returns every one.
func ByCategory(festivals []Festival, category string) []Festival {
	return Apply(festivals, Filter{Category: category})
}

// ByRegion returns the festivals celebrated in a region; "all" returns every one.
func ByRegion(festivals []Festival, region string) []Festival {
	return Apply(festivals, Filter{Region: region})
}

// Upcoming returns festivals later in the year than now: a later month, or
// the current month with a current-year date not yet passed.
func Upcoming(festivals []Festival, now time.Time) []Festival {
	month := int(now.Month())
	var out []Festival
	for _, f := range festivals {
		switch {
		case f.Date.Month == 0:
		case f.Date.Month > month:
			out = append(out, f)
		case f.Date.Month == month && f.Date.CurrentYear != "":
			d, err := time.Parse(time.DateOnly, f.Date.CurrentYear)
			if err == nil && !d.Before(now) {
				out = append(out, f)
			}
		}
	}
	return out
}

// FormatDate renders a festival's date for display.
func FormatDate(f Festival, lang i18n.Language) string {
	if f.Date.Fixed != "" {
		return f.Date.Fixed
	}
	if f.Date.Variable != nil {
		return f.Date.Variable.Get(lang)
	}
	if f.Date.CurrentYear != "" {
		if d, err := time.Parse(time.DateOnly, f.Date.CurrentYear); err == nil {
			return formatLocalDate(d, lang)
		}
	}
	return "Date TBD"
}

func formatLocalDate(d time.Time, lang i18n.Language) string {
	y, m, day := d.Date()
	switch lang {
	case i18n.Chinese, i18n.Japanese:
		return fmt.Sprintf("%d/%d/%d", y, m, day)
	case i18n.Malay:
		return fmt.Sprintf("%d/%d/%d", day, m, y)
	default:
		return fmt.Sprintf("%d/%d/%d", m, day, y)
	}
}

// LunarOn returns the lunar festivals falling on d.
func LunarOn(festivals []LunarFestival, d lunar.LunarDate) []LunarFestival {
	var out []LunarFestival
	for _, f := range festivals {
		if lunar.IsSameDate(f.Date.Lunar, d) {
			out = append(out, f)
		}
	}
	return out
}

// LunarInMonth returns the lunar festivals of a month, ordered by day.
func LunarInMonth(festivals []LunarFestival, month int) []LunarFestival {
	var out []LunarFestival
	for _, f := range festivals {
		if f.Date.Lunar.Month == month {
			out = append(out, f)
		}
	}
	slices.SortStableFunc(out, func(a, b LunarFestival) int {
		return a.Date.Lunar.Day - b.Date.Lunar.Day
	})
	return out
}

// Statistics summarises a festival list. A festival counts once for every
// region it lists.
type Statistics struct {
	Total      int              `json:"total"`
	Categories map[Category]int `json:"categories"`
	Regions    map[Region]int   `json:"regions"`
}

// Stats counts festivals per category and per region.
func Stats(festivals []Festival) Statistics {
	st := Statistics{
		Total:      len(festivals),
		Categories: make(map[Category]int),
		Regions:    make(map[Region]int),
	}
	for _, f := range festivals {
		st.Categories[f.Category]++
		for _, r := range f.Regions {
			st.Regions[r]++
		}
	}
	return st
}
