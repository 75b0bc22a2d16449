// Package festival holds the festival datasets: Malaysian festivals for the
// browser and lunar festivals for the calendar.
package festival

import (
	"github.com/klabast/wb-services/festival-calendar/internal/i18n"
	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

// Category classifies a Malaysian festival.
type Category string

const (
	Religious Category = "religious"
	Cultural  Category = "cultural"
	National  Category = "national"
	Local     Category = "local"
	Notable   Category = "notable"
)

// Categories lists every category in display order.
var Categories = []Category{Religious, Cultural, National, Local, Notable}

// Region is a Malaysian region.
type Region string

const (
	Northern   Region = "northern"
	Central    Region = "central"
	Southern   Region = "southern"
	Eastern    Region = "eastern"
	Nationwide Region = "nationwide"
)

// Regions lists every region in display order.
var Regions = []Region{Northern, Central, Southern, Eastern, Nationwide}

// All selects every category or region in a Filter.
const All = "all"

// Date describes when a festival happens. Any field may be empty.
type Date struct {
	Fixed       string     `json:"fixed,omitempty"`
	Variable    *i18n.Text `json:"variable,omitempty"`
	CurrentYear string     `json:"currentYear,omitempty"` // YYYY-MM-DD
	Month       int        `json:"month,omitempty"`
}

// Link is a related article.
type Link struct {
	Title i18n.Text `json:"title"`
	URL   string    `json:"url"`
}

// Festival is a Malaysian festival record.
type Festival struct {
	ID           string      `json:"id"`
	Name         i18n.Text   `json:"name"`
	Description  i18n.Text   `json:"description"`
	Significance i18n.Text   `json:"significance"`
	Category     Category    `json:"category"`
	Regions      []Region    `json:"regions"`
	Date         Date        `json:"date"`
	ImageURL     string      `json:"imageUrl,omitempty"`
	VideoURL     string      `json:"videoUrl,omitempty"`
	Practices    []i18n.Text `json:"practices,omitempty"`
	RelatedLinks []Link      `json:"relatedLinks,omitempty"`
	Keywords     []i18n.Text `json:"keywords,omitempty"`
}

// InRegion reports whether f is celebrated in r. Nationwide festivals are
// celebrated everywhere.
func (f Festival) InRegion(r Region) bool {
	for _, fr := range f.Regions {
		if fr == r || fr == Nationwide {
			return true
		}
	}
	return false
}

// LunarType ranks a lunar festival.
type LunarType string

const (
	Major       LunarType = "major"
	Traditional LunarType = "traditional"
	Minor       LunarType = "minor"
)

// LunarSchedule places a lunar festival in the year.
type LunarSchedule struct {
	Lunar lunar.LunarDate `json:"lunar"`
}

// LunarFestival is a festival fixed to a lunar date.
type LunarFestival struct {
	ID           string        `json:"id"`
	Name         i18n.Text     `json:"name"`
	Date         LunarSchedule `json:"date"`
	Type         LunarType     `json:"type"`
	Description  i18n.Text     `json:"description"`
	Preparations []i18n.Text   `json:"preparations"`
}

// LunarDate returns the festival's date.
func (f LunarFestival) LunarDate() lunar.LunarDate {
	return f.Date.Lunar
}
