package lunar

import (
	"strconv"

	"github.com/klabast/wb-services/festival-calendar/internal/i18n"
)

var monthNames = map[i18n.Language][12]string{
	i18n.English: {
		"First Month", "Second Month", "Third Month", "Fourth Month",
		"Fifth Month", "Sixth Month", "Seventh Month", "Eighth Month",
		"Ninth Month", "Tenth Month", "Eleventh Month", "Twelfth Month",
	},
	i18n.Chinese: {
		"正月", "二月", "三月", "四月", "五月", "六月",
		"七月", "八月", "九月", "十月", "十一月", "腊月",
	},
}

var chineseDayNames = [30]string{
	"初一", "初二", "初三", "初四", "初五", "初六", "初七", "初八", "初九", "初十",
	"十一", "十二", "十三", "十四", "十五", "十六", "十七", "十八", "十九", "二十",
	"廿一", "廿二", "廿三", "廿四", "廿五", "廿六", "廿七", "廿八", "廿九", "三十",
}

// MonthName returns the month's display name, or "" outside 1..12. Languages
// without a table use English.
func MonthName(month int, lang i18n.Language) string {
	if month < 1 || month > 12 {
		return ""
	}
	names, ok := monthNames[lang]
	if !ok {
		names = monthNames[i18n.English]
	}
	return names[month-1]
}

// DayName returns the Chinese day ordinal for zh, and the plain number
// otherwise or when day is outside 1..30.
func DayName(day int, lang i18n.Language) string {
	if lang == i18n.Chinese && day >= 1 && day <= 30 {
		return chineseDayNames[day-1]
	}
	return strconv.Itoa(day)
}

// Format renders a date, e.g. "First Month 5" or "正月初五".
func Format(d LunarDate, lang i18n.Language) string {
	if lang == i18n.Chinese {
		return MonthName(d.Month, lang) + DayName(d.Day, lang)
	}
	return MonthName(d.Month, lang) + " " + DayName(d.Day, lang)
}
