package lunar

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/klabast/wb-services/festival-calendar/internal/i18n"
)

func TestMonthName(t *testing.T) {
	tests := []struct {
		month int
		lang  i18n.Language
		want  string
	}{
		{1, i18n.English, "First Month"},
		{12, i18n.English, "Twelfth Month"},
		{1, i18n.Chinese, "正月"},
		{12, i18n.Chinese, "腊月"},
		{11, i18n.Chinese, "十一月"},
		{3, i18n.Malay, "Third Month"},
		{0, i18n.English, ""},
		{13, i18n.English, ""},
		{-4, i18n.Chinese, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MonthName(tt.month, tt.lang), "MonthName(%d, %s)", tt.month, tt.lang)
	}
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "初一", DayName(1, i18n.Chinese))
	assert.Equal(t, "初十", DayName(10, i18n.Chinese))
	assert.Equal(t, "廿一", DayName(21, i18n.Chinese))
	assert.Equal(t, "三十", DayName(30, i18n.Chinese))
	assert.Equal(t, "31", DayName(31, i18n.Chinese))
	assert.Equal(t, "0", DayName(0, i18n.Chinese))
	assert.Equal(t, "15", DayName(15, i18n.English))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "First Month 5", Format(LunarDate{Month: 1, Day: 5}, i18n.English))
	assert.Equal(t, "正月初五", Format(LunarDate{Month: 1, Day: 5}, i18n.Chinese))
	assert.Equal(t, "八月十五", Format(LunarDate{Month: 8, Day: 15}, i18n.Chinese))
	assert.Equal(t, " 5", Format(LunarDate{Month: 0, Day: 5}, i18n.English))
}
