package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/festival-calendar/internal/festival"
	"github.com/klabast/wb-services/festival-calendar/internal/i18n"
	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

func TestCalculateEaster(t *testing.T) {
	tests := []struct {
		year int
		want string
	}{
		{2024, "2024-03-31"},
		{2025, "2025-04-20"},
		{2026, "2026-04-05"},
		{2030, "2030-04-21"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateEaster(tt.year).Format(time.DateOnly), tt.year)
	}
}

func TestPublicHolidays(t *testing.T) {
	svc := lunar.NewService(lunar.Options{
		EpochYear: 2024,
		Now:       func() time.Time { return fixedNow },
		Logger:    discard,
	})

	holidays := PublicHolidays(context.Background(), svc, 2025)
	require.Len(t, holidays, 8)

	byDate := map[string]Holiday{}
	for i, h := range holidays {
		byDate[h.Date] = h
		if i > 0 {
			assert.LessOrEqual(t, holidays[i-1].Date, h.Date)
		}
	}

	goodFriday, ok := byDate["2025-04-18"]
	require.True(t, ok)
	assert.Equal(t, "Good Friday", goodFriday.Name.EN)
	assert.Equal(t, []festival.Region{festival.Eastern}, goodFriday.Regions)

	// the approximate calendar puts the first lunar month on 2 January
	assert.Equal(t, "Chinese New Year", byDate["2025-01-02"].Name.EN)
	assert.Equal(t, "Chinese New Year", byDate["2025-01-03"].Name.EN)

	assert.Equal(t, "Hari Kebangsaan", byDate["2025-08-31"].Name.Get(i18n.Malay))
	assert.Equal(t, "2025-01-01", holidays[0].Date)
	assert.Equal(t, "2025-12-25", holidays[len(holidays)-1].Date)
}

func TestHolidayNames(t *testing.T) {
	holidays := []Holiday{
		{Date: "2025-12-25", Name: i18n.Text{EN: "Christmas Day", ZH: "圣诞节"}},
		{Date: "2025-05-01", Name: i18n.Text{EN: "Labour Day"}},
	}

	assert.Equal(t, map[string]string{
		"2025-12-25": "圣诞节",
		"2025-05-01": "Labour Day",
	}, holidayNames(holidays, i18n.Chinese))
}
