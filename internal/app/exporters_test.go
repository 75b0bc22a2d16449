package app

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/festival-calendar/internal/i18n"
	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

func testEntries() []Entry {
	return []Entry{
		{
			UID:         "mid-autumn-festival-2025@" + ICSDomain,
			Date:        time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC),
			Day:         "2025-08-10",
			Lunar:       lunar.LunarDate{Month: 8, Day: 15},
			Title:       "Mid-Autumn Festival",
			Description: "Moon viewing, mooncakes",
			Kind:        KindFestival,
			Category:    "major",
		},
		{
			UID:      "e1-2025@" + ICSDomain,
			Date:     time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC),
			Day:      "2025-09-03",
			Lunar:    lunar.LunarDate{Month: 9, Day: 9},
			Title:    "Visit grandparents",
			Kind:     KindEvent,
			Category: "personal",
		},
	}
}

var stamp = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func TestGenerateICS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/download?reminder2Days=true&time2Days=18:00&reminder1Day=true&time1Day=19:00&reminderSameDay=true&timeSameDay=07:00", nil)
	w := httptest.NewRecorder()

	GenerateICS(w, req, 2025, testEntries(), stamp)

	resp := w.Result()
	body := w.Body.String()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/calendar")
	assert.Equal(t, "attachment; filename=festival-calendar_2025.ics", resp.Header.Get("Content-Disposition"))

	for _, field := range []string{
		"BEGIN:VCALENDAR\r\n",
		"VERSION:2.0\r\n",
		"PRODID:" + ICSProductID + "\r\n",
		"X-WR-CALNAME:Festival Calendar 2025\r\n",
		"X-WR-TIMEZONE:Asia/Kuala_Lumpur\r\n",
		"UID:mid-autumn-festival-2025@" + ICSDomain + "\r\n",
		"DTSTAMP:20250301T093000Z\r\n",
		"DTSTART;VALUE=DATE:20250810\r\n",
		"DTEND;VALUE=DATE:20250811\r\n",
		"SUMMARY:Mid-Autumn Festival\r\n",
		"DESCRIPTION:Moon viewing\\, mooncakes\r\n",
		"CATEGORIES:major\r\n",
		"SUMMARY:Visit grandparents\r\n",
		"CATEGORIES:personal\r\n",
		"END:VCALENDAR\r\n",
	} {
		assert.Contains(t, body, field)
	}

	// 2 entries x 3 reminders
	assert.Equal(t, 6, strings.Count(body, "BEGIN:VALARM"))
	assert.Contains(t, body, "TRIGGER:-P1DT6H0M")
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"))
}

func TestGenerateICSWithoutReminders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/download?reminder1Day=true", nil)
	w := httptest.NewRecorder()

	GenerateICS(w, req, 2025, testEntries(), stamp)

	assert.NotContains(t, w.Body.String(), "BEGIN:VALARM")
}

func TestAddAlarm(t *testing.T) {
	eventDate := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		daysBefore  int
		alarmTime   string
		wantTrigger string
	}{
		// event starts at 00:00, so 18:00 two days ahead is 1 day 6 hours before
		{name: "2 days before at 18:00", daysBefore: 2, alarmTime: "18:00", wantTrigger: "-P1DT6H0M"},
		{name: "1 day before at 19:00", daysBefore: 1, alarmTime: "19:00", wantTrigger: "-P0DT5H0M"},
		{name: "1 day before at 19:45", daysBefore: 1, alarmTime: "19:45", wantTrigger: "-P0DT4H15M"},
		{name: "Same day at 07:00", daysBefore: 0, alarmTime: "07:00", wantTrigger: "P0DT7H0M"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			AddAlarm(&buf, eventDate, tt.daysBefore, tt.alarmTime, "Mid-Autumn Festival")

			output := buf.String()
			assert.True(t, strings.HasPrefix(output, "BEGIN:VALARM\r\n"))
			assert.True(t, strings.HasSuffix(output, "END:VALARM\r\n"))
			assert.Contains(t, output, "ACTION:DISPLAY\r\n")
			assert.Contains(t, output, "DESCRIPTION:Reminder: Mid-Autumn Festival\r\n")
			assert.Contains(t, output, "TRIGGER:"+tt.wantTrigger+"\r\n")
		})
	}
}

func TestAddAlarmInvalidTime(t *testing.T) {
	eventDate := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)

	for _, alarmTime := range []string{"", "18", "18:00:00", "ab:cd", "24:00", "12:60", "-1:30"} {
		t.Run(alarmTime, func(t *testing.T) {
			var buf bytes.Buffer
			AddAlarm(&buf, eventDate, 1, alarmTime, "x")
			assert.Empty(t, buf.String())
		})
	}
}

func TestGenerateCSV(t *testing.T) {
	w := httptest.NewRecorder()
	GenerateCSV(w, 2025, testEntries())

	resp := w.Result()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Equal(t, "attachment; filename=festival-calendar_2025.csv", resp.Header.Get("Content-Disposition"))

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Date", "Lunar Date", "Title", "Kind", "Category", "Description"},
		{"2025-08-10", "08-15", "Mid-Autumn Festival", "festival", "major", "Moon viewing, mooncakes"},
		{"2025-09-03", "09-09", "Visit grandparents", "event", "personal", ""},
	}, records)
}

func TestGenerateJSON(t *testing.T) {
	w := httptest.NewRecorder()
	GenerateJSON(w, 2025, i18n.Chinese, testEntries())

	resp := w.Result()
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var doc struct {
		Year     int     `json:"year"`
		Language string  `json:"language"`
		Entries  []Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, 2025, doc.Year)
	assert.Equal(t, "zh", doc.Language)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "2025-08-10", doc.Entries[0].Day)
	assert.Equal(t, lunar.LunarDate{Month: 8, Day: 15}, doc.Entries[0].Lunar)
	assert.Equal(t, KindEvent, doc.Entries[1].Kind)
}

func TestGenerateJSONEmpty(t *testing.T) {
	w := httptest.NewRecorder()
	GenerateJSON(w, 2025, i18n.English, nil)
	assert.Contains(t, w.Body.String(), `"entries":[]`)
}

func TestEscapeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "a, b; c", want: `a\, b\; c`},
		{in: `back\slash`, want: `back\\slash`},
		{in: "two\nlines", want: `two\nlines`},
		{in: "crlf\r\nline", want: `crlf\nline`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeText(tt.in), tt.in)
	}
}

func TestFilterKinds(t *testing.T) {
	entries := testEntries()

	assert.Len(t, filterKinds(entries, ""), 2)
	assert.Len(t, filterKinds(entries, "festival, event"), 2)

	events := filterKinds(entries, "event")
	require.Len(t, events, 1)
	assert.Equal(t, "Visit grandparents", events[0].Title)

	assert.Empty(t, filterKinds(entries, "holiday"))
}

func TestDownload(t *testing.T) {
	ts := newTestServer(t)
	addTestEvent(t, ts, "Ancestor day", lunar.LunarDate{Month: 3, Day: 10})

	t.Run("ics default", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/download?year=2025", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		// eight lunar festivals plus the event
		assert.Equal(t, 9, strings.Count(body, "BEGIN:VEVENT"))
		assert.Contains(t, body, "DTSTART;VALUE=DATE:20250102\r\nDTEND;VALUE=DATE:20250103\r\nSUMMARY:Spring Festival")
		assert.Contains(t, body, "SUMMARY:Ancestor day")
		assert.Contains(t, body, "DTSTART;VALUE=DATE:20250311")
	})

	t.Run("csv festivals only", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/download?year=2025&format=csv&kinds=festival", nil)
		require.Equal(t, http.StatusOK, w.Code)
		records, err := csv.NewReader(w.Body).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 9)
		assert.Equal(t, []string{"2025-01-02", "01-01", "Spring Festival", "festival", "major", "The lunar new year."}, records[1])
		assert.Equal(t, "Kitchen God Day", records[8][2])
	})

	t.Run("json localized", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/download?year=2025&format=json&lang=zh&kinds=festival", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var doc struct {
			Entries []Entry `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		require.Len(t, doc.Entries, 8)
		assert.Equal(t, "春节", doc.Entries[0].Title)
		assert.Equal(t, "2025-08-10", doc.Entries[5].Day)
	})

	t.Run("invalid format", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/download?format=pdf", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_FORMAT", decode[apiError](t, w).Code)
	})

	t.Run("invalid year", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/download?year=3000", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_YEAR", decode[apiError](t, w).Code)
	})
}

func addTestEvent(t *testing.T, ts *testServer, title string, d lunar.LunarDate) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/events", map[string]any{"title": title, "date": d})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestICSLineFolding(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "short", value: "SUMMARY:Qixi Festival"},
		{name: "exactly 75", value: "DESCRIPTION:" + strings.Repeat("a", 63)},
		{name: "ascii", value: "DESCRIPTION:" + strings.Repeat("Moon viewing and mooncakes. ", 8)},
		{name: "chinese", value: "DESCRIPTION:" + strings.Repeat("中秋节赏月吃月饼，家人团聚。", 6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			icsLine(&buf, "%s", tt.value)
			out := buf.String()

			require.True(t, strings.HasSuffix(out, "\r\n"))
			lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
			for i, line := range lines {
				assert.LessOrEqual(t, len(line), 75, "line %d", i)
				assert.True(t, utf8.ValidString(line), "line %d splits a character", i)
				if i > 0 {
					assert.True(t, strings.HasPrefix(line, " "), "continuation %d", i)
				}
			}
			if len(tt.value) <= 75 {
				assert.Len(t, lines, 1)
			}
			assert.Equal(t, tt.value, strings.ReplaceAll(strings.TrimSuffix(out, "\r\n"), "\r\n ", ""))
		})
	}
}

func TestGenerateICSFoldsLongSummaries(t *testing.T) {
	entries := testEntries()
	entries[0].Title = strings.Repeat("中秋节", 20)

	req := httptest.NewRequest(http.MethodGet, "/api/download", nil)
	w := httptest.NewRecorder()
	GenerateICS(w, req, 2025, entries, stamp)

	for _, line := range strings.Split(w.Body.String(), "\r\n") {
		assert.LessOrEqual(t, len(line), 75, line)
	}
	assert.Contains(t, strings.ReplaceAll(w.Body.String(), "\r\n ", ""), "SUMMARY:"+entries[0].Title+"\r\n")
}
