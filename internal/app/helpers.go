package app

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/klabast/wb-services/festival-calendar/internal/i18n"
)

// requestLanguage picks the display language from ?lang= or Accept-Language.
func requestLanguage(r *http.Request) i18n.Language {
	return i18n.Negotiate(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
}

// intParam parses an optional integer query parameter. Missing means fallback.
func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// parseMonth validates a lunar month number.
func parseMonth(raw string) (int, error) {
	m, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || m < 1 || m > 12 {
		return 0, fmt.Errorf("month must be between 1 and 12")
	}
	return m, nil
}

// validYear bounds the years the exports and conversions accept.
func validYear(year int) bool {
	return year >= 1900 && year <= 2100
}
