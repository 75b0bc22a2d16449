// Package i18n holds the language tags and multi-language text used by the
// festival datasets and the lunar name tables.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is a short language code as used by the datasets.
type Language string

const (
	English  Language = "en"
	Chinese  Language = "zh"
	Malay    Language = "ms"
	Japanese Language = "ja"
)

// Supported lists the languages the datasets carry, in matcher order.
var Supported = []Language{English, Chinese, Malay, Japanese}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Chinese,
	language.Malay,
	language.Japanese,
})

// Parse returns the Language for a known code.
func Parse(s string) (Language, bool) {
	code := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, l := range Supported {
		if l == code {
			return l, true
		}
	}
	return "", false
}

// Negotiate picks the display language for a request. An explicit code wins,
// then the Accept-Language header, then English.
func Negotiate(explicit, acceptLanguage string) Language {
	if l, ok := Parse(explicit); ok {
		return l
	}
	if acceptLanguage == "" {
		return English
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return English
	}
	return Supported[idx]
}

// Locale returns the BCP 47 locale used for date formatting.
func (l Language) Locale() string {
	switch l {
	case Chinese:
		return "zh-CN"
	case Malay:
		return "ms-MY"
	case Japanese:
		return "ja-JP"
	default:
		return "en-US"
	}
}

// Text is a localized string. Missing translations fall back to English.
type Text struct {
	EN string `json:"en"`
	ZH string `json:"zh,omitempty"`
	MS string `json:"ms,omitempty"`
	JA string `json:"ja,omitempty"`
}

// Get returns the text for lang, or the English text when that is empty.
func (t Text) Get(lang Language) string {
	var s string
	switch lang {
	case Chinese:
		s = t.ZH
	case Malay:
		s = t.MS
	case Japanese:
		s = t.JA
	}
	if s == "" {
		return t.EN
	}
	return s
}

// All returns every non-empty translation.
func (t Text) All() []string {
	out := make([]string, 0, 4)
	for _, s := range []string{t.EN, t.ZH, t.MS, t.JA} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
