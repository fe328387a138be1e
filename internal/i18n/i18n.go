// Package i18n holds the portal's English/Arabic message tables together with
// the presentation settings that depend on them (text direction, theme).
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

const (
	English = "en"
	Arabic  = "ar"

	ThemeLight = "light"
	ThemeDark  = "dark"

	DirLTR = "ltr"
	DirRTL = "rtl"
)

var matcher = language.NewMatcher([]language.Tag{language.English, language.Arabic})

// Languages lists the supported languages, default first.
func Languages() []string { return []string{English, Arabic} }

// Supported reports whether lang has a message table.
func Supported(lang string) bool {
	_, ok := tables[lang]
	return ok
}

// Normalize returns lang when supported and English otherwise.
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if Supported(lang) {
		return lang
	}
	return English
}

// Direction returns the text direction for lang.
func Direction(lang string) string {
	if Normalize(lang) == Arabic {
		return DirRTL
	}
	return DirLTR
}

// ValidTheme reports whether theme is light or dark.
func ValidTheme(theme string) bool { return theme == ThemeLight || theme == ThemeDark }

// ToggleTheme flips light and dark; anything else becomes dark, as it displays as light.
func ToggleTheme(theme string) string {
	if theme == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Negotiate picks the best supported language for an Accept-Language header.
func Negotiate(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return English
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return English
	}
	return Languages()[idx]
}

// T returns the message for key in lang, falling back to English and then the key itself.
func T(lang, key string) string {
	if m, ok := tables[Normalize(lang)][key]; ok {
		return m
	}
	if m, ok := tables[English][key]; ok {
		return m
	}
	return key
}

// Tf formats the message for key with args.
func Tf(lang, key string, args ...interface{}) string {
	return fmt.Sprintf(T(lang, key), args...)
}

// Table returns a copy of the message table for lang.
func Table(lang string) map[string]string {
	src := tables[Normalize(lang)]
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
