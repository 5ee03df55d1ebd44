package domain

import "context"

// PreferenceKey names a persisted preference.
type PreferenceKey string

// Preference keys.
const (
	PreferenceTheme    PreferenceKey = "theme"
	PreferenceLanguage PreferenceKey = "language"
)

// Theme is the display theme preference.
type Theme string

// Themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"

	DefaultTheme = ThemeAuto
)

var themeLabels = map[Theme]string{
	ThemeLight: "Light",
	ThemeDark:  "Dark",
	ThemeAuto:  "Auto",
}

// Themes lists every theme in display order.
func Themes() []Theme {
	return []Theme{ThemeLight, ThemeDark, ThemeAuto}
}

// LookupTheme returns the theme stored under code, if any.
func LookupTheme(code string) (Theme, bool) {
	t := Theme(code)
	_, ok := themeLabels[t]
	return t, ok
}

// ParseTheme decodes a stored theme code. Absent or unknown codes resolve to
// DefaultTheme.
func ParseTheme(code string) Theme {
	if t, ok := LookupTheme(code); ok {
		return t
	}
	return DefaultTheme
}

// Label returns the human-readable theme name.
func (t Theme) Label() string {
	return themeLabels[ParseTheme(string(t))]
}

// Language is the display language preference.
type Language string

// Languages.
const (
	LanguageEnglish Language = "en"
	LanguageGreek   Language = "el"

	DefaultLanguage = LanguageEnglish
)

var languageLabels = map[Language]string{
	LanguageEnglish: "English",
	LanguageGreek:   "Ελληνικά",
}

// Languages lists every language in display order.
func Languages() []Language {
	return []Language{LanguageEnglish, LanguageGreek}
}

// LookupLanguage returns the language stored under code, if any.
func LookupLanguage(code string) (Language, bool) {
	l := Language(code)
	_, ok := languageLabels[l]
	return l, ok
}

// ParseLanguage decodes a stored language code. Absent or unknown codes
// resolve to DefaultLanguage.
func ParseLanguage(code string) Language {
	if l, ok := LookupLanguage(code); ok {
		return l
	}
	return DefaultLanguage
}

// Label returns the language name in that language.
func (l Language) Label() string {
	return languageLabels[ParseLanguage(string(l))]
}

// Settings is a snapshot of all preferences.
type Settings struct {
	Theme    Theme    `json:"theme"`
	Language Language `json:"language"`
}

// SettingsRepository is the port for key/value preference persistence.
type SettingsRepository interface {
	GetPreference(ctx context.Context, key PreferenceKey) (value string, found bool, err error)
	SetPreference(ctx context.Context, key PreferenceKey, value string) error
}
