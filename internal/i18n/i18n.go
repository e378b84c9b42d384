// Package i18n holds the user-facing strings of aiflavor in every supported
// language and picks a language from the environment.
//
// Only two languages exist: Simplified Chinese and US English. Any Chinese
// locale (zh, zh-TW, zh-Hant-HK, ...) maps to Simplified Chinese, everything
// else maps to English.
package i18n

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nao1215/aiflavor/internal/model"
	"golang.org/x/text/language"
)

// Language is a supported BCP 47 language tag.
type Language string

const (
	// ZhCN is Simplified Chinese.
	ZhCN Language = "zh-CN"
	// EnUS is US English.
	EnUS Language = "en-US"
	// Default is used when nothing else is configured.
	Default = EnUS
)

// ErrUnsupportedLanguage is returned by Parse for tags it cannot understand.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// chinese is the base language that selects the ZhCN catalog.
var chinese = language.MustParseBase("zh")

// Languages returns every supported language.
func Languages() []Language {
	return []Language{EnUS, ZhCN}
}

// Parse maps a locale string such as "zh_CN.UTF-8", "en-GB" or "zh" to a
// supported Language. An empty string yields Default.
func Parse(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default, nil
	}
	// POSIX locales carry an encoding and modifier and use underscores.
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "_", "-")

	tag, err := language.Parse(s)
	if err != nil {
		return Default, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	if base, _ := tag.Base(); base == chinese {
		return ZhCN, nil
	}
	return EnUS, nil
}

// Detect picks the language from the usual POSIX locale variables.
// Unset, "C" and "POSIX" locales yield Default.
func Detect() Language {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(key)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		if lang, err := Parse(v); err == nil {
			return lang
		}
	}
	return Default
}

// T returns the message for key, formatted with args.
// Keys missing from the language fall back to English, then to the key itself.
func (l Language) T(key Key, args ...any) string {
	msg, ok := catalogs[l][key]
	if !ok {
		msg, ok = catalogs[EnUS][key]
	}
	if !ok {
		return string(key)
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// String returns the tag.
func (l Language) String() string {
	return string(l)
}

// Confidence returns the localized label of a confidence tier.
func (l Language) Confidence(c model.Confidence) string {
	switch c {
	case model.ConfidenceHigh:
		return l.T(ConfidenceHigh)
	case model.ConfidenceMedium:
		return l.T(ConfidenceMedium)
	default:
		return l.T(ConfidenceLow)
	}
}
