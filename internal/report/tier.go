package report

import (
	"github.com/nao1215/aiflavor/internal/i18n"
)

// Tier groups scores for display.
type Tier int

const (
	// TierLow is a score below 40.
	TierLow Tier = iota
	// TierMedium is a score from 40 to 69.
	TierMedium
	// TierHigh is a score of 70 or more.
	TierHigh
)

// Tier colors, as CSS hex values.
const (
	ColorHigh   = "#10b981"
	ColorMedium = "#f59e0b"
	ColorLow    = "#ef4444"
)

// Display limits of report cards.
const (
	MaxTitleLength = 40
	MaxURLLength   = 60
)

// TierFor returns the tier of a 0-100 score.
func TierFor(score int) Tier {
	switch {
	case score >= 70:
		return TierHigh
	case score >= 40:
		return TierMedium
	default:
		return TierLow
	}
}

// Color returns the hex color of the tier.
func (t Tier) Color() string {
	switch t {
	case TierHigh:
		return ColorHigh
	case TierMedium:
		return ColorMedium
	default:
		return ColorLow
	}
}

// Label returns the localized name of the tier.
func (t Tier) Label(lang i18n.Language) string {
	switch t {
	case TierHigh:
		return lang.T(i18n.TierHigh)
	case TierMedium:
		return lang.T(i18n.TierMedium)
	default:
		return lang.T(i18n.TierLow)
	}
}

// Truncate shortens s to at most maxLen characters, replacing the tail
// with "..." when it is cut. Lengths count runes, not bytes.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:max(maxLen, 0)])
	}
	return string(runes[:maxLen-3]) + "..."
}
