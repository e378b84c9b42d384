package detector

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// paletteDistance is the Euclidean RGB distance (0-255 per channel) under
// which a color counts as a palette match. The maximum possible distance is
// about 441, so this is a loose, tuned threshold.
const paletteDistance = 120

var (
	// rgbPattern captures the first three components of rgb() or rgba().
	rgbPattern = regexp.MustCompile(`rgba?\(\s*(\d+(?:\.\d+)?)\s*,\s*(\d+(?:\.\d+)?)\s*,\s*(\d+(?:\.\d+)?)`)

	// hslPattern captures hue, saturation and lightness of hsl() or hsla().
	hslPattern = regexp.MustCompile(`hsla?\(\s*(\d+(?:\.\d+)?)\s*,\s*(\d+(?:\.\d+)?)%\s*,\s*(\d+(?:\.\d+)?)%`)

	// hexPattern finds embedded hex colors in compound values.
	hexPattern = regexp.MustCompile(`#[0-9a-fA-F]{3,6}`)
)

// IsPurple reports whether a single CSS color value reads as purple.
//
// The checks run in order and the first one that applies decides:
//  1. empty, transparent and fully transparent black are never purple
//  2. a purple color name anywhere in the value
//  3. rgb()/rgba(): the purplish heuristic, then the palette distance
//  4. #rgb/#rrggbb: the palette distance
//  5. hsl()/hsla(): hue in [200,340], saturation above 10%, lightness in (5%,95%)
func IsPurple(color string) bool {
	lower := strings.ToLower(color)
	if isTransparent(lower) {
		return false
	}

	if containsAny(lower, tables.PurpleKeywords) {
		return true
	}

	// The format checks are case sensitive and expect no leading space, as
	// computed styles are always lowercase and trimmed.
	if m := rgbPattern.FindStringSubmatch(color); m != nil {
		r, g, b := roundComponent(m[1]), roundComponent(m[2]), roundComponent(m[3])
		if IsColorPurplish(r, g, b) {
			return true
		}
		return nearPalette(rgb255(r, g, b))
	}

	if strings.HasPrefix(color, "#") {
		if c, ok := parseHexColor(color); ok {
			return nearPalette(c)
		}
	}

	if m := hslPattern.FindStringSubmatch(color); m != nil {
		return hslPurple(m)
	}

	return false
}

// ContainsPurple reports whether a compound CSS value, such as a background
// shorthand, a gradient or a box-shadow, embeds a purple color anywhere.
func ContainsPurple(value string) bool {
	if value == "" {
		return false
	}
	lower := strings.ToLower(value)

	if containsAny(lower, tables.CompoundPurpleKeywords) {
		return true
	}

	for _, hex := range hexPattern.FindAllString(lower, -1) {
		if c, ok := parseHexColor(hex); ok && nearPalette(c) {
			return true
		}
	}

	for _, m := range rgbPattern.FindAllStringSubmatch(lower, -1) {
		if IsColorPurplish(roundComponent(m[1]), roundComponent(m[2]), roundComponent(m[3])) {
			return true
		}
	}

	for _, m := range hslPattern.FindAllStringSubmatch(lower, -1) {
		if hslPurple(m) {
			return true
		}
	}

	for _, hex := range tables.paletteLower {
		if strings.Contains(lower, hex) {
			return true
		}
	}
	return false
}

// IsColorPurplish applies a set of hand-tuned rules to an RGB triple
// (0-255 per channel). Any matching rule makes the color purplish.
//
// The rules are empirical and overlap heavily; some of them also accept
// near-white and blue colors. They are kept as they are so that scores stay
// comparable across versions.
func IsColorPurplish(r, g, b int) bool {
	h, s, v := rgb255(r, g, b).Hsv()
	rf, gf, bf := float64(r), float64(g), float64(b)

	switch {
	// HSV hue band covering violet through magenta.
	case h >= 200 && h <= 340 && s > 0.15 && v > 0.15:
		return true
	// Greyish and pale violets.
	case h >= 240 && h <= 300 && s > 0.05 && v > 0.3:
		return true
	// Blue dominates green.
	case b > g && b > 60 && b-g > 20:
		return true
	// Red and blue high, green low.
	case r > 100 && b > 100 && gf < math.Min(rf, bf)*0.9:
		return true
	// Blue above red above green.
	case b > r && r > g && b > 50 && b-r > 10:
		return true
	// Blue clearly above both other channels.
	case bf > rf*1.05 && bf > gf*1.2 && b > 80:
		return true
	// Red and blue close together, both above green.
	case absInt(r-b) < 60 && rf > gf*1.1 && bf > gf*1.1 && max(r, b) > 70:
		return true
	// Bright lilac.
	case r > 140 && b > 140 && g > 80 && rf+bf > gf*1.6:
		return true
	// Framework indigo such as #6366f1 or #8b5cf6.
	case b > 200 && r > 80 && r < 180 && g > 50 && g < 120:
		return true
	// Brand violet.
	case r > 80 && r < 150 && g > 40 && g < 110 && b > 180 && b < 255:
		return true
	}

	// Red+blue share of total intensity.
	if total := r + g + b; total > 150 && b > g && float64(r+b)/float64(total) > 0.65 {
		return true
	}

	// Low-saturation violet greys.
	if h >= 220 && h <= 320 && s > 0.03 && v > 0.2 {
		variance := max(r, g, b) - min(r, g, b)
		if variance > 10 && (b >= g || r >= g) {
			return true
		}
	}
	return false
}

// isTransparent treats whitespace variants of transparent values alike.
func isTransparent(lower string) bool {
	compact := strings.Join(strings.Fields(lower), "")
	return compact == "" || compact == "transparent" || compact == "rgba(0,0,0,0)"
}

// nearPalette reports whether c lies within paletteDistance of any swatch.
func nearPalette(c colorful.Color) bool {
	for _, p := range tables.palette {
		if c.DistanceRgb(p)*255 < paletteDistance {
			return true
		}
	}
	return false
}

// parseHexColor accepts #rgb and #rrggbb. Other lengths are rejected.
func parseHexColor(hex string) (colorful.Color, bool) {
	if len(hex) != 4 && len(hex) != 7 {
		return colorful.Color{}, false
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

// hslPurple evaluates an hslPattern submatch.
func hslPurple(m []string) bool {
	h := parseFloat(m[1])
	s := parseFloat(m[2]) / 100
	l := parseFloat(m[3]) / 100
	return h >= 200 && h <= 340 && s > 0.1 && l > 0.05 && l < 0.95
}

func rgb255(r, g, b int) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

func roundComponent(s string) int {
	return int(math.Round(parseFloat(s)))
}

// parseFloat returns 0 for input the regexes should never have matched.
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
