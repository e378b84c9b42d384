package detector

import (
	"math"
	"regexp"
	"strings"

	"github.com/nao1215/aiflavor/internal/model"
)

const (
	// roundedMinPx is the smallest radius that makes an element "rounded".
	roundedMinPx = 6
	// buttonMinPx is the smallest radius a modern button needs.
	buttonMinPx = 4
)

// colorTokenPattern finds color literals inside a background value.
var colorTokenPattern = regexp.MustCompile(`(#[0-9a-fA-F]{3,6}|rgba?\([^)]+\)|hsla?\([^)]+\))`)

// RoundedStats is the result of DetectRounded.
type RoundedStats struct {
	// Count is the number of elements with a radius of at least 6px.
	Count int
	// AvgRadius is the rounded mean radius of those elements in pixels.
	AvgRadius int
}

// DetectRounded counts elements with large border radii.
func DetectRounded(elements []model.ElementSnapshot) RoundedStats {
	var (
		count int
		total float64
	)
	for i := range elements {
		radius := MaxRadiusPx(elements[i].BorderRadius)
		if radius >= roundedMinPx {
			count++
			total += radius
		}
	}
	if count == 0 {
		return RoundedStats{}
	}
	return RoundedStats{Count: count, AvgRadius: int(math.Round(total / float64(count)))}
}

// PurpleStats is the result of DetectPurple.
type PurpleStats struct {
	// Count is the number of elements using a purple color. Never above
	// the number of elements.
	Count int
	// Coverage is Count as a rounded percentage of all elements.
	Coverage int
}

// DetectPurple counts elements that use a purple color anywhere in their
// colors, borders, backgrounds or shadows. Each element counts at most once.
func DetectPurple(elements []model.ElementSnapshot) PurpleStats {
	count := 0
	for i := range elements {
		if elementIsPurple(&elements[i]) {
			count++
		}
	}
	if len(elements) == 0 {
		return PurpleStats{}
	}
	return PurpleStats{
		Count:    count,
		Coverage: int(math.Round(float64(count) / float64(len(elements)) * 100)),
	}
}

func elementIsPurple(e *model.ElementSnapshot) bool {
	singles := []string{
		e.BackgroundColor,
		e.Color,
		e.BorderColor,
		e.BorderTopColor,
		e.BorderRightColor,
		e.BorderBottomColor,
		e.BorderLeftColor,
	}
	for _, c := range singles {
		if IsPurple(c) {
			return true
		}
	}

	image := e.Gradient
	if image == "" {
		image = e.BackgroundImage
	}
	for _, v := range []string{e.Background, image, e.BoxShadow} {
		if ContainsPurple(v) {
			return true
		}
	}
	return false
}

// DetectGradients counts elements whose backgrounds or filters contain a
// gradient function, or at least two colors together with a blending hint.
func DetectGradients(elements []model.ElementSnapshot) int {
	count := 0
	for i := range elements {
		if elementHasGradient(&elements[i]) {
			count++
		}
	}
	return count
}

func elementHasGradient(e *model.ElementSnapshot) bool {
	combined := strings.Join([]string{
		e.Background,
		e.BackgroundImage,
		e.Gradient,
		e.Filter,
		e.BackdropFilter,
	}, " ")
	lower := strings.ToLower(combined)

	if containsAny(lower, tables.GradientPatterns) {
		return true
	}
	colors := colorTokenPattern.FindAllString(combined, -1)
	return len(colors) >= 2 && containsAny(lower, tables.GradientHints)
}

// DetectModernButtons counts button-like elements that have a radius of at
// least 4px and at least one modern decoration: a shadow, a gradient, a
// transition, a transform or a visible border.
func DetectModernButtons(elements []model.ElementSnapshot) int {
	count := 0
	for i := range elements {
		e := &elements[i]
		if isButtonLike(e) && MaxRadiusPx(e.BorderRadius) >= buttonMinPx && hasModernDecoration(e) {
			count++
		}
	}
	return count
}

func isButtonLike(e *model.ElementSnapshot) bool {
	if e.IsButton ||
		strings.EqualFold(e.TagName, "button") ||
		e.Role == "button" ||
		e.Cursor == "pointer" {
		return true
	}
	return containsAny(strings.ToLower(e.ClassName), tables.ButtonClassHints)
}

func hasModernDecoration(e *model.ElementSnapshot) bool {
	background := e.Background
	if background == "" {
		background = e.BackgroundImage
	}
	switch {
	case isSet(e.BoxShadow):
		return true
	case strings.Contains(strings.ToLower(background), "gradient"):
		return true
	case isSet(e.Transition):
		return true
	case isSet(e.Transform):
		return true
	case isSet(e.Border) && !strings.Contains(e.Border, "0px"):
		return true
	}
	return false
}

// isSet reports whether a computed style value is present and not "none".
func isSet(v string) bool {
	return v != "" && v != "none"
}
