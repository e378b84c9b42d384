package detector

import (
	"regexp"
	"strings"
)

const (
	// pxPerEm converts em and rem to pixels.
	pxPerEm = 16
	// largePercentRadius is the smallest percentage treated as a large radius.
	largePercentRadius = 25
	// largePercentPx is the pixel value assigned to a large percentage radius.
	largePercentPx = 20
)

var (
	percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)
	pxPattern      = regexp.MustCompile(`(\d+(?:\.\d+)?)px`)
	emPattern      = regexp.MustCompile(`(\d+(?:\.\d+)?)(?:em|rem)`)
)

// MaxRadiusPx returns the largest corner radius in a border-radius value,
// converted to pixels.
//
// Pixel lengths are taken as they are and em/rem lengths count 16px per
// unit. Only the first percentage is inspected: 25% or more counts as 20px
// and smaller percentages count as nothing. An empty value, "0px" or a value
// with no recognizable length yields 0.
func MaxRadiusPx(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" || value == "0px" {
		return 0
	}

	var radius float64
	if m := percentPattern.FindStringSubmatch(value); m != nil && parseFloat(m[1]) >= largePercentRadius {
		radius = largePercentPx
	}
	for _, m := range pxPattern.FindAllStringSubmatch(value, -1) {
		radius = max(radius, parseFloat(m[1]))
	}
	for _, m := range emPattern.FindAllStringSubmatch(value, -1) {
		radius = max(radius, parseFloat(m[1])*pxPerEm)
	}
	return radius
}
