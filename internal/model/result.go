package model

import (
	"time"
)

// FeatureKey identifies a detector independently of the display language.
type FeatureKey string

const (
	// FeatureRounded counts elements with large border radii.
	FeatureRounded FeatureKey = "rounded_corners"
	// FeaturePurple counts elements that use purple colors.
	FeaturePurple FeatureKey = "purple_palette"
	// FeatureGradient counts elements with gradient or blur backgrounds.
	FeatureGradient FeatureKey = "gradient_background"
	// FeatureButtons counts button-like elements with modern styling.
	FeatureButtons FeatureKey = "modern_buttons"
	// FeatureKeywords counts AI-related terms in the page text.
	FeatureKeywords FeatureKey = "ai_keywords"
)

// FeatureKeys lists every feature in the order the scorer emits them.
var FeatureKeys = []FeatureKey{
	FeatureRounded,
	FeaturePurple,
	FeatureGradient,
	FeatureButtons,
	FeatureKeywords,
}

// Feature is one detector's verdict for a single analysis.
type Feature struct {
	// Key is the stable identifier of the detector.
	Key FeatureKey `json:"key"`

	// Name is the localized label shown to users.
	Name string `json:"name"`

	// Detected is true when the count exceeded the detector's threshold.
	Detected bool `json:"detected"`

	// Confidence is the tier derived from the raw count.
	Confidence Confidence `json:"confidence"`

	// Description is a localized sentence embedding the raw counts.
	Description string `json:"description"`

	// Score is the feature's contribution, already clamped to its cap.
	Score float64 `json:"score"`

	// Count is the raw number of matches behind the score.
	Count int `json:"count"`
}

// AnalysisResult is the outcome of scoring one page.
type AnalysisResult struct {
	// Score is the rounded, clamped sum of feature scores (0-100).
	Score int `json:"score"`

	// Features holds one entry per detector in FeatureKeys order,
	// or nothing when the analysis failed.
	Features []Feature `json:"features"`

	// Details is a human-readable summary.
	Details string `json:"details"`

	// Timestamp is when the result was produced.
	Timestamp time.Time `json:"timestamp"`

	// ElementCount is the number of elements that were scored.
	ElementCount int `json:"element_count"`

	// Failed is true when no snapshot could be obtained.
	Failed bool `json:"failed,omitempty"`
}

// NewFailedResult builds the zero-score result returned when a page could
// not be inspected. details should already explain the failure.
func NewFailedResult(details string) *AnalysisResult {
	return &AnalysisResult{
		Score:     0,
		Features:  []Feature{},
		Details:   details,
		Timestamp: time.Now(),
		Failed:    true,
	}
}

// DetectedFeatures returns only the features whose threshold was exceeded.
func (r *AnalysisResult) DetectedFeatures() []Feature {
	if r == nil {
		return nil
	}
	detected := make([]Feature, 0, len(r.Features))
	for _, f := range r.Features {
		if f.Detected {
			detected = append(detected, f)
		}
	}
	return detected
}

// Feature returns the feature with the given key.
func (r *AnalysisResult) Feature(key FeatureKey) (Feature, bool) {
	if r == nil {
		return Feature{}, false
	}
	for _, f := range r.Features {
		if f.Key == key {
			return f, true
		}
	}
	return Feature{}, false
}
