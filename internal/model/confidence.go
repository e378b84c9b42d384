package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Confidence is the coarse tier a detector assigns to its raw count.
type Confidence int

const (
	// ConfidenceLow is assigned when a feature was barely observed.
	ConfidenceLow Confidence = iota

	// ConfidenceMedium is assigned for a clear but moderate signal.
	ConfidenceMedium

	// ConfidenceHigh is assigned when the feature dominates the page.
	ConfidenceHigh
)

// String returns the lowercase label used in reports and JSON.
func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseConfidence converts a label produced by String back into a Confidence.
func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ConfidenceLow, nil
	case "medium":
		return ConfidenceMedium, nil
	case "high":
		return ConfidenceHigh, nil
	default:
		return ConfidenceLow, fmt.Errorf("unknown confidence %q", s)
	}
}

// ConfidenceFor picks a tier from a count: above high is high,
// above medium is medium, anything else is low.
func ConfidenceFor(count, medium, high int) Confidence {
	switch {
	case count > high:
		return ConfidenceHigh
	case count > medium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// MarshalJSON encodes the confidence as its label.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a confidence label.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseConfidence(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
