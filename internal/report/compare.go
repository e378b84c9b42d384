package report

import (
	"errors"

	"github.com/nao1215/aiflavor/internal/model"
)

// ErrNothingToCompare is returned by Compare when a record is missing.
var ErrNothingToCompare = errors.New("two records are required for a comparison")

// FeatureChange is the score movement of one feature between two records.
type FeatureChange struct {
	Key    model.FeatureKey `json:"key"`
	Name   string           `json:"name"`
	Before float64          `json:"before"`
	After  float64          `json:"after"`
	Delta  float64          `json:"delta"`
}

// Comparison describes how the detection of a site changed over time.
type Comparison struct {
	Before *model.DetectionRecord `json:"before"`
	After  *model.DetectionRecord `json:"after"`

	// ScoreDelta is After.Score - Before.Score.
	ScoreDelta int `json:"score_delta"`

	// Features has one entry per known feature, in model.FeatureKeys order.
	Features []FeatureChange `json:"features"`

	// DigestChanged is true when the page snapshots differ. An unchanged
	// digest with a changed score means the scorer changed, not the page.
	DigestChanged bool `json:"digest_changed"`
}

// Compare builds the comparison of an older and a newer record.
func Compare(before, after *model.DetectionRecord) (*Comparison, error) {
	if before == nil || after == nil {
		return nil, ErrNothingToCompare
	}

	c := &Comparison{
		Before:        before,
		After:         after,
		ScoreDelta:    after.Score - before.Score,
		Features:      make([]FeatureChange, 0, len(model.FeatureKeys)),
		DigestChanged: before.SnapshotDigest != after.SnapshotDigest,
	}
	for _, key := range model.FeatureKeys {
		b, a := before.FeatureScore(key), after.FeatureScore(key)
		c.Features = append(c.Features, FeatureChange{
			Key:    key,
			Name:   featureName(key, after, before),
			Before: b,
			After:  a,
			Delta:  a - b,
		})
	}
	return c, nil
}

// featureName returns the localized name stored with the first record that
// has the feature, or the key itself.
func featureName(key model.FeatureKey, records ...*model.DetectionRecord) string {
	for _, r := range records {
		for _, f := range r.Features {
			if f.Key == key && f.Name != "" {
				return f.Name
			}
		}
	}
	return string(key)
}
