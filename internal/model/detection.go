package model

import (
	"time"
)

// Detection is the working state of one scan as it moves through the
// pipeline. Steps fill it in place; when the pipeline finishes it is
// converted into a DetectionRecord.
type Detection struct {
	// URL is the normalized target.
	URL string `json:"url"`

	// StartedAt is when the scan began.
	StartedAt time.Time `json:"started_at"`

	// Snapshot is set by the collect step. It stays nil when collection failed.
	Snapshot *PageSnapshot `json:"-"`

	// Result is set by the analyze step.
	Result *AnalysisResult `json:"result,omitempty"`

	// Metadata describes the collection environment.
	Metadata RecordMetadata `json:"metadata"`

	// RecordID is set once the detection has been persisted.
	RecordID string `json:"record_id,omitempty"`

	// CollectError is the reason collection failed, if it did.
	CollectError string `json:"collect_error,omitempty"`

	// TimedOut is true when the scan context expired.
	TimedOut bool `json:"timed_out,omitempty"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`
}

// NewDetection creates the working state for a target URL.
func NewDetection(url string) *Detection {
	return &Detection{
		URL:            url,
		StartedAt:      time.Now(),
		PerformedSteps: make([]string, 0),
	}
}

// AddStep records that a pipeline step ran.
func (d *Detection) AddStep(name string) {
	d.PerformedSteps = append(d.PerformedSteps, name)
}

// Title returns the snapshot title, or an empty string without a snapshot.
func (d *Detection) Title() string {
	if d.Snapshot == nil {
		return ""
	}
	return d.Snapshot.Title
}

// Record converts the detection into its persisted form.
// It returns nil when the detection has not been analyzed yet.
func (d *Detection) Record() *DetectionRecord {
	if d.Result == nil {
		return nil
	}
	features := d.Result.Features
	if features == nil {
		features = []Feature{}
	}
	url := d.URL
	if d.Snapshot != nil && d.Snapshot.URL != "" {
		url = d.Snapshot.URL
	}
	meta := d.Metadata
	meta.ElementCount = d.Result.ElementCount
	return &DetectionRecord{
		ID:             d.RecordID,
		URL:            url,
		Title:          d.Title(),
		Timestamp:      d.Result.Timestamp,
		Score:          d.Result.Score,
		Features:       features,
		Details:        d.Result.Details,
		SnapshotDigest: d.Snapshot.Digest(),
		Failed:         d.Result.Failed,
		Metadata:       meta,
	}
}
