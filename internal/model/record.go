package model

import (
	"time"
)

// Viewport is the browser window size used while collecting a snapshot.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RecordMetadata describes how a detection was performed.
type RecordMetadata struct {
	UserAgent    string        `json:"user_agent,omitempty"`
	Viewport     Viewport      `json:"viewport"`
	LoadTime     time.Duration `json:"load_time"`
	ElementCount int           `json:"element_count"`
	Collector    string        `json:"collector,omitempty"`
	Language     string        `json:"language,omitempty"`
}

// DetectionRecord is the persisted history entry for one scanned URL.
type DetectionRecord struct {
	ID             string         `json:"id"`
	URL            string         `json:"url"`
	Title          string         `json:"title"`
	Timestamp      time.Time      `json:"timestamp"`
	Score          int            `json:"score"`
	Features       []Feature      `json:"features"`
	Details        string         `json:"details"`
	SnapshotDigest string         `json:"snapshot_digest,omitempty"`
	Failed         bool           `json:"failed,omitempty"`
	Metadata       RecordMetadata `json:"metadata"`
}

// DetectedCount returns how many features were detected.
func (r *DetectionRecord) DetectedCount() int {
	n := 0
	for _, f := range r.Features {
		if f.Detected {
			n++
		}
	}
	return n
}

// FeatureScore returns the score of the feature with the given key,
// or 0 when the record does not contain it.
func (r *DetectionRecord) FeatureScore(key FeatureKey) float64 {
	for _, f := range r.Features {
		if f.Key == key {
			return f.Score
		}
	}
	return 0
}

// StorageStats summarizes the record store.
type StorageStats struct {
	TotalRecords int       `json:"total_records"`
	TotalSize    int64     `json:"total_size"`
	OldestRecord time.Time `json:"oldest_record,omitzero"`
	NewestRecord time.Time `json:"newest_record,omitzero"`
}
