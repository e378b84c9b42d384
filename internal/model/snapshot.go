package model

import (
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/sha3"
)

// MaxElements is the largest number of elements a collector may put into a
// single PageSnapshot.
const MaxElements = 1000

// ElementSnapshot is the rendered presentation of one DOM node.
//
// Every style field holds the computed-style string exactly as the browser
// (or the static stylesheet resolver) reported it. Detectors treat all fields
// as optional: an empty string means "not set".
//
// JSON keys follow the CSSOM property names because the in-page collection
// script produces them directly.
type ElementSnapshot struct {
	TagName   string `json:"tagName"`
	ClassName string `json:"className"`
	Role      string `json:"role,omitempty"`

	BorderRadius    string `json:"borderRadius"`
	BackgroundColor string `json:"backgroundColor"`
	Background      string `json:"background"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
	Color           string `json:"color"`

	BorderColor       string `json:"borderColor,omitempty"`
	BorderTopColor    string `json:"borderTopColor,omitempty"`
	BorderRightColor  string `json:"borderRightColor,omitempty"`
	BorderBottomColor string `json:"borderBottomColor,omitempty"`
	BorderLeftColor   string `json:"borderLeftColor,omitempty"`
	Border            string `json:"border,omitempty"`

	BoxShadow      string `json:"boxShadow"`
	Gradient       string `json:"gradient"`
	Filter         string `json:"filter,omitempty"`
	BackdropFilter string `json:"backdropFilter,omitempty"`
	Transition     string `json:"transition,omitempty"`
	Transform      string `json:"transform,omitempty"`
	Cursor         string `json:"cursor,omitempty"`

	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	IsButton bool    `json:"isButton"`
}

// PageSnapshot is everything the scorer needs to know about one page at one
// point in time.
type PageSnapshot struct {
	// Elements holds at most MaxElements entries in document order.
	Elements []ElementSnapshot `json:"elements"`

	// Text is the lowercased visible body text.
	Text string `json:"text"`

	// Title is the lowercased document title.
	Title string `json:"title"`

	// URL is the final location of the page after redirects.
	URL string `json:"url,omitempty"`
}

// Digest returns a SHA3-256 fingerprint of the snapshot.
// Two snapshots with the same digest produce the same score, which lets the
// compare command tell a changed page from a changed scorer.
func (s *PageSnapshot) Digest() string {
	if s == nil {
		return ""
	}
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Truncate caps the snapshot at limit elements. A limit outside
// 1..MaxElements is treated as MaxElements.
func (s *PageSnapshot) Truncate(limit int) {
	if s == nil {
		return
	}
	if limit <= 0 || limit > MaxElements {
		limit = MaxElements
	}
	if len(s.Elements) > limit {
		s.Elements = s.Elements[:limit]
	}
}
