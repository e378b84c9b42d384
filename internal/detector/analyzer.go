package detector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nao1215/aiflavor/internal/i18n"
	"github.com/nao1215/aiflavor/internal/model"
)

// maxScore is the upper bound of an AnalysisResult score.
const maxScore = 100

// Option configures the analysis functions.
type Option func(*options)

type options struct {
	lang i18n.Language
	now  func() time.Time
}

func newOptions(opts []Option) options {
	o := options{lang: i18n.Default, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLanguage selects the language of feature names, descriptions and
// details. The default is i18n.Default.
func WithLanguage(lang i18n.Language) Option {
	return func(o *options) {
		if lang != "" {
			o.lang = lang
		}
	}
}

// WithClock replaces the function used to timestamp results.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// featureRule turns a raw count into a Feature.
type featureRule struct {
	key  model.FeatureKey
	name i18n.Key

	// threshold is the count that must be exceeded for detection.
	threshold int
	// medium and high are the counts that must be exceeded for each tier.
	medium int
	high   int

	weight float64
	cap    float64

	// measure returns the raw count and the localized description.
	measure func(s *model.PageSnapshot, lang i18n.Language) (int, string)
}

// featureRules are evaluated in the order features are reported.
// The caps add up to maxScore.
var featureRules = []featureRule{
	{
		key: model.FeatureRounded, name: i18n.FeatureRoundedName,
		threshold: 5, medium: 10, high: 15, weight: 2, cap: 25,
		measure: func(s *model.PageSnapshot, lang i18n.Language) (int, string) {
			stats := DetectRounded(s.Elements)
			return stats.Count, lang.T(i18n.FeatureRoundedDesc, stats.Count, stats.AvgRadius)
		},
	},
	{
		key: model.FeaturePurple, name: i18n.FeaturePurpleName,
		threshold: 3, medium: 6, high: 10, weight: 3, cap: 30,
		measure: func(s *model.PageSnapshot, lang i18n.Language) (int, string) {
			stats := DetectPurple(s.Elements)
			return stats.Count, lang.T(i18n.FeaturePurpleDesc, stats.Count, stats.Coverage)
		},
	},
	{
		key: model.FeatureGradient, name: i18n.FeatureGradientName,
		threshold: 2, medium: 5, high: 8, weight: 2.5, cap: 20,
		measure: func(s *model.PageSnapshot, lang i18n.Language) (int, string) {
			n := DetectGradients(s.Elements)
			return n, lang.T(i18n.FeatureGradientDesc, n)
		},
	},
	{
		key: model.FeatureButtons, name: i18n.FeatureButtonsName,
		threshold: 2, medium: 4, high: 6, weight: 3, cap: 15,
		measure: func(s *model.PageSnapshot, lang i18n.Language) (int, string) {
			n := DetectModernButtons(s.Elements)
			return n, lang.T(i18n.FeatureButtonsDesc, n)
		},
	},
	{
		key: model.FeatureKeywords, name: i18n.FeatureKeywordsName,
		threshold: 0, medium: 2, high: 5, weight: 2, cap: 10,
		measure: func(s *model.PageSnapshot, lang i18n.Language) (int, string) {
			m := DetectAIKeywords(s.Text + " " + s.Title)
			return m.Count, lang.T(i18n.FeatureKeywordsDesc, m.Count, strings.Join(m.Keywords, ", "))
		},
	},
}

// AnalyzeFeatures runs every detector over the snapshot and returns one
// Feature per detector in model.FeatureKeys order. A nil snapshot is treated
// as an empty page.
func AnalyzeFeatures(snapshot *model.PageSnapshot, opts ...Option) []model.Feature {
	o := newOptions(opts)
	if snapshot == nil {
		snapshot = &model.PageSnapshot{}
	}

	features := make([]model.Feature, 0, len(featureRules))
	for _, rule := range featureRules {
		count, desc := rule.measure(snapshot, o.lang)
		features = append(features, model.Feature{
			Key:         rule.key,
			Name:        o.lang.T(rule.name),
			Detected:    count > rule.threshold,
			Confidence:  model.ConfidenceFor(count, rule.medium, rule.high),
			Description: desc,
			Score:       math.Min(float64(count)*rule.weight, rule.cap),
			Count:       count,
		})
	}
	return features
}

// CalculateScore sums the feature scores, rounds the sum and clamps it to
// the range 0-100.
func CalculateScore(features []model.Feature) int {
	var sum float64
	for _, f := range features {
		sum += f.Score
	}
	score := int(math.Round(sum))
	return max(0, min(score, maxScore))
}

// GenerateDetails writes the human-readable summary of an analysis.
func GenerateDetails(features []model.Feature, snapshot *model.PageSnapshot, opts ...Option) string {
	o := newOptions(opts)
	elements := 0
	if snapshot != nil {
		elements = len(snapshot.Elements)
	}

	var b strings.Builder
	b.WriteString(o.lang.T(i18n.DetailsAnalyzed, elements))
	b.WriteString("\n\n")

	detected := 0
	high := 0
	for _, f := range features {
		if !f.Detected {
			continue
		}
		detected++
		if f.Confidence == model.ConfidenceHigh {
			high++
		}
	}

	if detected == 0 {
		b.WriteString(o.lang.T(i18n.DetailsNoneDetected))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(o.lang.T(i18n.DetailsDetectedHeader, detected))
	b.WriteString("\n")
	for _, f := range features {
		if f.Detected {
			b.WriteString(o.lang.T(i18n.DetailsFeatureLine, f.Name, o.lang.Confidence(f.Confidence), f.Description))
			b.WriteString("\n")
		}
	}
	if high > 0 {
		b.WriteString("\n")
		b.WriteString(o.lang.T(i18n.DetailsHighConfidence, high))
	}
	return b.String()
}

// Analyze scores a snapshot. It is pure apart from the timestamp and safe
// for concurrent use.
func Analyze(snapshot *model.PageSnapshot, opts ...Option) *model.AnalysisResult {
	o := newOptions(opts)
	features := AnalyzeFeatures(snapshot, opts...)
	elements := 0
	if snapshot != nil {
		elements = len(snapshot.Elements)
	}
	return &model.AnalysisResult{
		Score:        CalculateScore(features),
		Features:     features,
		Details:      GenerateDetails(features, snapshot, opts...),
		Timestamp:    o.now(),
		ElementCount: elements,
	}
}

// SnapshotSource produces the snapshot of a page.
type SnapshotSource interface {
	Collect(ctx context.Context, url string) (*model.PageSnapshot, error)
}

// AnalyzeWebsite collects a snapshot of url from source and scores it.
//
// It never fails. When the snapshot cannot be obtained, it returns a
// zero-score result with no features and details explaining the failure.
func AnalyzeWebsite(ctx context.Context, source SnapshotSource, url string, opts ...Option) *model.AnalysisResult {
	snapshot, err := collectSafely(ctx, source, url)
	if err != nil {
		return Failed(err, opts...)
	}
	return Analyze(snapshot, opts...)
}

// Failed builds the zero-score result for a collection error.
func Failed(err error, opts ...Option) *model.AnalysisResult {
	o := newOptions(opts)
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	result := model.NewFailedResult(o.lang.T(i18n.DetailsFailed, reason))
	result.Timestamp = o.now()
	return result
}

// errNilSnapshot is reported when a source returns neither a snapshot nor an error.
var errNilSnapshot = errors.New("snapshot source returned no snapshot")

// errNoSource is reported when AnalyzeWebsite is called without a source.
var errNoSource = errors.New("no snapshot source configured")

// collectSafely turns panics in the source into errors.
func collectSafely(ctx context.Context, source SnapshotSource, url string) (snapshot *model.PageSnapshot, err error) {
	if source == nil {
		return nil, errNoSource
	}
	defer func() {
		if r := recover(); r != nil {
			snapshot = nil
			err = panicError{value: r}
		}
	}()

	snapshot, err = source.Collect(ctx, url)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, errNilSnapshot
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return snapshot, nil
}

// panicError reports a panic raised by a snapshot source.
type panicError struct {
	value any
}

func (e panicError) Error() string {
	return fmt.Sprintf("snapshot source panicked: %v", e.value)
}
