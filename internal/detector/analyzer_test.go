package detector

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/aiflavor/internal/i18n"
	"github.com/nao1215/aiflavor/internal/model"
)

// fixedClock returns a clock option pinned to a known instant.
func fixedClock() Option {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return WithClock(func() time.Time { return ts })
}

// purplePage builds the reference page of n violet, rounded elements.
func purplePage(n int) *model.PageSnapshot {
	elements := make([]model.ElementSnapshot, n)
	for i := range elements {
		elements[i] = model.ElementSnapshot{
			TagName:         "div",
			BackgroundColor: "#8B5CF6",
			BorderRadius:    "12px",
		}
	}
	return &model.PageSnapshot{Elements: elements}
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	t.Run("twenty purple rounded elements score 55", func(t *testing.T) {
		t.Parallel()

		result := Analyze(purplePage(20), fixedClock())

		if result.Score != 55 {
			t.Errorf("expected score 55, got %d", result.Score)
		}
		if len(result.Features) != len(model.FeatureKeys) {
			t.Fatalf("expected %d features, got %d", len(model.FeatureKeys), len(result.Features))
		}
		for i, key := range model.FeatureKeys {
			if result.Features[i].Key != key {
				t.Errorf("feature %d: expected key %q, got %q", i, key, result.Features[i].Key)
			}
		}

		rounded, _ := result.Feature(model.FeatureRounded)
		if rounded.Count != 20 || rounded.Score != 25 || !rounded.Detected || rounded.Confidence != model.ConfidenceHigh {
			t.Errorf("unexpected rounded feature: %+v", rounded)
		}
		purple, _ := result.Feature(model.FeaturePurple)
		if purple.Count != 20 || purple.Score != 30 || !purple.Detected || purple.Confidence != model.ConfidenceHigh {
			t.Errorf("unexpected purple feature: %+v", purple)
		}
		for _, key := range []model.FeatureKey{model.FeatureGradient, model.FeatureButtons, model.FeatureKeywords} {
			f, _ := result.Feature(key)
			if f.Detected || f.Score != 0 {
				t.Errorf("expected %s to be undetected with zero score, got %+v", key, f)
			}
		}

		expected := "20 elements analyzed.\n\n" +
			"2 AI design features detected:\n" +
			"• Large rounded corners (high confidence): 20 elements with large rounded corners, average radius 12px\n" +
			"• Purple color scheme (high confidence): 20 purple elements, purple coverage 100%\n" +
			"\n2 high-confidence features indicate a strong AI design style."
		if result.Details != expected {
			t.Errorf("unexpected details:\n%s\nexpected:\n%s", result.Details, expected)
		}
		if result.ElementCount != 20 {
			t.Errorf("expected element count 20, got %d", result.ElementCount)
		}
	})

	t.Run("empty page scores zero", func(t *testing.T) {
		t.Parallel()

		result := Analyze(&model.PageSnapshot{})

		if result.Score != 0 {
			t.Errorf("expected score 0, got %d", result.Score)
		}
		for _, f := range result.Features {
			if f.Detected {
				t.Errorf("expected %s to be undetected", f.Key)
			}
		}
		if !strings.Contains(result.Details, "0 elements analyzed") {
			t.Errorf("details should mention 0 elements: %q", result.Details)
		}
		if !strings.Contains(result.Details, "No features detected") {
			t.Errorf("details should state no features were detected: %q", result.Details)
		}
		if result.Failed {
			t.Error("an empty page is not a failed analysis")
		}
	})

	t.Run("nil snapshot behaves like an empty page", func(t *testing.T) {
		t.Parallel()
		result := Analyze(nil)
		if result.Score != 0 || len(result.Features) != len(model.FeatureKeys) {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		page := purplePage(8)
		page.Text = "our ai platform uses deep learning"
		page.Elements = append(page.Elements, model.ElementSnapshot{
			TagName:      "button",
			BorderRadius: "9999px",
			Background:   "linear-gradient(90deg, #667eea, #764ba2)",
		})

		first := Analyze(page, fixedClock())
		second := Analyze(page, fixedClock())
		if !reflect.DeepEqual(first, second) {
			t.Errorf("results differ:\n%+v\n%+v", first, second)
		}
	})

	t.Run("chinese output", func(t *testing.T) {
		t.Parallel()

		result := Analyze(purplePage(20), WithLanguage(i18n.ZhCN))
		if result.Features[0].Name != "大圆角设计" {
			t.Errorf("unexpected feature name: %q", result.Features[0].Name)
		}
		if !strings.HasPrefix(result.Details, "分析了 20 个页面元素。") {
			t.Errorf("unexpected details: %q", result.Details)
		}
		if !strings.Contains(result.Details, "• 紫色配色方案 (高置信度): 检测到 20 个紫色元素，紫色覆盖率 100%") {
			t.Errorf("unexpected details: %q", result.Details)
		}
	})
}

func TestAnalyzeFeaturesThresholds(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name               string
		count              int
		expectedDetected   bool
		expectedConfidence model.Confidence
		expectedScore      float64
	}{
		{"five rounded elements are not enough", 5, false, model.ConfidenceLow, 10},
		{"six rounded elements", 6, true, model.ConfidenceLow, 12},
		{"eleven rounded elements", 11, true, model.ConfidenceMedium, 22},
		{"sixteen rounded elements reach the cap", 16, true, model.ConfidenceHigh, 25},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			elements := make([]model.ElementSnapshot, tc.count)
			for i := range elements {
				elements[i] = model.ElementSnapshot{BorderRadius: "8px"}
			}
			features := AnalyzeFeatures(&model.PageSnapshot{Elements: elements})

			f := features[0]
			if f.Detected != tc.expectedDetected {
				t.Errorf("expected detected=%v, got %v", tc.expectedDetected, f.Detected)
			}
			if f.Confidence != tc.expectedConfidence {
				t.Errorf("expected confidence %v, got %v", tc.expectedConfidence, f.Confidence)
			}
			if f.Score != tc.expectedScore {
				t.Errorf("expected score %v, got %v", tc.expectedScore, f.Score)
			}
		})
	}

	t.Run("gradient weight is fractional", func(t *testing.T) {
		t.Parallel()

		elements := make([]model.ElementSnapshot, 3)
		for i := range elements {
			elements[i] = model.ElementSnapshot{BackgroundImage: "linear-gradient(red, blue)"}
		}
		features := AnalyzeFeatures(&model.PageSnapshot{Elements: elements})
		f := features[2]
		if f.Key != model.FeatureGradient || f.Score != 7.5 || !f.Detected {
			t.Errorf("unexpected gradient feature: %+v", f)
		}
	})

	t.Run("single keyword is detected", func(t *testing.T) {
		t.Parallel()

		features := AnalyzeFeatures(&model.PageSnapshot{Title: "quantum"})
		f := features[4]
		if !f.Detected || f.Count != 1 || f.Score != 2 {
			t.Errorf("unexpected keyword feature: %+v", f)
		}
		if f.Description != "1 AI-related keywords: quantum" {
			t.Errorf("unexpected description: %q", f.Description)
		}
	})
}

func TestCalculateScore(t *testing.T) {
	t.Parallel()

	scores := func(values ...float64) []model.Feature {
		features := make([]model.Feature, 0, len(values))
		for _, v := range values {
			features = append(features, model.Feature{Score: v})
		}
		return features
	}

	testCases := []struct {
		name     string
		features []model.Feature
		expected int
	}{
		{"no features", nil, 0},
		{"all caps", scores(25, 30, 20, 15, 10), 100},
		{"sum above 100 is clamped", scores(60, 60), 100},
		{"rounds down", scores(12.4), 12},
		{"rounds half up", scores(2.5), 3},
		{"fractional sum", scores(7.5, 7.5, 0.4), 15},
		{"negative sum is clamped", scores(-5), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CalculateScore(tc.features); got != tc.expected {
				t.Errorf("expected %d, got %d", tc.expected, got)
			}
		})
	}

	t.Run("matches the rounded clamped sum", func(t *testing.T) {
		t.Parallel()
		for a := 0.0; a <= 25; a += 2.5 {
			for b := 0.0; b <= 30; b += 3 {
				for c := 0.0; c <= 20; c += 2.5 {
					features := scores(a, b, c, 15, 10)
					want := int(math.Min(math.Round(a+b+c+25), 100))
					got := CalculateScore(features)
					if got != want || got < 0 || got > 100 {
						t.Fatalf("CalculateScore(%v, %v, %v, 15, 10) = %d, expected %d", a, b, c, got, want)
					}
				}
			}
		}
	})
}

// stubSource is a SnapshotSource with canned behavior.
type stubSource struct {
	snapshot *model.PageSnapshot
	err      error
	panics   bool
}

func (s stubSource) Collect(_ context.Context, _ string) (*model.PageSnapshot, error) {
	if s.panics {
		panic("browser crashed")
	}
	return s.snapshot, s.err
}

func TestAnalyzeWebsite(t *testing.T) {
	t.Parallel()

	assertFailed := func(t *testing.T, result *model.AnalysisResult, reason string) {
		t.Helper()
		if result == nil {
			t.Fatal("expected a result")
		}
		if result.Score != 0 {
			t.Errorf("expected score 0, got %d", result.Score)
		}
		if result.Features == nil || len(result.Features) != 0 {
			t.Errorf("expected empty features, got %v", result.Features)
		}
		if !result.Failed {
			t.Error("expected Failed to be set")
		}
		if !strings.Contains(result.Details, reason) {
			t.Errorf("expected details to contain %q, got %q", reason, result.Details)
		}
		if result.Timestamp.IsZero() {
			t.Error("expected timestamp")
		}
	}

	t.Run("scores a collected page", func(t *testing.T) {
		t.Parallel()
		result := AnalyzeWebsite(context.Background(), stubSource{snapshot: purplePage(20)}, "https://example.com")
		if result.Score != 55 || result.Failed {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("collection error degrades to zero", func(t *testing.T) {
		t.Parallel()
		result := AnalyzeWebsite(context.Background(), stubSource{err: errors.New("navigation timeout")}, "https://example.com")
		assertFailed(t, result, "Analysis failed: navigation timeout")
	})

	t.Run("missing snapshot degrades to zero", func(t *testing.T) {
		t.Parallel()
		result := AnalyzeWebsite(context.Background(), stubSource{}, "https://example.com")
		assertFailed(t, result, errNilSnapshot.Error())
	})

	t.Run("panicking source degrades to zero", func(t *testing.T) {
		t.Parallel()
		result := AnalyzeWebsite(context.Background(), stubSource{panics: true}, "https://example.com")
		assertFailed(t, result, "browser crashed")
	})

	t.Run("nil source degrades to zero", func(t *testing.T) {
		t.Parallel()
		result := AnalyzeWebsite(context.Background(), nil, "https://example.com")
		assertFailed(t, result, errNoSource.Error())
	})

	t.Run("canceled context degrades to zero", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		result := AnalyzeWebsite(ctx, stubSource{snapshot: purplePage(1)}, "https://example.com")
		assertFailed(t, result, context.Canceled.Error())
	})

	t.Run("failure message is localized", func(t *testing.T) {
		t.Parallel()
		result := AnalyzeWebsite(context.Background(), stubSource{err: errors.New("boom")}, "https://example.com", WithLanguage(i18n.ZhCN))
		assertFailed(t, result, "分析失败: boom")
	})
}
