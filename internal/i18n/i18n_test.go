package i18n

import (
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/aiflavor/internal/model"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected Language
	}{
		{"", EnUS},
		{"en", EnUS},
		{"en-GB", EnUS},
		{"ja_JP.UTF-8", EnUS},
		{"zh", ZhCN},
		{"zh-CN", ZhCN},
		{"zh_CN.UTF-8", ZhCN},
		{"zh-TW", ZhCN},
		{"zh-Hant-HK", ZhCN},
	}

	for _, tc := range testCases {
		t.Run("parse "+tc.input, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tc.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tc.input, err)
			}
			if got != tc.expected {
				t.Errorf("Parse(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}

	t.Run("invalid tag", func(t *testing.T) {
		t.Parallel()
		_, err := Parse("not a language!")
		if !errors.Is(err, ErrUnsupportedLanguage) {
			t.Errorf("expected ErrUnsupportedLanguage, got %v", err)
		}
	})
}

func TestDetect(t *testing.T) {
	t.Run("chinese locale", func(t *testing.T) {
		t.Setenv("LC_ALL", "")
		t.Setenv("LC_MESSAGES", "")
		t.Setenv("LANG", "zh_CN.UTF-8")
		if got := Detect(); got != ZhCN {
			t.Errorf("expected zh-CN, got %q", got)
		}
	})

	t.Run("LC_ALL wins over LANG", func(t *testing.T) {
		t.Setenv("LC_ALL", "en_US.UTF-8")
		t.Setenv("LC_MESSAGES", "")
		t.Setenv("LANG", "zh_CN.UTF-8")
		if got := Detect(); got != EnUS {
			t.Errorf("expected en-US, got %q", got)
		}
	})

	t.Run("posix locale falls back to default", func(t *testing.T) {
		t.Setenv("LC_ALL", "C")
		t.Setenv("LC_MESSAGES", "")
		t.Setenv("LANG", "")
		if got := Detect(); got != Default {
			t.Errorf("expected default, got %q", got)
		}
	})
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	t.Run("formats arguments", func(t *testing.T) {
		t.Parallel()
		got := EnUS.T(DetailsAnalyzed, 20)
		if got != "20 elements analyzed." {
			t.Errorf("unexpected message: %q", got)
		}
		got = ZhCN.T(DetailsAnalyzed, 20)
		if got != "分析了 20 个页面元素。" {
			t.Errorf("unexpected message: %q", got)
		}
	})

	t.Run("unknown language falls back to english", func(t *testing.T) {
		t.Parallel()
		if got := Language("fr-FR").T(ReportTitle); got != "AI Flavor Report" {
			t.Errorf("unexpected message: %q", got)
		}
	})

	t.Run("unknown key returns key", func(t *testing.T) {
		t.Parallel()
		if got := EnUS.T(Key("missing.key")); got != "missing.key" {
			t.Errorf("unexpected message: %q", got)
		}
	})

	t.Run("catalogs have the same keys", func(t *testing.T) {
		t.Parallel()
		for key := range catalogs[EnUS] {
			if _, ok := catalogs[ZhCN][key]; !ok {
				t.Errorf("zh-CN catalog is missing %q", key)
			}
		}
		for key := range catalogs[ZhCN] {
			if _, ok := catalogs[EnUS][key]; !ok {
				t.Errorf("en-US catalog is missing %q", key)
			}
		}
	})

	t.Run("confidence labels", func(t *testing.T) {
		t.Parallel()
		if got := ZhCN.Confidence(model.ConfidenceHigh); got != "高" {
			t.Errorf("unexpected label: %q", got)
		}
		if got := EnUS.Confidence(model.ConfidenceMedium); !strings.EqualFold(got, "medium") {
			t.Errorf("unexpected label: %q", got)
		}
	})
}
