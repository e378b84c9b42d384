package detector

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

// Tables holds the lookup data the detectors match against.
type Tables struct {
	PurplePalette          []string            `yaml:"purple_palette"`
	PurpleKeywords         []string            `yaml:"purple_keywords"`
	CompoundPurpleKeywords []string            `yaml:"compound_purple_keywords"`
	GradientPatterns       []string            `yaml:"gradient_patterns"`
	GradientHints          []string            `yaml:"gradient_hints"`
	ButtonClassHints       []string            `yaml:"button_class_hints"`
	AIKeywords             []string            `yaml:"ai_keywords"`
	KeywordVariations      map[string][]string `yaml:"keyword_variations"`

	// palette is PurplePalette parsed once for distance checks.
	palette []colorful.Color
	// paletteLower is PurplePalette lowercased for substring checks.
	paletteLower []string
}

// tables is read-only after package initialization.
var tables = mustLoadTables(tablesYAML)

func mustLoadTables(data []byte) *Tables {
	t, err := parseTables(data)
	if err != nil {
		panic(fmt.Sprintf("detector: invalid embedded tables: %v", err))
	}
	return t
}

func parseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tables: %w", err)
	}
	if len(t.PurplePalette) == 0 {
		return nil, fmt.Errorf("purple palette is empty")
	}
	if len(t.AIKeywords) == 0 {
		return nil, fmt.Errorf("AI keyword list is empty")
	}

	t.palette = make([]colorful.Color, 0, len(t.PurplePalette))
	t.paletteLower = make([]string, 0, len(t.PurplePalette))
	for _, hex := range t.PurplePalette {
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("invalid palette color %q: %w", hex, err)
		}
		t.palette = append(t.palette, c)
		t.paletteLower = append(t.paletteLower, strings.ToLower(hex))
	}
	return &t, nil
}
