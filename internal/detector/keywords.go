package detector

import (
	"strings"
)

// KeywordMatch is the result of DetectAIKeywords.
type KeywordMatch struct {
	// Count is len(Keywords).
	Count int
	// Keywords lists the matched table entries in table order, without duplicates.
	Keywords []string
}

// DetectAIKeywords finds AI-related terms in text. The match is a
// case-insensitive substring test with no word boundaries. A keyword
// that is not present verbatim is retried with its variations: a plural
// form and any expansions listed in the variation table.
func DetectAIKeywords(text string) KeywordMatch {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{}, len(tables.AIKeywords))
	found := make([]string, 0)

	for _, keyword := range tables.AIKeywords {
		if _, ok := seen[keyword]; ok {
			continue
		}
		for _, candidate := range keywordVariations(strings.ToLower(keyword)) {
			if strings.Contains(lower, candidate) {
				seen[keyword] = struct{}{}
				found = append(found, keyword)
				break
			}
		}
	}
	return KeywordMatch{Count: len(found), Keywords: found}
}

// keywordVariations returns the keyword itself followed by its alternative
// spellings.
func keywordVariations(keyword string) []string {
	variations := []string{keyword}
	if !strings.HasSuffix(keyword, "s") && !strings.Contains(keyword, " ") {
		variations = append(variations, keyword+"s")
	}
	return append(variations, tables.KeywordVariations[keyword]...)
}
