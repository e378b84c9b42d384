package collector

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// maxVarDepth bounds nested var() substitution.
const maxVarDepth = 8

var varPattern = regexp.MustCompile(`var\(\s*(--[A-Za-z0-9_-]+)\s*(?:,\s*([^()]*(?:\([^()]*\))?[^()]*))?\)`)

// styleRule is one qualified rule with a single selector.
type styleRule struct {
	selector     string
	declarations []*css.Declaration
}

// declared is the cascaded value of one property on one element.
type declared struct {
	value     string
	important bool
}

// elementStyles maps each element to its cascaded declarations.
type elementStyles map[*html.Node]map[string]declared

// parseRules extracts the style rules of a stylesheet in source order.
// Rules nested in @media and @supports are included. Unparsable sheets
// yield no rules.
func parseRules(src string) []styleRule {
	sheet, err := parser.Parse(src)
	if err != nil {
		return nil
	}
	var rules []styleRule
	collectRules(sheet.Rules, &rules)
	return rules
}

func collectRules(in []*css.Rule, out *[]styleRule) {
	for _, r := range in {
		switch r.Kind {
		case css.QualifiedRule:
			for _, sel := range r.Selectors {
				if sel = strings.TrimSpace(sel); sel != "" {
					*out = append(*out, styleRule{selector: sel, declarations: r.Declarations})
				}
			}
		case css.AtRule:
			name := strings.ToLower(r.Name)
			if name == "@media" || name == "@supports" {
				collectRules(r.Rules, out)
			}
		}
	}
}

// cascade applies rules in order and then inline style attributes.
// Specificity is not computed: later rules win, and !important beats
// normal declarations.
func cascade(doc *goquery.Document, rules []styleRule) elementStyles {
	styles := make(elementStyles)
	apply := func(n *html.Node, decls []*css.Declaration) {
		m := styles[n]
		if m == nil {
			m = make(map[string]declared)
			styles[n] = m
		}
		for _, d := range decls {
			prop := strings.ToLower(strings.TrimSpace(d.Property))
			if prop == "" {
				continue
			}
			if prev, ok := m[prop]; ok && prev.important && !d.Important {
				continue
			}
			m[prop] = declared{value: strings.TrimSpace(d.Value), important: d.Important}
		}
	}

	for _, r := range rules {
		// Selectors goquery cannot compile, such as :hover, match nothing.
		doc.Find(r.selector).Each(func(_ int, s *goquery.Selection) {
			apply(s.Nodes[0], r.declarations)
		})
	}

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		inline, _ := s.Attr("style")
		// The parser only closes a declaration at ';' or '}'.
		inline = strings.TrimRight(strings.TrimSpace(inline), "; ")
		if inline == "" {
			return
		}
		decls, err := parser.ParseDeclarations(inline + ";")
		if err != nil {
			return
		}
		apply(s.Nodes[0], decls)
	})
	return styles
}

// value returns the property of n with var() references resolved against
// n and its ancestors.
func (es elementStyles) value(n *html.Node, prop string) string {
	d, ok := es[n][prop]
	if !ok {
		return ""
	}
	return es.resolveVars(n, d.value, 0)
}

func (es elementStyles) resolveVars(n *html.Node, v string, depth int) string {
	if depth >= maxVarDepth || !strings.Contains(v, "var(") {
		return v
	}
	resolved := varPattern.ReplaceAllStringFunc(v, func(m string) string {
		parts := varPattern.FindStringSubmatch(m)
		if val, ok := es.lookupVar(n, parts[1]); ok {
			return val
		}
		return strings.TrimSpace(parts[2])
	})
	return es.resolveVars(n, resolved, depth+1)
}

// lookupVar finds the nearest definition of a custom property.
func (es elementStyles) lookupVar(n *html.Node, name string) (string, bool) {
	for ; n != nil; n = n.Parent {
		if d, ok := es[n][name]; ok {
			return d.value, true
		}
	}
	return "", false
}
