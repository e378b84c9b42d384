// Package detector scores how strongly a web page follows the visual
// conventions of AI-generated designs.
//
// # Detectors
//
// Five independent detectors inspect a model.PageSnapshot:
//   - rounded corners: elements whose border radius is at least 6px
//   - purple palette: elements using purple colors in any color, border,
//     background or shadow value
//   - gradients: elements with gradient or blur backgrounds
//   - modern buttons: button-like elements with a radius and decoration
//   - AI keywords: AI and machine-learning terms in the page text and title
//
// Each detector yields a raw count that is turned into a model.Feature with a
// detection threshold, a confidence tier and a capped score. The caps are
// 25, 30, 20, 15 and 10 points and add up to 100.
//
// # Usage
//
//	result := detector.Analyze(snapshot, detector.WithLanguage(i18n.ZhCN))
//	fmt.Println(result.Score, result.Details)
//
// AnalyzeWebsite combines collection and scoring and never returns an error:
// a page that cannot be collected scores 0 with an explanation in Details.
//
// # Tables
//
// Color palettes and keyword lists live in tables.yaml, embedded at build
// time. All functions in this package are pure and may be called
// concurrently.
package detector
