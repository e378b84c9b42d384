// Package model defines the data structures shared by every aiflavor package.
//
// This package contains the following main types:
//   - ElementSnapshot / PageSnapshot: the rendered styles and text of a page
//   - Feature / AnalysisResult: the outcome of one scoring run
//   - Detection: the mutable state carried through the scan pipeline
//   - DetectionRecord: the persisted form of a finished detection
//
// Keeping the types here lets the collector, detector, database and report
// packages exchange values without import cycles. All types serialize to JSON
// for report output and database storage.
package model
