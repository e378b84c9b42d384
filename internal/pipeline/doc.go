// Package pipeline runs a scan of one URL as a sequence of steps:
// collecting the page snapshot, scoring it and saving the detection record.
//
// Each step receives the *model.Detection left by the previous steps and
// fills in more of it. A page that cannot be loaded is not a pipeline
// error: the collect step records the reason and the analyze step turns it
// into the zero-score failure result.
//
// BatchProcessor scans many URLs concurrently with errgroup, skipping
// repeated targets. SeenFilter keeps the scan history across runs so a
// batch can leave out URLs that were already scanned.
package pipeline
