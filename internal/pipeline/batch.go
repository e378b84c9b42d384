package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/aiflavor/internal/collector"
	"github.com/nao1215/aiflavor/internal/config"
	"github.com/nao1215/aiflavor/internal/detector"
	"github.com/nao1215/aiflavor/internal/i18n"
	"github.com/nao1215/aiflavor/internal/model"
	"golang.org/x/sync/errgroup"
)

// errIncomplete is the failure reason for a detection that never reached
// the analyze step.
var errIncomplete = errors.New("scan did not complete")

// Progress reports one finished detection of a batch.
type Progress struct {
	// Done is the number of finished detections, including this one.
	Done int
	// Total is the number of detections in the batch.
	Total int
	// Detection is the finished detection.
	Detection *model.Detection
}

// BatchProcessor handles concurrent processing of multiple targets.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each scan.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent scans.
	concurrency int

	// lang is used for the failure details of scans that did not finish.
	lang i18n.Language

	// progress is called after each detection finishes.
	progress func(Progress)

	// seen records successful scans. With skipSeen, targets it already
	// holds are not scanned again.
	seen     *SeenFilter
	skipSeen bool

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent scans.
// Default is config.DefaultBatchSize.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchLanguage sets the language of failure details.
func WithBatchLanguage(lang i18n.Language) BatchOption {
	return func(b *BatchProcessor) {
		b.lang = lang
	}
}

// WithProgress registers a callback invoked after each detection finishes.
// Calls are serialized, so the callback needs no locking of its own.
func WithProgress(fn func(Progress)) BatchOption {
	return func(b *BatchProcessor) {
		b.progress = fn
	}
}

// WithSeenFilter marks every successfully scanned target in filter.
// The caller saves the filter after the batch.
func WithSeenFilter(filter *SeenFilter) BatchOption {
	return func(b *BatchProcessor) {
		b.seen = filter
	}
}

// WithSkipSeen leaves out targets the seen filter already holds. It has no
// effect without WithSeenFilter.
func WithSkipSeen(skip bool) BatchOption {
	return func(b *BatchProcessor) {
		b.skipSeen = skip
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each scan to create a fresh
// pipeline instance, so pipeline state does not leak between scans.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     config.DefaultBatchSize,
		lang:            i18n.Default,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch scans the targets concurrently and returns one detection per
// distinct target in input order.
//
// Targets are normalized first. Invalid targets get a failed detection
// without being scanned, and repeated targets are scanned once. With
// WithSkipSeen, targets scanned in earlier runs are left out. Every
// returned detection carries a result: scans that fail or are cancelled
// get the zero-score failure result. The error is non-nil only when ctx
// was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*model.Detection, error) {
	detections := bp.prepare(targets)

	bp.logger.Info("starting batch processing",
		"total_targets", len(detections),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	var (
		mu   sync.Mutex
		done int
	)
	finish := func(d *model.Detection, err error) {
		bp.ensureResult(d, err)
		if bp.seen != nil && !d.Result.Failed {
			bp.seen.Mark(d.URL)
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		if bp.progress != nil {
			bp.progress(Progress{Done: done, Total: len(detections), Detection: d})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, d := range detections {
		if d.Result != nil {
			finish(d, nil)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				finish(d, err)
				return err
			}

			bp.logger.Debug("scanning target",
				"url", d.URL,
				"index", i+1,
				"total", len(detections),
			)

			// A failed scan is recorded on its detection and never stops
			// the other scans.
			err := bp.pipelineFactory().Execute(gctx, d)
			if err != nil {
				bp.logger.Warn("scan failed", "url", d.URL, "error", err)
			}
			finish(d, err)
			return nil
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}

	bp.logger.Info("batch processing complete",
		"total_targets", len(detections),
		"elapsed", time.Since(startTime),
	)
	return detections, err
}

// prepare normalizes targets, drops repeats and, with skipSeen, drops
// targets found in the seen filter.
func (bp *BatchProcessor) prepare(targets []string) []*model.Detection {
	unique := make(map[string]struct{}, len(targets))
	detections := make([]*model.Detection, 0, len(targets))

	for _, raw := range targets {
		url, err := collector.NormalizeURL(raw)
		if err != nil {
			d := model.NewDetection(raw)
			d.CollectError = err.Error()
			bp.ensureResult(d, err)
			detections = append(detections, d)
			continue
		}
		if _, dup := unique[url]; dup {
			bp.logger.Info("skipping duplicate target", "url", url)
			continue
		}
		unique[url] = struct{}{}
		if bp.skipSeen && bp.seen != nil && bp.seen.Seen(url) {
			bp.logger.Info("skipping previously scanned target", "url", url)
			continue
		}
		detections = append(detections, model.NewDetection(url))
	}
	return detections
}

// ensureResult gives a detection that never reached the analyze step its
// zero-score failure result.
func (bp *BatchProcessor) ensureResult(d *model.Detection, err error) {
	if d.Result != nil {
		return
	}
	if err == nil {
		err = errIncomplete
	}
	if d.CollectError == "" {
		d.CollectError = err.Error()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		d.TimedOut = true
	}
	d.Result = detector.Failed(err, detector.WithLanguage(bp.lang))
}
